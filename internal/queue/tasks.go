package queue

import (
	"encoding/json"

	"github.com/anonic-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSessionExpired 待定会话超时通知任务
	TaskSessionExpired = constants.TaskSessionExpired
	// TaskAbuseReport 滥用上报任务
	TaskAbuseReport = constants.TaskAbuseReport
	// TaskIdentityRevoked 身份轮换通知任务
	TaskIdentityRevoked = constants.TaskIdentityRevoked
)

// SessionExpiredPayload 会话超时通知任务载荷
type SessionExpiredPayload struct {
	PeerID       int64  `json:"peer_id"`
	PeerNickname string `json:"peer_nickname"`
}

// AbuseReportPayload 滥用上报任务载荷
type AbuseReportPayload struct {
	SenderPeerID int64 `json:"sender_peer_id"`
	TargetPeerID int64 `json:"target_peer_id"`
	MessageCount int   `json:"message_count"`
	BanHours     int   `json:"ban_hours"`
}

// IdentityRevokedPayload 身份轮换通知任务载荷
type IdentityRevokedPayload struct {
	PeerID      int64  `json:"peer_id"`
	NewNickname string `json:"new_nickname"`
}

// NewSessionExpiredTask 创建会话超时通知任务
func NewSessionExpiredTask(payload SessionExpiredPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionExpired, body), nil
}

// NewAbuseReportTask 创建滥用上报任务
func NewAbuseReportTask(payload AbuseReportPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAbuseReport, body), nil
}

// NewIdentityRevokedTask 创建身份轮换通知任务
func NewIdentityRevokedTask(payload IdentityRevokedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdentityRevoked, body), nil
}
