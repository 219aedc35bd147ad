package service

import (
	"context"

	"github.com/anonic-next/internal/logger"

	"github.com/google/uuid"
)

// 通知事件类型常量
const (
	NotifyEventSessionExpired  = "session_expired"
	NotifyEventSuspended       = "suspended"
	NotifyEventIdentityRotated = "identity_rotated"
)

// NotifyEvent 发给外部传输层的通知事件
type NotifyEvent struct {
	Kind         string `json:"kind"`
	PeerNickname string `json:"peer_nickname,omitempty"`
	Hours        int    `json:"hours,omitempty"`
}

// Deliverer 外部投递能力
//
// 实现方用错误哨兵表达投递失败分类：ErrPeerBlocked / ErrPeerDeactivated /
// ErrPeerFrozen / ErrPeerNotFound / ErrRateLimited，其余错误一律按
// ErrPeerNotFound 兜底翻译。
type Deliverer interface {
	// Deliver 投递消息，成功返回投递侧消息标识
	Deliver(ctx context.Context, destinationPeerID int64, content, contentTag string, protect bool) (string, error)
	// CheckReachable 探测目标可达性
	CheckReachable(ctx context.Context, destinationPeerID int64) error
}

// Notifier 外部通知能力
type Notifier interface {
	Notify(ctx context.Context, peerID int64, event NotifyEvent) error
}

// Reporter 滥用上报能力
type Reporter interface {
	ReportAbuse(ctx context.Context, senderPeerID, targetPeerID int64, messageCount int) error
}

// NoopDeliverer 仅落日志的投递实现，正式传输接入前的占位
type NoopDeliverer struct{}

// Deliver 记录日志并返回新的消息标识
func (NoopDeliverer) Deliver(ctx context.Context, destinationPeerID int64, content, contentTag string, protect bool) (string, error) {
	envelopeID := uuid.NewString()
	logger.Debugw("noop_deliver",
		"destination_peer_id", destinationPeerID,
		"content_tag", contentTag,
		"protect", protect,
		"envelope_id", envelopeID,
	)
	return envelopeID, nil
}

// CheckReachable 占位实现始终可达
func (NoopDeliverer) CheckReachable(ctx context.Context, destinationPeerID int64) error {
	return nil
}

// NoopNotifier 仅落日志的通知实现
type NoopNotifier struct{}

// Notify 记录通知事件
func (NoopNotifier) Notify(ctx context.Context, peerID int64, event NotifyEvent) error {
	logger.Infow("noop_notify",
		"peer_id", peerID,
		"kind", event.Kind,
		"peer_nickname", event.PeerNickname,
		"hours", event.Hours,
	)
	return nil
}

// NoopReporter 仅落日志的上报实现
type NoopReporter struct{}

// ReportAbuse 记录滥用上报
func (NoopReporter) ReportAbuse(ctx context.Context, senderPeerID, targetPeerID int64, messageCount int) error {
	logger.Warnw("noop_report_abuse",
		"sender_peer_id", senderPeerID,
		"target_peer_id", targetPeerID,
		"message_count", messageCount,
	)
	return nil
}
