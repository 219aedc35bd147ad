package worker

import (
	"context"
	"encoding/json"

	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/provider"
	"github.com/anonic-next/internal/queue"
	"github.com/anonic-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSessionExpired, c.handleSessionExpired)
	mux.HandleFunc(queue.TaskAbuseReport, c.handleAbuseReport)
	mux.HandleFunc(queue.TaskIdentityRevoked, c.handleIdentityRevoked)
}

func (c *Consumer) handleSessionExpired(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_session_expired_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SessionExpiredPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_session_expired_unmarshal_failed", "error", err)
		return err
	}
	if payload.PeerID == 0 {
		logger.Debugw("worker_session_expired_skip_invalid_payload", "peer_id", payload.PeerID)
		return nil
	}
	if c.Notifier == nil {
		logger.Warnw("worker_session_expired_skip_notifier_nil", "peer_id", payload.PeerID)
		return nil
	}
	if err := c.Notifier.Notify(ctx, payload.PeerID, service.NotifyEvent{
		Kind:         service.NotifyEventSessionExpired,
		PeerNickname: payload.PeerNickname,
	}); err != nil {
		logger.Warnw("worker_session_expired_notify_failed", "peer_id", payload.PeerID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleAbuseReport(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_abuse_report_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AbuseReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_abuse_report_unmarshal_failed", "error", err)
		return err
	}
	if payload.SenderPeerID == 0 {
		logger.Debugw("worker_abuse_report_skip_invalid_payload", "sender_peer_id", payload.SenderPeerID)
		return nil
	}
	if c.Reporter == nil {
		logger.Warnw("worker_abuse_report_skip_reporter_nil", "sender_peer_id", payload.SenderPeerID)
		return nil
	}
	if err := c.Reporter.ReportAbuse(ctx, payload.SenderPeerID, payload.TargetPeerID, payload.MessageCount); err != nil {
		logger.Warnw("worker_abuse_report_failed", "sender_peer_id", payload.SenderPeerID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleIdentityRevoked(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_identity_revoked_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.IdentityRevokedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_identity_revoked_unmarshal_failed", "error", err)
		return err
	}
	if payload.PeerID == 0 {
		logger.Debugw("worker_identity_revoked_skip_invalid_payload", "peer_id", payload.PeerID)
		return nil
	}
	if c.Notifier == nil {
		logger.Warnw("worker_identity_revoked_skip_notifier_nil", "peer_id", payload.PeerID)
		return nil
	}
	if err := c.Notifier.Notify(ctx, payload.PeerID, service.NotifyEvent{
		Kind:         service.NotifyEventIdentityRotated,
		PeerNickname: payload.NewNickname,
	}); err != nil {
		logger.Warnw("worker_identity_revoked_notify_failed", "peer_id", payload.PeerID, "error", err)
		return err
	}
	return nil
}
