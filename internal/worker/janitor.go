package worker

import (
	"context"
	"errors"
	"time"

	"github.com/anonic-next/internal/constants"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/provider"
	"github.com/anonic-next/internal/queue"
	"github.com/anonic-next/internal/service"
)

const (
	janitorSweepBatchSize   = 200
	janitorMaintainInterval = time.Hour
)

// Janitor 会话巡检服务
//
// 周期性回收到期的待定会话与过期路由元数据，并清理失效链接、
// 到期封禁和限速器里的闲置计数。
type Janitor struct {
	name      string
	container *provider.Container

	sweepInterval time.Duration
	pruneInterval time.Duration
}

// NewJanitor 创建巡检服务
func NewJanitor(c *provider.Container) (*Janitor, error) {
	if c == nil {
		return nil, errors.New("container is nil")
	}
	sweepSeconds := c.Config.Relay.PendingSweepSeconds
	if sweepSeconds <= 0 {
		sweepSeconds = constants.DefaultPendingSweepSeconds
	}
	pruneMinutes := c.Config.Relay.RoutePruneMinutes
	if pruneMinutes <= 0 {
		pruneMinutes = constants.DefaultRoutePruneMinutes
	}
	return &Janitor{
		name:          "janitor",
		container:     c,
		sweepInterval: time.Duration(sweepSeconds) * time.Second,
		pruneInterval: time.Duration(pruneMinutes) * time.Minute,
	}, nil
}

// Name 服务名称
func (j *Janitor) Name() string {
	if j == nil || j.name == "" {
		return "janitor"
	}
	return j.name
}

// Start 启动巡检循环，阻塞直到 ctx 取消
func (j *Janitor) Start(ctx context.Context) error {
	if j == nil || j.container == nil {
		return errors.New("janitor not initialized")
	}

	sweepTicker := time.NewTicker(j.sweepInterval)
	defer sweepTicker.Stop()
	pruneTicker := time.NewTicker(j.pruneInterval)
	defer pruneTicker.Stop()
	maintainTicker := time.NewTicker(janitorMaintainInterval)
	defer maintainTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sweepTicker.C:
			j.sweepExpiredPending(ctx)
		case <-pruneTicker.C:
			j.pruneRoutes()
		case <-maintainTicker.C:
			j.maintain()
		}
	}
}

// Stop 停止服务
func (j *Janitor) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}

// sweepExpiredPending 回收到期的待定会话并通知会话双方
func (j *Janitor) sweepExpiredPending(ctx context.Context) {
	c := j.container
	now := time.Now()
	for {
		expired, err := c.PendingRepo.ListExpired(now, janitorSweepBatchSize)
		if err != nil {
			logger.Warnw("janitor_list_expired_pending_failed", "error", err)
			return
		}
		if len(expired) == 0 {
			return
		}

		ids := make([]uint, 0, len(expired))
		for _, pending := range expired {
			ids = append(ids, pending.ID)
			j.notifySessionExpired(ctx, pending.SenderPeerID, pending.TargetPeerID)
			j.notifySessionExpired(ctx, pending.TargetPeerID, pending.SenderPeerID)
		}
		deleted, err := c.PendingRepo.DeleteByIDs(ids)
		if err != nil {
			logger.Warnw("janitor_delete_expired_pending_failed", "error", err)
			return
		}
		logger.Infow("janitor_pending_swept", "deleted", deleted)
		if len(expired) < janitorSweepBatchSize {
			return
		}
	}
}

// notifySessionExpired 向 peerID 发送会话超时通知，携带对端昵称
func (j *Janitor) notifySessionExpired(ctx context.Context, peerID, counterpartPeerID int64) {
	c := j.container
	counterpartNickname := ""
	if counterpart, err := c.UserRepo.GetByPeerID(counterpartPeerID); err == nil && counterpart != nil {
		counterpartNickname = counterpart.Nickname
	}

	if c.QueueClient.Enabled() {
		if err := c.QueueClient.EnqueueSessionExpired(queue.SessionExpiredPayload{
			PeerID:       peerID,
			PeerNickname: counterpartNickname,
		}); err == nil {
			return
		} else {
			logger.Warnw("janitor_enqueue_session_expired_failed", "peer_id", peerID, "error", err)
		}
	}
	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.Notify(ctx, peerID, service.NotifyEvent{
		Kind:         service.NotifyEventSessionExpired,
		PeerNickname: counterpartNickname,
	}); err != nil {
		logger.Warnw("janitor_notify_session_expired_failed", "peer_id", peerID, "error", err)
	}
}

// pruneRoutes 清理超出保留期的路由元数据与限速器闲置计数
func (j *Janitor) pruneRoutes() {
	c := j.container
	now := time.Now()
	deleted, err := c.RouteRepo.DeleteExpired(now)
	if err != nil {
		logger.Warnw("janitor_prune_routes_failed", "error", err)
	} else if deleted > 0 {
		logger.Infow("janitor_routes_pruned", "deleted", deleted)
	}
	if pruned := c.RateLimitService.PruneIdle(now); pruned > 0 {
		logger.Debugw("janitor_rate_entries_pruned", "pruned", pruned)
	}
}

// maintain 低频维护：失效链接与到期封禁
func (j *Janitor) maintain() {
	c := j.container
	now := time.Now()
	if deleted, err := c.LinkRepo.DeleteUnusable(now); err != nil {
		logger.Warnw("janitor_delete_unusable_links_failed", "error", err)
	} else if deleted > 0 {
		logger.Infow("janitor_links_cleaned", "deleted", deleted)
	}
	if cleared, err := c.UserRepo.ClearExpiredBans(now); err != nil {
		logger.Warnw("janitor_clear_expired_bans_failed", "error", err)
	} else if cleared > 0 {
		logger.Infow("janitor_bans_cleared", "cleared", cleared)
	}
}
