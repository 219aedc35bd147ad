package service

import (
	"context"
	"errors"
	"time"

	"github.com/anonic-next/internal/constants"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/queue"
	"github.com/anonic-next/internal/repository"
)

// RoutingService 路由引擎
//
// 对每条入站消息决定投往何处、是否放行、会话状态如何演进。
// 路由解析顺序：待定会话优先建立可达性，可解析的回复路由优先于
// 待定会话；两者皆无则拒绝。待定会话只在投递确认后消费。
type RoutingService struct {
	registry    *RegistryService
	blocks      *BlockService
	links       *LinkService
	limiter     *RateLimitService
	userRepo    repository.UserRepository
	pendingRepo repository.PendingTargetRepository
	routeRepo   repository.MessageRouteRepository
	deliverer   Deliverer
	notifier    Notifier
	reporter    Reporter
	queueClient *queue.Client

	pendingExpire  time.Duration
	routeRetention time.Duration
	spamThreshold  int
	spamBanHours   int
}

// RoutingOptions 路由引擎策略参数
type RoutingOptions struct {
	PendingExpireMinutes int
	RouteRetentionHours  int
	SpamThreshold        int
	SpamBanHours         int
}

// RouteInput 入站消息
type RouteInput struct {
	SenderPeerID      int64
	Content           string
	ContentTag        string
	ReplyToEnvelopeID string
}

// RouteResult 路由结果
type RouteResult struct {
	EnvelopeID     string
	TargetPeerID   int64
	TargetNickname string
	CountInWindow  int
	ReplyHint      string
}

// 收件方的回复提示分类，由其自身的待定会话状态推得。
const (
	// ReplyHintNone 收件方的会话已指向发送方，直接发送即可送达
	ReplyHintNone = "none"
	// ReplyHintInstruction 收件方没有进行中的会话，需要回复此消息才能回应
	ReplyHintInstruction = "instruction"
	// ReplyHintSwitchWarning 收件方正与他人会话，回复此消息会切换对象
	ReplyHintSwitchWarning = "switch_warning"
)

// ActivateResult 邀请激活结果
type ActivateResult struct {
	PeerNickname  string
	PeerShortCode string
}

// NewRoutingService 创建路由引擎
func NewRoutingService(
	registry *RegistryService,
	blocks *BlockService,
	links *LinkService,
	limiter *RateLimitService,
	userRepo repository.UserRepository,
	pendingRepo repository.PendingTargetRepository,
	routeRepo repository.MessageRouteRepository,
	deliverer Deliverer,
	notifier Notifier,
	reporter Reporter,
	queueClient *queue.Client,
	opts RoutingOptions,
) *RoutingService {
	if opts.PendingExpireMinutes <= 0 {
		opts.PendingExpireMinutes = constants.DefaultPendingExpireMin
	}
	if opts.RouteRetentionHours <= 0 {
		opts.RouteRetentionHours = constants.DefaultRouteRetentionHours
	}
	if opts.SpamThreshold <= 0 {
		opts.SpamThreshold = constants.DefaultSpamThreshold
	}
	if opts.SpamBanHours <= 0 {
		opts.SpamBanHours = constants.DefaultSpamBanHours
	}
	return &RoutingService{
		registry:       registry,
		blocks:         blocks,
		links:          links,
		limiter:        limiter,
		userRepo:       userRepo,
		pendingRepo:    pendingRepo,
		routeRepo:      routeRepo,
		deliverer:      deliverer,
		notifier:       notifier,
		reporter:       reporter,
		queueClient:    queueClient,
		pendingExpire:  time.Duration(opts.PendingExpireMinutes) * time.Minute,
		routeRetention: time.Duration(opts.RouteRetentionHours) * time.Hour,
		spamThreshold:  opts.SpamThreshold,
		spamBanHours:   opts.SpamBanHours,
	}
}

// Activate 按激活码建立发送方到持有者的待定会话
//
// 激活码先按身份可达令牌解析，未命中再按一次性邀请链接解析。
func (s *RoutingService) Activate(ctx context.Context, senderPeerID int64, code string) (*ActivateResult, error) {
	sender, err := s.registry.GetOrCreate(senderPeerID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if sender.Banned(now) {
		return nil, ErrUserBanned
	}

	owner, viaLink, err := s.resolveActivationOwner(code)
	if err != nil {
		return nil, err
	}
	if owner.PeerID == senderPeerID {
		return nil, ErrSelfRoute
	}

	if err := s.checkPeerAcceptance(ctx, sender, owner); err != nil {
		return nil, err
	}

	// 链接激活即消耗一次配额，并发激活由链接仓储的条件更新裁决；
	// 令牌激活不占配额
	if viaLink {
		if err := s.links.Consume(code); err != nil {
			return nil, err
		}
	}

	if err := s.pendingRepo.Upsert(&models.PendingTarget{
		SenderPeerID: senderPeerID,
		TargetPeerID: owner.PeerID,
		ExpiresAt:    now.Add(s.pendingExpire),
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}
	_ = s.registry.Touch(senderPeerID)

	logger.Infow("invite_activated",
		"sender_peer_id", senderPeerID,
		"owner_short_code", owner.ShortCode,
	)
	return &ActivateResult{
		PeerNickname:  owner.Nickname,
		PeerShortCode: owner.ShortCode,
	}, nil
}

// resolveActivationOwner 解析激活码指向的持有者
//
// 先按身份的可达令牌匹配，再退回一次性邀请链接，返回是否经由链接。
func (s *RoutingService) resolveActivationOwner(code string) (*models.User, bool, error) {
	owner, err := s.registry.FindByToken(code)
	if err == nil {
		return owner, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}
	owner, _, err = s.links.Resolve(code)
	if err != nil {
		return nil, false, err
	}
	return owner, true, nil
}

// Route 路由并投递一条入站消息
func (s *RoutingService) Route(ctx context.Context, input RouteInput) (*RouteResult, error) {
	sender, err := s.registry.GetOrCreate(input.SenderPeerID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_ = s.registry.Touch(sender.PeerID)

	if sender.Banned(now) {
		return nil, ErrUserBanned
	}

	if forbiddenContentTag(input.ContentTag) {
		return nil, ErrContentNotAllowed
	}
	// all 只是权限开关的通配符，不是消息标签
	if !validContentTag(input.ContentTag) || input.ContentTag == constants.ContentTagAll {
		return nil, ErrInvalidContentTag
	}

	destPeerID, fromReply, pending, err := s.resolveDestination(sender.PeerID, input.ReplyToEnvelopeID, now)
	if err != nil {
		return nil, err
	}
	if destPeerID == sender.PeerID {
		return nil, ErrSelfRoute
	}

	target, err := s.registry.Get(destPeerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrPeerNotFound
		}
		return nil, err
	}

	if err := s.checkPeerAcceptance(ctx, sender, target); err != nil {
		return nil, err
	}
	if !AllowedByTags(target.AllowedTags, input.ContentTag) {
		return nil, ErrContentNotAllowed
	}

	count := s.limiter.RecordAndCheck(sender.PeerID, target.PeerID, now)
	if count > s.spamThreshold {
		return nil, s.suspendSender(ctx, sender, target, count)
	}

	envelopeID, err := s.deliverer.Deliver(ctx, target.PeerID, input.Content, input.ContentTag, sender.ProtectContent)
	if err != nil {
		// 投递失败不消费待定会话，发送方可以重试
		return nil, translateDeliveryError(err)
	}

	if err := s.routeRepo.Create(&models.MessageRoute{
		EnvelopeID:     envelopeID,
		SenderPeerID:   sender.PeerID,
		ReceiverPeerID: target.PeerID,
		ExpiresAt:      now.Add(s.routeRetention),
	}); err != nil {
		logger.Errorw("message_route_create_failed", "envelope_id", envelopeID, "error", err)
	}

	if err := s.userRepo.IncrMessagesSent(sender.PeerID); err != nil {
		logger.Warnw("incr_messages_sent_failed", "peer_id", sender.PeerID, "error", err)
	}
	if err := s.userRepo.IncrMessagesReceived(target.PeerID); err != nil {
		logger.Warnw("incr_messages_received_failed", "peer_id", target.PeerID, "error", err)
	}

	if fromReply {
		// 回复确立了新会话：此后发送方的非回复消息也黏在该目标上
		if err := s.pendingRepo.Upsert(&models.PendingTarget{
			SenderPeerID: sender.PeerID,
			TargetPeerID: target.PeerID,
			ExpiresAt:    now.Add(s.pendingExpire),
			CreatedAt:    now,
		}); err != nil {
			logger.Warnw("pending_target_upsert_failed", "peer_id", sender.PeerID, "error", err)
		}
	} else if pending != nil {
		// 仅在投递确认后消费，且只删除路由时观察到的那条
		if _, err := s.pendingRepo.DeleteBySenderAndTarget(sender.PeerID, pending.TargetPeerID); err != nil {
			logger.Warnw("pending_target_consume_failed", "peer_id", sender.PeerID, "error", err)
		}
	}

	return &RouteResult{
		EnvelopeID:     envelopeID,
		TargetPeerID:   target.PeerID,
		TargetNickname: target.Nickname,
		CountInWindow:  count,
		ReplyHint:      s.classifyReplyHint(sender.PeerID, target.PeerID, now),
	}, nil
}

// classifyReplyHint 按收件方自身的待定会话状态给出回复提示分类
func (s *RoutingService) classifyReplyHint(senderPeerID, targetPeerID int64, now time.Time) string {
	targetPending, err := s.pendingRepo.GetBySender(targetPeerID)
	if err != nil {
		logger.Warnw("reply_hint_lookup_failed", "peer_id", targetPeerID, "error", err)
		return ReplyHintInstruction
	}
	if targetPending == nil || !now.Before(targetPending.ExpiresAt) {
		return ReplyHintInstruction
	}
	if targetPending.TargetPeerID == senderPeerID {
		return ReplyHintNone
	}
	return ReplyHintSwitchWarning
}

// Disconnect 主动断开当前待定会话，返回是否有会话被断开
func (s *RoutingService) Disconnect(senderPeerID int64) (bool, error) {
	return s.pendingRepo.DeleteBySender(senderPeerID)
}

// Report 举报某条已收到消息的发送方
func (s *RoutingService) Report(ctx context.Context, reporterPeerID int64, envelopeID string) (*models.User, error) {
	route, err := s.routeRepo.GetByEnvelopeID(envelopeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, ErrNoRoute
	}
	offenderPeerID, ok := route.PeerOf(reporterPeerID)
	if !ok {
		return nil, ErrNoRoute
	}

	offender, err := s.registry.Get(offenderPeerID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.IncrReports(offenderPeerID); err != nil {
		return nil, err
	}

	s.emitAbuseReport(ctx, offenderPeerID, reporterPeerID, 1, 0)
	logger.Warnw("peer_reported",
		"reporter_peer_id", reporterPeerID,
		"offender_short_code", offender.ShortCode,
	)
	return offender, nil
}

// resolveDestination 解析目的地
//
// 可解析的回复路由优先；回复无法解析或根本不是回复时退回待定会话。
// 已超时的待定会话即便尚未被巡检删除也不参与解析。
func (s *RoutingService) resolveDestination(senderPeerID int64, replyToEnvelopeID string, now time.Time) (int64, bool, *models.PendingTarget, error) {
	pending, err := s.pendingRepo.GetBySender(senderPeerID)
	if err != nil {
		return 0, false, nil, err
	}
	if pending != nil && pending.Expired(now) {
		pending = nil
	}

	if replyToEnvelopeID != "" {
		route, err := s.routeRepo.GetByEnvelopeID(replyToEnvelopeID)
		if err != nil {
			return 0, false, nil, err
		}
		if route != nil {
			if dest, ok := route.PeerOf(senderPeerID); ok {
				return dest, true, pending, nil
			}
		}
	}

	if pending != nil {
		return pending.TargetPeerID, false, pending, nil
	}
	return 0, false, nil, ErrNoRoute
}

// checkPeerAcceptance 目标侧接收检查：封禁、拉黑关系与可达性
func (s *RoutingService) checkPeerAcceptance(ctx context.Context, sender, target *models.User) error {
	if target.Banned(time.Now()) {
		return ErrPeerBanned
	}
	blocked, err := s.blocks.IsBlocked(target.PeerID, sender.PeerID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrPeerBlocked
	}
	selfBlocked, err := s.blocks.IsBlocked(sender.PeerID, target.PeerID)
	if err != nil {
		return err
	}
	if selfBlocked {
		return ErrSelfBlocked
	}
	switch target.Status {
	case constants.IdentityStatusDeactivated:
		return ErrPeerDeactivated
	case constants.IdentityStatusFrozen:
		return ErrPeerFrozen
	}
	if err := s.deliverer.CheckReachable(ctx, target.PeerID); err != nil {
		return translateDeliveryError(err)
	}
	return nil
}

// suspendSender 超出阈值：自动封禁并上报，返回携带时长的封禁错误
func (s *RoutingService) suspendSender(ctx context.Context, sender, target *models.User, count int) error {
	banDuration := time.Duration(s.spamBanHours) * time.Hour
	newly, err := s.registry.Ban(sender.PeerID, &banDuration)
	if err != nil {
		return err
	}
	if newly {
		// 每次封禁只上报、只通知一次
		s.emitAbuseReport(ctx, sender.PeerID, target.PeerID, count, s.spamBanHours)
		s.notifySuspended(ctx, sender.PeerID)
		logger.Warnw("sender_auto_suspended",
			"sender_short_code", sender.ShortCode,
			"count_in_window", count,
			"ban_hours", s.spamBanHours,
		)
	}
	return &SuspendedError{Hours: s.spamBanHours}
}

// notifySuspended 告知被封禁的发送方封禁时长
func (s *RoutingService) notifySuspended(ctx context.Context, senderPeerID int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, senderPeerID, NotifyEvent{
		Kind:  NotifyEventSuspended,
		Hours: s.spamBanHours,
	}); err != nil {
		logger.Warnw("suspend_notify_failed", "peer_id", senderPeerID, "error", err)
	}
}

// emitAbuseReport 上报滥用：优先走队列，队列未启用时直接调用上报器
func (s *RoutingService) emitAbuseReport(ctx context.Context, senderPeerID, targetPeerID int64, messageCount, banHours int) {
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueAbuseReport(queue.AbuseReportPayload{
			SenderPeerID: senderPeerID,
			TargetPeerID: targetPeerID,
			MessageCount: messageCount,
			BanHours:     banHours,
		})
		if err == nil {
			return
		}
		logger.Errorw("abuse_report_enqueue_failed", "sender_peer_id", senderPeerID, "error", err)
	}
	if s.reporter != nil {
		if err := s.reporter.ReportAbuse(ctx, senderPeerID, targetPeerID, messageCount); err != nil {
			logger.Errorw("abuse_report_failed", "sender_peer_id", senderPeerID, "error", err)
		}
	}
}

// translateDeliveryError 翻译传输层投递错误
//
// 已知分类原样透传，其余错误按无效对端兜底并落日志。
func translateDeliveryError(err error) error {
	switch {
	case errors.Is(err, ErrPeerBlocked),
		errors.Is(err, ErrSelfBlocked),
		errors.Is(err, ErrPeerDeactivated),
		errors.Is(err, ErrPeerFrozen),
		errors.Is(err, ErrPeerNotFound),
		errors.Is(err, ErrRateLimited):
		return err
	default:
		logger.Warnw("delivery_error_untranslated", "error", err)
		return ErrPeerNotFound
	}
}
