package service

import (
	"context"
	"time"

	"github.com/anonic-next/internal/cache"
	"github.com/anonic-next/internal/constants"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	adminStatsCacheKey = "relay:admin_stats"
	adminStatsCacheTTL = 60 * time.Second
)

// RegistryService 身份注册服务
//
// 身份在首次接触时创建，之后只变更状态，永不删除。
type RegistryService struct {
	userRepo    repository.UserRepository
	linkRepo    repository.TempLinkRepository
	blockRepo   repository.BlockRepository
	routeRepo   repository.MessageRouteRepository
	pendingRepo repository.PendingTargetRepository
	cooldown    time.Duration
}

// AdminStats 管理端汇总指标
type AdminStats struct {
	TotalUsers    int64 `json:"total_users"`
	BannedUsers   int64 `json:"banned_users"`
	ActiveLast24h int64 `json:"active_last_24h"`
	ActiveLast7d  int64 `json:"active_last_7d"`
	ActiveLinks   int64 `json:"active_links"`
	TotalBlocks   int64 `json:"total_blocks"`
	TotalRoutes   int64 `json:"total_routes"`
}

// NewRegistryService 创建身份注册服务
func NewRegistryService(
	userRepo repository.UserRepository,
	linkRepo repository.TempLinkRepository,
	blockRepo repository.BlockRepository,
	routeRepo repository.MessageRouteRepository,
	pendingRepo repository.PendingTargetRepository,
	rotateCooldownDays int,
) *RegistryService {
	if rotateCooldownDays <= 0 {
		rotateCooldownDays = constants.DefaultRotateCooldownDays
	}
	return &RegistryService{
		userRepo:    userRepo,
		linkRepo:    linkRepo,
		blockRepo:   blockRepo,
		routeRepo:   routeRepo,
		pendingRepo: pendingRepo,
		cooldown:    time.Duration(rotateCooldownDays) * 24 * time.Hour,
	}
}

// GetOrCreate 按外部标识获取身份，不存在时创建（幂等）
func (s *RegistryService) GetOrCreate(peerID int64) (*models.User, error) {
	if peerID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByPeerID(peerID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	now := time.Now()
	user = &models.User{
		PeerID:         peerID,
		Token:          GenerateToken(),
		Nickname:       GenerateNickname(),
		ShortCode:      ShortCode(peerID),
		Status:         constants.IdentityStatusActive,
		Language:       constants.LocaleEnUS,
		AllowedTags:    datatypes.NewJSONSlice(constants.DefaultAllowedContentTags),
		LastActivityAt: &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		// 并发首次接触：另一个请求已建档，回读即可
		existing, getErr := s.userRepo.GetByPeerID(peerID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	logger.Infow("identity_created", "peer_id", peerID, "short_code", user.ShortCode)
	return user, nil
}

// Get 按外部标识获取身份
func (s *RegistryService) Get(peerID int64) (*models.User, error) {
	user, err := s.userRepo.GetByPeerID(peerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByToken 按可达令牌查找身份
func (s *RegistryService) FindByToken(token string) (*models.User, error) {
	user, err := s.userRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByNickname 按昵称精确查找身份
func (s *RegistryService) FindByNickname(nickname string) (*models.User, error) {
	user, err := s.userRepo.GetByNickname(nickname)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByShortCode 按短码查找身份
func (s *RegistryService) FindByShortCode(code string) (*models.User, error) {
	user, err := s.userRepo.GetByShortCode(code)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RotateIdentity 轮换身份
//
// 冷却期内拒绝并返回剩余天数；成功后归档旧 token/nickname 对，
// 同时吊销该身份签发的全部邀请链接，短码保持不变。
func (s *RegistryService) RotateIdentity(peerID int64) (*models.User, error) {
	user, err := s.Get(peerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if user.LastRevokeAt != nil {
		elapsed := now.Sub(*user.LastRevokeAt)
		if elapsed < s.cooldown {
			remaining := s.cooldown - elapsed
			days := int(remaining / (24 * time.Hour))
			if remaining%(24*time.Hour) > 0 {
				days++
			}
			return nil, &RotateCooldownError{DaysRemaining: days}
		}
	}

	var rotated *models.User
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)
		current, err := repo.GetByPeerIDForUpdate(peerID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrUserNotFound
		}

		if err := repo.CreateRevocation(&models.IdentityRevocation{
			PeerID:      current.PeerID,
			OldToken:    current.Token,
			OldNickname: current.Nickname,
		}); err != nil {
			return err
		}

		current.Token = GenerateToken()
		current.Nickname = GenerateNickname()
		current.RevokeCount++
		current.LastRevokeAt = &now
		if err := repo.Update(current); err != nil {
			return err
		}

		if _, err := s.linkRepo.WithTx(tx).DeactivateByOwner(peerID); err != nil {
			return err
		}

		rotated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("identity_rotated",
		"peer_id", peerID,
		"short_code", rotated.ShortCode,
		"revoke_count", rotated.RevokeCount,
	)
	return rotated, nil
}

// Ban 封禁身份，duration 为空表示永久封禁；返回是否新生效
func (s *RegistryService) Ban(peerID int64, duration *time.Duration) (bool, error) {
	user, err := s.Get(peerID)
	if err != nil {
		return false, err
	}

	now := time.Now()
	if user.Banned(now) {
		return false, nil
	}

	updates := map[string]interface{}{
		"ban_count": gorm.Expr("ban_count + 1"),
	}
	if duration == nil {
		updates["ban_forever"] = true
		updates["banned_until"] = nil
	} else {
		updates["ban_forever"] = false
		updates["banned_until"] = now.Add(*duration)
	}
	if err := s.userRepo.UpdateFields(peerID, updates); err != nil {
		return false, err
	}
	// 封禁同时切断进行中的会话
	if _, err := s.pendingRepo.DeleteBySender(peerID); err != nil {
		logger.Warnw("ban_pending_clear_failed", "peer_id", peerID, "error", err)
	}
	logger.Warnw("identity_banned", "peer_id", peerID, "forever", duration == nil)
	return true, nil
}

// Unban 解除封禁，返回是否有封禁被解除
func (s *RegistryService) Unban(peerID int64) (bool, error) {
	user, err := s.Get(peerID)
	if err != nil {
		return false, err
	}
	if !user.Banned(time.Now()) {
		return false, nil
	}
	if err := s.userRepo.UpdateFields(peerID, map[string]interface{}{
		"ban_forever":  false,
		"banned_until": nil,
	}); err != nil {
		return false, err
	}
	logger.Infow("identity_unbanned", "peer_id", peerID)
	return true, nil
}

// IsBanned 判断是否处于封禁状态
//
// 纯读：到期封禁在这里只判定为未封禁，落库清理由巡检的
// ClearExpiredBans 单独完成，读路径不做写入。
func (s *RegistryService) IsBanned(peerID int64) (bool, error) {
	user, err := s.userRepo.GetByPeerID(peerID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.Banned(time.Now()), nil
}

// SetContentPermission 调整内容标签开关，tag 为 all 时作用于全部可选标签
//
// text 始终放行、不可锁定；永久拒收标签不在可调整范围内。
func (s *RegistryService) SetContentPermission(peerID int64, tag string, allowed bool) (*models.User, error) {
	if !validContentTag(tag) {
		return nil, ErrInvalidContentTag
	}
	user, err := s.Get(peerID)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(user.AllowedTags))
	for _, t := range user.AllowedTags {
		current[t] = true
	}

	apply := func(t string) {
		if t == constants.ContentTagText || t == constants.ContentTagAll {
			return
		}
		if allowed {
			current[t] = true
		} else {
			delete(current, t)
		}
	}
	if tag == constants.ContentTagAll {
		for _, t := range constants.ValidContentTags {
			apply(t)
		}
	} else {
		apply(tag)
	}

	next := make([]string, 0, len(constants.ValidContentTags))
	for _, t := range constants.ValidContentTags {
		if current[t] {
			next = append(next, t)
		}
	}
	user.AllowedTags = datatypes.NewJSONSlice(next)
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetContentPermissions 恢复默认内容标签
func (s *RegistryService) ResetContentPermissions(peerID int64) (*models.User, error) {
	user, err := s.Get(peerID)
	if err != nil {
		return nil, err
	}
	user.AllowedTags = datatypes.NewJSONSlice(constants.DefaultAllowedContentTags)
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetLanguage 更新语言偏好
func (s *RegistryService) SetLanguage(peerID int64, locale string) error {
	supported := false
	for _, l := range constants.SupportedLocales {
		if l == locale {
			supported = true
			break
		}
	}
	if !supported {
		locale = constants.LocaleEnUS
	}
	if _, err := s.Get(peerID); err != nil {
		return err
	}
	return s.userRepo.UpdateFields(peerID, map[string]interface{}{"language": locale})
}

// SetStatus 更新身份状态（active / deactivated / frozen）
func (s *RegistryService) SetStatus(peerID int64, status string) error {
	switch status {
	case constants.IdentityStatusActive, constants.IdentityStatusDeactivated, constants.IdentityStatusFrozen:
	default:
		return ErrInvalidStatus
	}
	if _, err := s.Get(peerID); err != nil {
		return err
	}
	return s.userRepo.UpdateFields(peerID, map[string]interface{}{"status": status})
}

// SetProtectContent 更新消息保护开关
func (s *RegistryService) SetProtectContent(peerID int64, protect bool) error {
	if _, err := s.Get(peerID); err != nil {
		return err
	}
	return s.userRepo.UpdateFields(peerID, map[string]interface{}{"protect_content": protect})
}

// Touch 刷新最后活跃时间
func (s *RegistryService) Touch(peerID int64) error {
	return s.userRepo.Touch(peerID, time.Now())
}

// ListRevocations 身份轮换历史
func (s *RegistryService) ListRevocations(peerID int64) ([]models.IdentityRevocation, error) {
	return s.userRepo.ListRevocations(peerID)
}

// List 管理端身份列表
func (s *RegistryService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Stats 管理端汇总指标（短缓存）
func (s *RegistryService) Stats(ctx context.Context) (*AdminStats, error) {
	var cached AdminStats
	if hit, err := cache.GetJSON(ctx, adminStatsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	now := time.Now()
	stats := &AdminStats{}
	var err error
	if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	if stats.BannedUsers, err = s.userRepo.CountBanned(now); err != nil {
		return nil, err
	}
	if stats.ActiveLast24h, err = s.userRepo.CountActiveSince(now.Add(-24 * time.Hour)); err != nil {
		return nil, err
	}
	if stats.ActiveLast7d, err = s.userRepo.CountActiveSince(now.Add(-7 * 24 * time.Hour)); err != nil {
		return nil, err
	}
	if stats.ActiveLinks, err = s.linkRepo.CountActive(now); err != nil {
		return nil, err
	}
	if stats.TotalBlocks, err = s.blockRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalRoutes, err = s.routeRepo.Count(); err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, adminStatsCacheKey, stats, adminStatsCacheTTL); err != nil {
		logger.Warnw("admin_stats_cache_write_failed", "error", err)
	}
	return stats, nil
}

// AllowedByTags 判断内容标签是否被许可集放行，text 始终放行
func AllowedByTags(tags []string, tag string) bool {
	if tag == constants.ContentTagText {
		return true
	}
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// validContentTag 校验标签是否在可调整枚举内
func validContentTag(tag string) bool {
	for _, t := range constants.ValidContentTags {
		if t == tag {
			return true
		}
	}
	return false
}

// forbiddenContentTag 判断标签是否属于永久拒收集合
func forbiddenContentTag(tag string) bool {
	for _, t := range constants.ForbiddenContentTags {
		if t == tag {
			return true
		}
	}
	return false
}
