package service

import (
	"time"

	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/repository"
)

// LinkService 一次性邀请链接服务
type LinkService struct {
	linkRepo    repository.TempLinkRepository
	userRepo    repository.UserRepository
	defaultUses int
	defaultTTL  time.Duration
	maxPerUser  int
}

// IssueLinkInput 签发链接输入
type IssueLinkInput struct {
	OwnerPeerID   int64
	ExpiresInDays *int
	MaxUses       *int
}

// NewLinkService 创建链接服务
func NewLinkService(
	linkRepo repository.TempLinkRepository,
	userRepo repository.UserRepository,
	defaultUses, defaultTTLHours, maxPerUser int,
) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		userRepo:    userRepo,
		defaultUses: defaultUses,
		defaultTTL:  time.Duration(defaultTTLHours) * time.Hour,
		maxPerUser:  maxPerUser,
	}
}

// Issue 签发一条邀请链接
func (s *LinkService) Issue(input IssueLinkInput) (*models.TempLink, error) {
	owner, err := s.userRepo.GetByPeerID(input.OwnerPeerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	if s.maxPerUser > 0 {
		count, err := s.linkRepo.CountByOwner(input.OwnerPeerID)
		if err != nil {
			return nil, err
		}
		if count >= int64(s.maxPerUser) {
			return nil, ErrLinkQuotaExceeded
		}
	}

	maxUses := s.defaultUses
	if input.MaxUses != nil {
		maxUses = *input.MaxUses
	}
	if maxUses < 0 {
		maxUses = 0
	}

	var expiresAt *time.Time
	switch {
	case input.ExpiresInDays != nil && *input.ExpiresInDays > 0:
		at := time.Now().Add(time.Duration(*input.ExpiresInDays) * 24 * time.Hour)
		expiresAt = &at
	case input.ExpiresInDays == nil && s.defaultTTL > 0:
		at := time.Now().Add(s.defaultTTL)
		expiresAt = &at
	}

	link := &models.TempLink{
		Code:        GenerateLinkCode(),
		OwnerPeerID: input.OwnerPeerID,
		MaxUses:     maxUses,
		ExpiresAt:   expiresAt,
		Active:      true,
	}
	if err := s.linkRepo.Create(link); err != nil {
		return nil, err
	}
	logger.Infow("temp_link_issued",
		"owner_peer_id", input.OwnerPeerID,
		"max_uses", maxUses,
	)
	return link, nil
}

// Resolve 解析链接到持有者，不消耗使用次数
//
// 链接不存在返回 ErrLinkNotFound；已吊销、过期或配额耗尽
// 返回 ErrLinkUnusable。
func (s *LinkService) Resolve(code string) (*models.User, *models.TempLink, error) {
	link, err := s.linkRepo.GetByCode(code)
	if err != nil {
		return nil, nil, err
	}
	if link == nil {
		return nil, nil, ErrLinkNotFound
	}
	if !link.Usable(time.Now()) {
		return nil, nil, ErrLinkUnusable
	}
	owner, err := s.userRepo.GetByPeerID(link.OwnerPeerID)
	if err != nil {
		return nil, nil, err
	}
	if owner == nil {
		return nil, nil, ErrLinkUnusable
	}
	return owner, link, nil
}

// Consume 原子消费一次链接
func (s *LinkService) Consume(code string) error {
	ok, err := s.linkRepo.Consume(code, time.Now())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	link, err := s.linkRepo.GetByCode(code)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrLinkNotFound
	}
	return ErrLinkUnusable
}

// Revoke 吊销持有者的一条链接
func (s *LinkService) Revoke(code string, ownerPeerID int64) error {
	ok, err := s.linkRepo.Revoke(code, ownerPeerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLinkNotFound
	}
	return nil
}

// Delete 删除持有者的一条链接
func (s *LinkService) Delete(code string, ownerPeerID int64) error {
	ok, err := s.linkRepo.Delete(code, ownerPeerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLinkNotFound
	}
	return nil
}

// DeactivateAll 吊销持有者的全部链接，返回吊销条数
func (s *LinkService) DeactivateAll(ownerPeerID int64) (int64, error) {
	return s.linkRepo.DeactivateByOwner(ownerPeerID)
}

// ListAll 持有者名下的全部链接，含已吊销与已耗尽的
func (s *LinkService) ListAll(ownerPeerID int64) ([]models.TempLink, error) {
	return s.linkRepo.ListByOwner(ownerPeerID)
}

// ListActive 持有者当前可用的链接（过滤不改状态）
func (s *LinkService) ListActive(ownerPeerID int64) ([]models.TempLink, error) {
	rows, err := s.linkRepo.ListByOwner(ownerPeerID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	active := make([]models.TempLink, 0, len(rows))
	for _, row := range rows {
		if row.Usable(now) {
			active = append(active, row)
		}
	}
	return active, nil
}
