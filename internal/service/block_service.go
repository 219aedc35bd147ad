package service

import (
	"strings"

	"github.com/anonic-next/internal/constants"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/repository"
)

// BlockService 拉黑服务
//
// 拉黑关系以不变的外部标识建键，对方轮换身份也无法绕过。
type BlockService struct {
	blockRepo   repository.BlockRepository
	userRepo    repository.UserRepository
	pendingRepo repository.PendingTargetRepository
}

// NewBlockService 创建拉黑服务
func NewBlockService(
	blockRepo repository.BlockRepository,
	userRepo repository.UserRepository,
	pendingRepo repository.PendingTargetRepository,
) *BlockService {
	return &BlockService{
		blockRepo:   blockRepo,
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
	}
}

// Block 拉黑指定身份（幂等），落库时快照对方当前昵称与短码
func (s *BlockService) Block(recipientPeerID, blockedPeerID int64) (*models.Block, error) {
	if recipientPeerID == blockedPeerID {
		return nil, ErrSelfRoute
	}
	blocked, err := s.userRepo.GetByPeerID(blockedPeerID)
	if err != nil {
		return nil, err
	}
	if blocked == nil {
		return nil, ErrPeerNotFound
	}

	existing, err := s.blockRepo.GetPair(recipientPeerID, blockedPeerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	block := &models.Block{
		RecipientPeerID: recipientPeerID,
		BlockedPeerID:   blockedPeerID,
		Nickname:        blocked.Nickname,
		ShortCode:       blocked.ShortCode,
		Source:          constants.BlockSourceUser,
	}
	if err := s.blockRepo.Create(block); err != nil {
		return nil, err
	}
	// 拉黑后不应继续向对方发送，指向对方的待定会话一并清掉
	if _, err := s.pendingRepo.DeleteBySenderAndTarget(recipientPeerID, blockedPeerID); err != nil {
		logger.Warnw("block_pending_clear_failed",
			"recipient_peer_id", recipientPeerID,
			"blocked_peer_id", blockedPeerID,
			"error", err,
		)
	}
	logger.Infow("peer_blocked",
		"recipient_peer_id", recipientPeerID,
		"blocked_short_code", blocked.ShortCode,
	)
	return block, nil
}

// Unblock 按标识符解除拉黑
//
// 标识符先按短码精确匹配，再按昵称快照做不区分大小写的子串匹配，
// 多条命中时取最近拉黑的一条。
func (s *BlockService) Unblock(recipientPeerID int64, identifier string) (*models.Block, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrBlockNotFound
	}

	rows, err := s.blockRepo.List(recipientPeerID)
	if err != nil {
		return nil, err
	}

	var match *models.Block
	for i := range rows {
		if rows[i].ShortCode == identifier {
			match = &rows[i]
			break
		}
	}
	if match == nil {
		needle := strings.ToLower(identifier)
		for i := range rows {
			if strings.Contains(strings.ToLower(rows[i].Nickname), needle) {
				match = &rows[i]
				break
			}
		}
	}
	if match == nil {
		return nil, ErrBlockNotFound
	}

	removed, err := s.blockRepo.Delete(recipientPeerID, match.BlockedPeerID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, ErrBlockNotFound
	}
	return match, nil
}

// UnblockAll 清空拉黑列表，返回解除条数
func (s *BlockService) UnblockAll(recipientPeerID int64) (int64, error) {
	return s.blockRepo.DeleteAll(recipientPeerID)
}

// IsBlocked 判断候选发送方是否被收方拉黑
func (s *BlockService) IsBlocked(recipientPeerID, candidatePeerID int64) (bool, error) {
	return s.blockRepo.Exists(recipientPeerID, candidatePeerID)
}

// List 拉黑列表
func (s *BlockService) List(recipientPeerID int64) ([]models.Block, error) {
	return s.blockRepo.List(recipientPeerID)
}
