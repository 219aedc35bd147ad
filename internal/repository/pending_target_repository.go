package repository

import (
	"errors"
	"time"

	"github.com/anonic-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingTargetRepository 待定会话数据访问接口
type PendingTargetRepository interface {
	Upsert(target *models.PendingTarget) error
	GetBySender(senderPeerID int64) (*models.PendingTarget, error)
	DeleteBySender(senderPeerID int64) (bool, error)
	DeleteBySenderAndTarget(senderPeerID, targetPeerID int64) (bool, error)
	ListExpired(now time.Time, limit int) ([]models.PendingTarget, error)
	DeleteByIDs(ids []uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPendingTargetRepository
}

// GormPendingTargetRepository GORM 待定会话仓储实现
type GormPendingTargetRepository struct {
	db *gorm.DB
}

// NewPendingTargetRepository 创建待定会话仓储
func NewPendingTargetRepository(db *gorm.DB) *GormPendingTargetRepository {
	return &GormPendingTargetRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPendingTargetRepository) WithTx(tx *gorm.DB) *GormPendingTargetRepository {
	if tx == nil {
		return r
	}
	return &GormPendingTargetRepository{db: tx}
}

// Upsert 按发送方写入待定会话，同一发送方只保留最新一条
func (r *GormPendingTargetRepository) Upsert(target *models.PendingTarget) error {
	if target == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sender_peer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"target_peer_id",
			"expires_at",
			"created_at",
		}),
	}).Create(target).Error
}

// GetBySender 按发送方获取待定会话
func (r *GormPendingTargetRepository) GetBySender(senderPeerID int64) (*models.PendingTarget, error) {
	if senderPeerID == 0 {
		return nil, nil
	}
	var target models.PendingTarget
	if err := r.db.Where("sender_peer_id = ?", senderPeerID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &target, nil
}

// DeleteBySender 删除发送方的待定会话，返回是否有记录被删除
func (r *GormPendingTargetRepository) DeleteBySender(senderPeerID int64) (bool, error) {
	if senderPeerID == 0 {
		return false, nil
	}
	result := r.db.Where("sender_peer_id = ?", senderPeerID).Delete(&models.PendingTarget{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteBySenderAndTarget 条件删除待定会话
//
// 消费待定会话走这里：仅当记录仍指向投递时观察到的目标才删除，
// 同一发送方并发消息不会把别人刚写入的新会话当作已消费。
func (r *GormPendingTargetRepository) DeleteBySenderAndTarget(senderPeerID, targetPeerID int64) (bool, error) {
	if senderPeerID == 0 || targetPeerID == 0 {
		return false, nil
	}
	result := r.db.
		Where("sender_peer_id = ? AND target_peer_id = ?", senderPeerID, targetPeerID).
		Delete(&models.PendingTarget{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListExpired 查询已超时的待定会话
func (r *GormPendingTargetRepository) ListExpired(now time.Time, limit int) ([]models.PendingTarget, error) {
	query := r.db.Where("expires_at <= ?", now).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var targets []models.PendingTarget
	if err := query.Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

// DeleteByIDs 按主键批量删除待定会话
func (r *GormPendingTargetRepository) DeleteByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&models.PendingTarget{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
