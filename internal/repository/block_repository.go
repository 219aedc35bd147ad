package repository

import (
	"errors"

	"github.com/anonic-next/internal/models"

	"gorm.io/gorm"
)

// BlockRepository 拉黑关系数据访问接口
type BlockRepository interface {
	Create(block *models.Block) error
	GetPair(recipientPeerID, blockedPeerID int64) (*models.Block, error)
	Exists(recipientPeerID, blockedPeerID int64) (bool, error)
	Delete(recipientPeerID, blockedPeerID int64) (bool, error)
	DeleteAll(recipientPeerID int64) (int64, error)
	List(recipientPeerID int64) ([]models.Block, error)
	Count() (int64, error)
	WithTx(tx *gorm.DB) *GormBlockRepository
}

// GormBlockRepository GORM 拉黑仓储实现
type GormBlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository 创建拉黑仓储
func NewBlockRepository(db *gorm.DB) *GormBlockRepository {
	return &GormBlockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBlockRepository) WithTx(tx *gorm.DB) *GormBlockRepository {
	if tx == nil {
		return r
	}
	return &GormBlockRepository{db: tx}
}

// Create 创建拉黑关系
func (r *GormBlockRepository) Create(block *models.Block) error {
	return r.db.Create(block).Error
}

// GetPair 按键对获取拉黑关系
func (r *GormBlockRepository) GetPair(recipientPeerID, blockedPeerID int64) (*models.Block, error) {
	if recipientPeerID == 0 || blockedPeerID == 0 {
		return nil, nil
	}
	var block models.Block
	if err := r.db.
		Where("recipient_peer_id = ? AND blocked_peer_id = ?", recipientPeerID, blockedPeerID).
		First(&block).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

// Exists 判断拉黑关系是否存在
func (r *GormBlockRepository) Exists(recipientPeerID, blockedPeerID int64) (bool, error) {
	if recipientPeerID == 0 || blockedPeerID == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.Block{}).
		Where("recipient_peer_id = ? AND blocked_peer_id = ?", recipientPeerID, blockedPeerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete 删除拉黑关系，返回是否有记录被删除
func (r *GormBlockRepository) Delete(recipientPeerID, blockedPeerID int64) (bool, error) {
	if recipientPeerID == 0 || blockedPeerID == 0 {
		return false, nil
	}
	result := r.db.
		Where("recipient_peer_id = ? AND blocked_peer_id = ?", recipientPeerID, blockedPeerID).
		Delete(&models.Block{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteAll 清空某身份的全部拉黑关系，返回删除条数
func (r *GormBlockRepository) DeleteAll(recipientPeerID int64) (int64, error) {
	if recipientPeerID == 0 {
		return 0, nil
	}
	result := r.db.
		Where("recipient_peer_id = ?", recipientPeerID).
		Delete(&models.Block{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 某身份的拉黑列表
func (r *GormBlockRepository) List(recipientPeerID int64) ([]models.Block, error) {
	if recipientPeerID == 0 {
		return []models.Block{}, nil
	}
	var blocks []models.Block
	if err := r.db.
		Where("recipient_peer_id = ?", recipientPeerID).
		Order("id DESC").
		Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

// Count 拉黑关系总数
func (r *GormBlockRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Block{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
