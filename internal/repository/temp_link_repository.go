package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/anonic-next/internal/models"

	"gorm.io/gorm"
)

// TempLinkRepository 一次性链接数据访问接口
type TempLinkRepository interface {
	Create(link *models.TempLink) error
	GetByCode(code string) (*models.TempLink, error)
	GetByCodeAndOwner(code string, ownerPeerID int64) (*models.TempLink, error)
	ListByOwner(ownerPeerID int64) ([]models.TempLink, error)
	CountByOwner(ownerPeerID int64) (int64, error)
	CountActive(now time.Time) (int64, error)
	Consume(code string, now time.Time) (bool, error)
	Revoke(code string, ownerPeerID int64) (bool, error)
	Delete(code string, ownerPeerID int64) (bool, error)
	DeactivateByOwner(ownerPeerID int64) (int64, error)
	DeleteUnusable(now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormTempLinkRepository
}

// GormTempLinkRepository GORM 一次性链接仓储实现
type GormTempLinkRepository struct {
	db *gorm.DB
}

// NewTempLinkRepository 创建一次性链接仓储
func NewTempLinkRepository(db *gorm.DB) *GormTempLinkRepository {
	return &GormTempLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTempLinkRepository) WithTx(tx *gorm.DB) *GormTempLinkRepository {
	if tx == nil {
		return r
	}
	return &GormTempLinkRepository{db: tx}
}

// Create 创建链接
func (r *GormTempLinkRepository) Create(link *models.TempLink) error {
	return r.db.Create(link).Error
}

// GetByCode 按链接码获取链接
func (r *GormTempLinkRepository) GetByCode(code string) (*models.TempLink, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var link models.TempLink
	if err := r.db.Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByCodeAndOwner 按链接码与持有者获取链接
func (r *GormTempLinkRepository) GetByCodeAndOwner(code string, ownerPeerID int64) (*models.TempLink, error) {
	code = strings.TrimSpace(code)
	if code == "" || ownerPeerID == 0 {
		return nil, nil
	}
	var link models.TempLink
	if err := r.db.
		Where("code = ? AND owner_peer_id = ?", code, ownerPeerID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// ListByOwner 持有者的全部链接
func (r *GormTempLinkRepository) ListByOwner(ownerPeerID int64) ([]models.TempLink, error) {
	if ownerPeerID == 0 {
		return []models.TempLink{}, nil
	}
	var links []models.TempLink
	if err := r.db.
		Where("owner_peer_id = ?", ownerPeerID).
		Order("id DESC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// CountActive 全体未吊销且未过期的链接数
func (r *GormTempLinkRepository) CountActive(now time.Time) (int64, error) {
	var total int64
	if err := r.db.Model(&models.TempLink{}).
		Where("active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountByOwner 持有者当前有效链接数
func (r *GormTempLinkRepository) CountByOwner(ownerPeerID int64) (int64, error) {
	if ownerPeerID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.TempLink{}).
		Where("owner_peer_id = ? AND active = ?", ownerPeerID, true).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Consume 原子消费一次链接
//
// 单条条件 UPDATE 完成检查加自增，并发激活配额链接时
// 只有行仍满足配额与有效期的那次更新生效。
func (r *GormTempLinkRepository) Consume(code string, now time.Time) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	result := r.db.Model(&models.TempLink{}).
		Where("code = ? AND active = ?", code, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Where("max_uses <= 0 OR used_count < max_uses").
		Updates(map[string]interface{}{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Revoke 吊销链接，返回是否有记录被吊销
func (r *GormTempLinkRepository) Revoke(code string, ownerPeerID int64) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" || ownerPeerID == 0 {
		return false, nil
	}
	result := r.db.Model(&models.TempLink{}).
		Where("code = ? AND owner_peer_id = ? AND active = ?", code, ownerPeerID, true).
		Update("active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除链接，返回是否有记录被删除
func (r *GormTempLinkRepository) Delete(code string, ownerPeerID int64) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" || ownerPeerID == 0 {
		return false, nil
	}
	result := r.db.
		Where("code = ? AND owner_peer_id = ?", code, ownerPeerID).
		Delete(&models.TempLink{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeactivateByOwner 吊销持有者的全部链接（身份轮换时调用），返回吊销条数
func (r *GormTempLinkRepository) DeactivateByOwner(ownerPeerID int64) (int64, error) {
	if ownerPeerID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.TempLink{}).
		Where("owner_peer_id = ? AND active = ?", ownerPeerID, true).
		Update("active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteUnusable 清理已吊销或已过期的链接，返回删除条数
func (r *GormTempLinkRepository) DeleteUnusable(now time.Time) (int64, error) {
	result := r.db.
		Where("active = ?", false).
		Or("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&models.TempLink{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
