package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/anonic-next/internal/models"

	"gorm.io/gorm"
)

// MessageRouteRepository 回复路由数据访问接口
type MessageRouteRepository interface {
	Create(route *models.MessageRoute) error
	GetByEnvelopeID(envelopeID string) (*models.MessageRoute, error)
	DeleteExpired(now time.Time) (int64, error)
	Count() (int64, error)
	WithTx(tx *gorm.DB) *GormMessageRouteRepository
}

// GormMessageRouteRepository GORM 回复路由仓储实现
type GormMessageRouteRepository struct {
	db *gorm.DB
}

// NewMessageRouteRepository 创建回复路由仓储
func NewMessageRouteRepository(db *gorm.DB) *GormMessageRouteRepository {
	return &GormMessageRouteRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMessageRouteRepository) WithTx(tx *gorm.DB) *GormMessageRouteRepository {
	if tx == nil {
		return r
	}
	return &GormMessageRouteRepository{db: tx}
}

// Create 记录一条回复路由
func (r *GormMessageRouteRepository) Create(route *models.MessageRoute) error {
	return r.db.Create(route).Error
}

// GetByEnvelopeID 按投递侧消息标识获取路由
func (r *GormMessageRouteRepository) GetByEnvelopeID(envelopeID string) (*models.MessageRoute, error) {
	envelopeID = strings.TrimSpace(envelopeID)
	if envelopeID == "" {
		return nil, nil
	}
	var route models.MessageRoute
	if err := r.db.Where("envelope_id = ?", envelopeID).First(&route).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

// DeleteExpired 删除超过保留期的路由，返回删除条数
func (r *GormMessageRouteRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&models.MessageRoute{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Count 当前路由总数
func (r *GormMessageRouteRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.MessageRoute{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
