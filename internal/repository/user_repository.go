package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/anonic-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 匿名身份数据访问接口
type UserRepository interface {
	GetByPeerID(peerID int64) (*models.User, error)
	GetByPeerIDForUpdate(peerID int64) (*models.User, error)
	GetByToken(token string) (*models.User, error)
	GetByNickname(nickname string) (*models.User, error)
	GetByShortCode(code string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateFields(peerID int64, updates map[string]interface{}) error
	Touch(peerID int64, at time.Time) error
	IncrMessagesSent(peerID int64) error
	IncrMessagesReceived(peerID int64) error
	IncrReports(peerID int64) error
	List(filter UserListFilter) ([]models.User, int64, error)
	Count() (int64, error)
	CountBanned(now time.Time) (int64, error)
	CountActiveSince(since time.Time) (int64, error)
	ClearExpiredBans(now time.Time) (int64, error)
	CreateRevocation(revocation *models.IdentityRevocation) error
	ListRevocations(peerID int64) ([]models.IdentityRevocation, error)
	WithTx(tx *gorm.DB) *GormUserRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormUserRepository GORM 身份仓储实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建身份仓储
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByPeerID 按外部标识获取身份
func (r *GormUserRepository) GetByPeerID(peerID int64) (*models.User, error) {
	if peerID == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("peer_id = ?", peerID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByPeerIDForUpdate 按外部标识加锁获取身份
func (r *GormUserRepository) GetByPeerIDForUpdate(peerID int64) (*models.User, error) {
	if peerID == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("peer_id = ?", peerID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByToken 按可达令牌获取身份
func (r *GormUserRepository) GetByToken(token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByNickname 按昵称精确获取身份
func (r *GormUserRepository) GetByNickname(nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("nickname = ?", nickname).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByShortCode 按短码获取身份
func (r *GormUserRepository) GetByShortCode(code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("short_code = ?", code).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建身份
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新身份
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields 按字段更新身份
func (r *GormUserRepository) UpdateFields(peerID int64, updates map[string]interface{}) error {
	if peerID == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("peer_id = ?", peerID).Updates(updates).Error
}

// Touch 刷新最后活跃时间
func (r *GormUserRepository) Touch(peerID int64, at time.Time) error {
	if peerID == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("peer_id = ?", peerID).
		Update("last_activity_at", at).Error
}

// IncrMessagesSent 发出消息数自增
func (r *GormUserRepository) IncrMessagesSent(peerID int64) error {
	if peerID == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("peer_id = ?", peerID).
		Update("messages_sent", gorm.Expr("messages_sent + 1")).Error
}

// IncrMessagesReceived 收到消息数自增
func (r *GormUserRepository) IncrMessagesReceived(peerID int64) error {
	if peerID == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("peer_id = ?", peerID).
		Update("messages_received", gorm.Expr("messages_received + 1")).Error
}

// IncrReports 被举报次数自增
func (r *GormUserRepository) IncrReports(peerID int64) error {
	if peerID == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("peer_id = ?", peerID).
		Update("reports", gorm.Expr("reports + 1")).Error
}

// List 身份列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		operator := likeOperatorByDialect(dbDialectName(r.db))
		query = query.Where("nickname "+operator+" ? OR short_code "+operator+" ?", like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BannedAt != nil {
		query = query.Where("ban_forever = ? OR banned_until > ?", true, *filter.BannedAt)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.ActiveFrom != nil {
		query = query.Where("last_activity_at >= ?", *filter.ActiveFrom)
	}
	if filter.ActiveTo != nil {
		query = query.Where("last_activity_at <= ?", *filter.ActiveTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Count 身份总数
func (r *GormUserRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountBanned 当前处于封禁状态的身份数
func (r *GormUserRepository) CountBanned(now time.Time) (int64, error) {
	var total int64
	if err := r.db.Model(&models.User{}).
		Where("ban_forever = ? OR banned_until > ?", true, now).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountActiveSince 指定时间后有活跃的身份数
func (r *GormUserRepository) CountActiveSince(since time.Time) (int64, error) {
	var total int64
	if err := r.db.Model(&models.User{}).
		Where("last_activity_at >= ?", since).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ClearExpiredBans 清理已到期的封禁（定期巡检调用，读路径保持纯读）
func (r *GormUserRepository) ClearExpiredBans(now time.Time) (int64, error) {
	result := r.db.Model(&models.User{}).
		Where("ban_forever = ? AND banned_until IS NOT NULL AND banned_until <= ?", false, now).
		Update("banned_until", nil)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreateRevocation 归档被废弃的身份对
func (r *GormUserRepository) CreateRevocation(revocation *models.IdentityRevocation) error {
	return r.db.Create(revocation).Error
}

// ListRevocations 按外部标识查询身份归档
func (r *GormUserRepository) ListRevocations(peerID int64) ([]models.IdentityRevocation, error) {
	if peerID == 0 {
		return []models.IdentityRevocation{}, nil
	}
	var revocations []models.IdentityRevocation
	if err := r.db.Where("peer_id = ?", peerID).Order("id DESC").Find(&revocations).Error; err != nil {
		return nil, err
	}
	return revocations, nil
}
