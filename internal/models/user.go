package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 匿名身份表
//
// PeerID 是对端外部标识，终生不变；token / nickname 可轮换，
// short_code 由 PeerID 推导，轮换后保持稳定，用于拉黑与举报展示。
type User struct {
	ID               uint                        `gorm:"primarykey" json:"id"`                   // 主键
	PeerID           int64                       `gorm:"uniqueIndex;not null" json:"peer_id"`    // 外部标识
	Token            string                      `gorm:"uniqueIndex;not null" json:"token"`      // 可达令牌（轮换）
	Nickname         string                      `gorm:"index;not null" json:"nickname"`         // 展示昵称（轮换）
	ShortCode        string                      `gorm:"uniqueIndex;not null" json:"short_code"` // 稳定短码
	Status           string                      `gorm:"default:'active'" json:"status"`         // 身份状态
	Language         string                      `gorm:"default:'en-US'" json:"language"`        // 语言偏好
	AllowedTags      datatypes.JSONSlice[string] `json:"allowed_tags"`                           // 放行的内容标签
	ProtectContent   bool                        `gorm:"default:false" json:"protect_content"`   // 禁止转发/保存
	BannedUntil      *time.Time                  `gorm:"index" json:"banned_until"`              // 封禁到期时间
	BanForever       bool                        `gorm:"default:false" json:"ban_forever"`       // 永久封禁
	BanCount         int                         `gorm:"default:0" json:"ban_count"`             // 历史封禁次数
	Reports          int                         `gorm:"default:0" json:"reports"`               // 被举报次数
	MessagesSent     int64                       `gorm:"default:0" json:"messages_sent"`         // 发出消息数
	MessagesReceived int64                       `gorm:"default:0" json:"messages_received"`     // 收到消息数
	RevokeCount      int                         `gorm:"default:0" json:"revoke_count"`          // 身份重置次数
	LastRevokeAt     *time.Time                  `json:"last_revoke_at"`                         // 上次身份重置时间
	LastActivityAt   *time.Time                  `gorm:"index" json:"last_activity_at"`          // 最后活跃时间
	CreatedAt        time.Time                   `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt        time.Time                   `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt        gorm.DeletedAt              `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Banned 判断此刻是否处于封禁状态（不做任何落库清理）
func (u *User) Banned(now time.Time) bool {
	if u == nil {
		return false
	}
	if u.BanForever {
		return true
	}
	if u.BannedUntil == nil {
		return false
	}
	return now.Before(*u.BannedUntil)
}

// BanExpired 判断封禁是否已到期、需要惰性清理
func (u *User) BanExpired(now time.Time) bool {
	if u == nil || u.BanForever || u.BannedUntil == nil {
		return false
	}
	return !now.Before(*u.BannedUntil)
}
