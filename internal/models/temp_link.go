package models

import "time"

// TempLink 一次性邀请链接表
//
// code 为高熵随机串，与持有者身份无关，避免泄露关系；
// 可选过期时间与使用配额，二者任一耗尽即不可再解析。
type TempLink struct {
	ID          uint       `gorm:"primarykey" json:"id"`               // 主键
	Code        string     `gorm:"uniqueIndex;not null" json:"code"`   // 链接码
	OwnerPeerID int64      `gorm:"index;not null" json:"owner_peer_id"` // 签发者外部标识
	MaxUses     int        `gorm:"default:0" json:"max_uses"`          // 使用配额（0 为不限）
	UsedCount   int        `gorm:"default:0" json:"used_count"`        // 已使用次数
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at"`            // 过期时间（空为不过期）
	Active      bool       `gorm:"default:true;index" json:"active"`   // 是否有效（吊销后置否）
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`            // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                         // 更新时间
}

// TableName 指定表名
func (TempLink) TableName() string {
	return "temp_links"
}

// Usable 判断此刻链接是否可解析到持有者
func (l *TempLink) Usable(now time.Time) bool {
	if l == nil || !l.Active {
		return false
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return false
	}
	if l.MaxUses > 0 && l.UsedCount >= l.MaxUses {
		return false
	}
	return true
}
