package models

import "time"

// IdentityRevocation 身份重置归档表
//
// 轮换成功后归档旧的 token / nickname 对，短码不随轮换变化故不归档。
type IdentityRevocation struct {
	ID          uint      `gorm:"primarykey" json:"id"`            // 主键
	PeerID      int64     `gorm:"index;not null" json:"peer_id"`   // 外部标识
	OldToken    string    `gorm:"index;not null" json:"old_token"` // 被废弃的令牌
	OldNickname string    `gorm:"not null" json:"old_nickname"`    // 被废弃的昵称
	CreatedAt   time.Time `gorm:"index" json:"created_at"`         // 归档时间
}

// TableName 指定表名
func (IdentityRevocation) TableName() string {
	return "identity_revocations"
}
