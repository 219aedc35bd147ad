package models

import "time"

// PendingTarget 待定会话表
//
// 表示"发送方已激活邀请但尚未发出第一条消息"的一次性路由意图，
// 每个发送方最多一条；首条消息投递确认后消费，超时由巡检删除。
type PendingTarget struct {
	ID           uint      `gorm:"primarykey" json:"id"`                      // 主键
	SenderPeerID int64     `gorm:"uniqueIndex;not null" json:"sender_peer_id"` // 发送方外部标识
	TargetPeerID int64     `gorm:"index;not null" json:"target_peer_id"`      // 目标外部标识
	ExpiresAt    time.Time `gorm:"index;not null" json:"expires_at"`          // 过期时间
	CreatedAt    time.Time `json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (PendingTarget) TableName() string {
	return "pending_targets"
}

// Expired 判断是否已超时
func (p *PendingTarget) Expired(now time.Time) bool {
	if p == nil {
		return true
	}
	return !now.Before(p.ExpiresAt)
}
