package models

import "time"

// MessageRoute 回复路由表
//
// 每条成功投递的消息都会落一行，以投递侧消息标识建键，
// 让收方对该消息的回复能原路返回，双方始终互不知晓外部标识。
type MessageRoute struct {
	ID             uint      `gorm:"primarykey" json:"id"`                      // 主键
	EnvelopeID     string    `gorm:"uniqueIndex;not null" json:"envelope_id"`   // 投递侧消息标识
	SenderPeerID   int64     `gorm:"index;not null" json:"sender_peer_id"`      // 原发送方外部标识
	ReceiverPeerID int64     `gorm:"index;not null" json:"receiver_peer_id"`    // 收方外部标识
	ExpiresAt      time.Time `gorm:"index;not null" json:"expires_at"`          // 保留截止时间
	CreatedAt      time.Time `json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (MessageRoute) TableName() string {
	return "message_routes"
}

// PeerOf 返回路由中与给定一方相对的另一方；给定方不在路由上时返回 false
func (r *MessageRoute) PeerOf(peerID int64) (int64, bool) {
	if r == nil {
		return 0, false
	}
	switch peerID {
	case r.SenderPeerID:
		return r.ReceiverPeerID, true
	case r.ReceiverPeerID:
		return r.SenderPeerID, true
	}
	return 0, false
}
