package models

import "time"

// Block 拉黑关系表
//
// 始终以不变的外部标识建键，昵称与短码仅为拉黑时的展示快照，
// 对方轮换身份后无法借此绕过拉黑。
type Block struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                          // 主键
	RecipientPeerID int64     `gorm:"uniqueIndex:idx_blocks_pair;not null" json:"recipient_peer_id"` // 拉黑方外部标识
	BlockedPeerID   int64     `gorm:"uniqueIndex:idx_blocks_pair;not null" json:"blocked_peer_id"`   // 被拉黑方外部标识
	Nickname        string    `gorm:"not null" json:"nickname"`                                      // 拉黑时昵称快照
	ShortCode       string    `gorm:"index;not null" json:"short_code"`                              // 拉黑时短码快照
	Source          string    `gorm:"default:'user'" json:"source"`                                  // 拉黑来源
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
}

// TableName 指定表名
func (Block) TableName() string {
	return "blocks"
}
