package public

import (
	"time"

	"github.com/anonic-next/internal/levels"
	"github.com/anonic-next/internal/models"
)

// identityView 身份对外视图
type identityView struct {
	PeerID           int64           `json:"peer_id"`
	Token            string          `json:"token"`
	Nickname         string          `json:"nickname"`
	ShortCode        string          `json:"short_code"`
	Status           string          `json:"status"`
	Language         string          `json:"language"`
	AllowedTags      []string        `json:"allowed_tags"`
	ProtectContent   bool            `json:"protect_content"`
	Banned           bool            `json:"banned"`
	BanForever       bool            `json:"ban_forever"`
	BannedUntil      *time.Time      `json:"banned_until,omitempty"`
	MessagesSent     int64           `json:"messages_sent"`
	MessagesReceived int64           `json:"messages_received"`
	Level            levels.Progress `json:"level"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newIdentityView(u *models.User) identityView {
	return identityView{
		PeerID:           u.PeerID,
		Token:            u.Token,
		Nickname:         u.Nickname,
		ShortCode:        u.ShortCode,
		Status:           u.Status,
		Language:         u.Language,
		AllowedTags:      append([]string(nil), u.AllowedTags...),
		ProtectContent:   u.ProtectContent,
		Banned:           u.Banned(time.Now()),
		BanForever:       u.BanForever,
		BannedUntil:      u.BannedUntil,
		MessagesSent:     u.MessagesSent,
		MessagesReceived: u.MessagesReceived,
		Level:            levels.ForXPProgress(u.MessagesSent + u.MessagesReceived),
		CreatedAt:        u.CreatedAt,
	}
}

// blockView 拉黑条目对外视图
type blockView struct {
	ID        uint      `json:"id"`
	Nickname  string    `json:"nickname"`
	ShortCode string    `json:"short_code"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func newBlockView(b *models.Block) blockView {
	return blockView{
		ID:        b.ID,
		Nickname:  b.Nickname,
		ShortCode: b.ShortCode,
		Source:    b.Source,
		CreatedAt: b.CreatedAt,
	}
}

// linkView 邀请链接对外视图
type linkView struct {
	Code      string     `json:"code"`
	MaxUses   int        `json:"max_uses"`
	UsedCount int        `json:"used_count"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newLinkView(l *models.TempLink) linkView {
	return linkView{
		Code:      l.Code,
		MaxUses:   l.MaxUses,
		UsedCount: l.UsedCount,
		Active:    l.Active,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
}
