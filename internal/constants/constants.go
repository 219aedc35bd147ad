package constants

// 身份状态常量
const (
	IdentityStatusActive      = "active"
	IdentityStatusDeactivated = "deactivated"
	IdentityStatusFrozen      = "frozen"
)

// 封锁来源常量
const (
	BlockSourceUser = "user"
)

// 消息内容标签常量（可锁定的内容类型）
const (
	ContentTagAll  = "all"
	ContentTagText = "text"
)

// ValidContentTags 全量可锁定内容标签（按展示顺序）
var ValidContentTags = []string{
	ContentTagAll,
	// 文本内容
	"text", "url", "email", "phone", "cashtag", "spoiler",
	// 文本过滤
	"emoji", "emojionly", "emojicustom", "cyrillic", "zalgo",
	// 媒体
	"photo", "video", "gif", "voice", "videonote", "audio", "document",
	// 贴纸
	"sticker", "stickeranimated", "stickerpremium",
	// 互动
	"location", "poll", "inline", "button", "game", "emojigame",
	// 转发
	"forward", "forwardbot", "forwardchannel", "forwardstory", "forwarduser",
	// 其他
	"externalreply",
}

// ForbiddenContentTags 永久拒收的内容标签（不提供开关）
var ForbiddenContentTags = []string{
	"contact", "venue", "successful_payment",
}

// DefaultAllowedContentTags 新身份默认放行的内容标签
var DefaultAllowedContentTags = []string{
	"text", "emoji", "emojionly", "emojicustom", "cyrillic",
	"photo", "video", "gif", "voice", "videonote", "audio", "document",
	"sticker", "stickeranimated", "stickerpremium",
	"spoiler", "url",
}

// 投递结果分类常量
const (
	RouteRejectBanned      = "banned"
	RouteRejectBlocked     = "blocked"
	RouteRejectSelfBlocked = "self_blocked"
	RouteRejectDeactivated = "deactivated"
	RouteRejectFrozen      = "frozen"
	RouteRejectSelf        = "self"
	RouteRejectInvalidPeer = "invalid_peer"
	RouteRejectContentLock = "content_locked"
	RouteRejectNoRoute     = "no_route"
	RouteRejectRateLimited = "rate_limited"
)

// 一次性链接常量
const (
	TempLinkCodeLength = 12
)

// 限流与滥用治理默认值
const (
	DefaultRateWindowSeconds   = 60
	DefaultSpamThreshold       = 60
	DefaultSpamBanHours        = 24
	DefaultRotateCooldownDays  = 7
	DefaultPendingExpireMin    = 5
	DefaultPendingSweepSeconds = 60
	DefaultRouteRetentionHours = 24
	DefaultRoutePruneMinutes   = 60
)

// 队列常量
const (
	QueueDefault        = "default"
	TaskSessionExpired  = "relay:session_expired"
	TaskAbuseReport     = "relay:abuse_report"
	TaskIdentityRevoked = "relay:identity_revoked"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "an"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// SupportedLocales 支持的界面语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}
