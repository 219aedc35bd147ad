package public

import "github.com/anonic-next/internal/provider"

// Handler 传输接入侧 API 处理器入口
// 说明：该处理器供外部传输层（机器人、网关）调用，承载路由与身份操作。
type Handler struct {
	*provider.Container
}

// New 创建接入侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
