package public

import (
	handlershared "github.com/anonic-next/internal/http/handlers/shared"
	"github.com/anonic-next/internal/http/response"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/queue"
	"github.com/anonic-next/internal/service"

	"github.com/gin-gonic/gin"
)

// EnsureIdentityRequest 注册/获取身份请求
type EnsureIdentityRequest struct {
	PeerID int64 `json:"peer_id" binding:"required"`
}

// SetLanguageRequest 设置语言请求
type SetLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// SetProtectRequest 设置转发保护请求
type SetProtectRequest struct {
	Protect bool `json:"protect"`
}

// SetContentTagRequest 设置内容类型开关请求
type SetContentTagRequest struct {
	Tag     string `json:"tag" binding:"required"`
	Allowed bool   `json:"allowed"`
}

// EnsureIdentity 注册或返回已存在的匿名身份
func (h *Handler) EnsureIdentity(c *gin.Context) {
	var req EnsureIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.RegistryService.GetOrCreate(req.PeerID)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	response.Success(c, newIdentityView(user))
}

// GetIdentity 查询身份详情
func (h *Handler) GetIdentity(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	user, err := h.RegistryService.Get(peerID)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	response.Success(c, newIdentityView(user))
}

// RotateIdentity 轮换身份令牌与昵称
func (h *Handler) RotateIdentity(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	user, err := h.RegistryService.RotateIdentity(peerID)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	h.notifyIdentityRotated(c, user)
	response.Success(c, newIdentityView(user))
}

// notifyIdentityRotated 通知对端身份已轮换，队列不可用时直接投递
func (h *Handler) notifyIdentityRotated(c *gin.Context, user *models.User) {
	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueIdentityRevoked(queue.IdentityRevokedPayload{
			PeerID:      user.PeerID,
			NewNickname: user.Nickname,
		})
		if err == nil {
			return
		}
		handlershared.RequestLog(c).Warnw("identity_rotated_enqueue_failed", "peer_id", user.PeerID, "error", err)
	}
	if h.Notifier == nil {
		return
	}
	err := h.Notifier.Notify(c.Request.Context(), user.PeerID, service.NotifyEvent{
		Kind:         service.NotifyEventIdentityRotated,
		PeerNickname: user.Nickname,
	})
	if err != nil {
		handlershared.RequestLog(c).Warnw("identity_rotated_notify_failed", "peer_id", user.PeerID, "error", err)
	}
}

// SetLanguage 设置界面语言
func (h *Handler) SetLanguage(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var req SetLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.RegistryService.SetLanguage(peerID, req.Language); err != nil {
		respondIdentityError(c, err)
		return
	}

	response.SuccessWithMsg(c, "language updated", nil)
}

// SetProtectContent 设置消息转发保护
func (h *Handler) SetProtectContent(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var req SetProtectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.RegistryService.SetProtectContent(peerID, req.Protect); err != nil {
		respondIdentityError(c, err)
		return
	}

	response.SuccessWithMsg(c, "protect setting updated", nil)
}

// SetContentTag 设置某类内容是否可接收
func (h *Handler) SetContentTag(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var req SetContentTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.RegistryService.SetContentPermission(peerID, req.Tag, req.Allowed)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	response.Success(c, newIdentityView(user))
}

// ResetContentTags 恢复全部内容类型为可接收
func (h *Handler) ResetContentTags(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	user, err := h.RegistryService.ResetContentPermissions(peerID)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	response.Success(c, newIdentityView(user))
}
