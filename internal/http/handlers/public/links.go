package public

import (
	"github.com/anonic-next/internal/http/response"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueLinkRequest 签发邀请链接请求
type IssueLinkRequest struct {
	ExpiresInDays *int `json:"expires_in_days"`
	MaxUses       *int `json:"max_uses"`
}

// ListLinks 列出当前身份的邀请链接，默认只含有效链接
func (h *Handler) ListLinks(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var (
		links []models.TempLink
		err   error
	)
	if c.Query("include_inactive") == "true" {
		links, err = h.LinkService.ListAll(peerID)
	} else {
		links, err = h.LinkService.ListActive(peerID)
	}
	if err != nil {
		respondLinkError(c, err)
		return
	}

	views := make([]linkView, 0, len(links))
	for i := range links {
		views = append(views, newLinkView(&links[i]))
	}
	response.Success(c, views)
}

// IssueLink 签发一条邀请链接
func (h *Handler) IssueLink(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var req IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	link, err := h.LinkService.Issue(service.IssueLinkInput{
		OwnerPeerID:   peerID,
		ExpiresInDays: req.ExpiresInDays,
		MaxUses:       req.MaxUses,
	})
	if err != nil {
		respondLinkError(c, err)
		return
	}

	response.Success(c, newLinkView(link))
}

// RevokeLink 吊销一条邀请链接
func (h *Handler) RevokeLink(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	if err := h.LinkService.Revoke(c.Param("code"), peerID); err != nil {
		respondLinkError(c, err)
		return
	}

	response.SuccessWithMsg(c, "link revoked", nil)
}

// DeleteLink 删除一条邀请链接
func (h *Handler) DeleteLink(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	if err := h.LinkService.Delete(c.Param("code"), peerID); err != nil {
		respondLinkError(c, err)
		return
	}

	response.SuccessWithMsg(c, "link deleted", nil)
}

// ResolveLink 解析邀请链接指向的身份概要，不消耗使用次数
func (h *Handler) ResolveLink(c *gin.Context) {
	owner, link, err := h.LinkService.Resolve(c.Param("code"))
	if err != nil {
		respondLinkError(c, err)
		return
	}

	response.Success(c, gin.H{
		"code":           link.Code,
		"owner_nickname": owner.Nickname,
		"owner_short":    owner.ShortCode,
	})
}
