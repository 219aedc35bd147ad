package public

import (
	"github.com/anonic-next/internal/http/response"
	"github.com/anonic-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ActivateRequest 激活邀请链接请求
type ActivateRequest struct {
	SenderPeerID int64  `json:"sender_peer_id" binding:"required"`
	Code         string `json:"code" binding:"required"`
}

// RouteMessageRequest 投递消息请求
type RouteMessageRequest struct {
	SenderPeerID      int64  `json:"sender_peer_id" binding:"required"`
	Content           string `json:"content"`
	ContentTag        string `json:"content_tag" binding:"required"`
	ReplyToEnvelopeID string `json:"reply_to_envelope_id"`
}

// DisconnectRequest 断开当前会话请求
type DisconnectRequest struct {
	SenderPeerID int64 `json:"sender_peer_id" binding:"required"`
}

// ReportRequest 举报消息请求
type ReportRequest struct {
	ReporterPeerID int64  `json:"reporter_peer_id" binding:"required"`
	EnvelopeID     string `json:"envelope_id" binding:"required"`
}

// Activate 消耗邀请链接并建立待发送目标
func (h *Handler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.RoutingService.Activate(c.Request.Context(), req.SenderPeerID, req.Code)
	if err != nil {
		respondRouteError(c, err)
		return
	}

	response.Success(c, gin.H{
		"peer_nickname":   result.PeerNickname,
		"peer_short_code": result.PeerShortCode,
	})
}

// RouteMessage 将消息路由到当前目标或回复来源
func (h *Handler) RouteMessage(c *gin.Context) {
	var req RouteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.RoutingService.Route(c.Request.Context(), service.RouteInput{
		SenderPeerID:      req.SenderPeerID,
		Content:           req.Content,
		ContentTag:        req.ContentTag,
		ReplyToEnvelopeID: req.ReplyToEnvelopeID,
	})
	if err != nil {
		respondRouteError(c, err)
		return
	}

	response.Success(c, gin.H{
		"envelope_id":     result.EnvelopeID,
		"target_peer_id":  result.TargetPeerID,
		"target_nickname": result.TargetNickname,
		"count_in_window": result.CountInWindow,
		"reply_hint":      result.ReplyHint,
	})
}

// Disconnect 主动断开未完成的会话
func (h *Handler) Disconnect(c *gin.Context) {
	var req DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cleared, err := h.RoutingService.Disconnect(req.SenderPeerID)
	if err != nil {
		respondRouteError(c, err)
		return
	}

	response.Success(c, gin.H{"cleared": cleared})
}

// Report 举报一条已路由消息的发送者
func (h *Handler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	offender, err := h.RoutingService.Report(c.Request.Context(), req.ReporterPeerID, req.EnvelopeID)
	if err != nil {
		respondRouteError(c, err)
		return
	}

	response.Success(c, gin.H{
		"offender_nickname":   offender.Nickname,
		"offender_short_code": offender.ShortCode,
	})
}
