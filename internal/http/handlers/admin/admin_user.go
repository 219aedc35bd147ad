package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/anonic-next/internal/http/response"
	"github.com/anonic-next/internal/repository"
	"github.com/anonic-next/internal/service"

	"github.com/gin-gonic/gin"
)

// BanUserRequest 封禁身份请求
type BanUserRequest struct {
	Hours   int  `json:"hours"`
	Forever bool `json:"forever"`
}

// SetUserStatusRequest 设置身份状态请求
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func parseAdminPeerID(c *gin.Context) (int64, bool) {
	peerID, err := strconv.ParseInt(c.Param("peer_id"), 10, 64)
	if err != nil || peerID <= 0 {
		respondError(c, response.CodeBadRequest, "invalid peer_id", nil)
		return 0, false
	}
	return peerID, true
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// GetUsers 获取身份列表
func (h *Handler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	keyword := strings.TrimSpace(c.Query("keyword"))
	status := strings.TrimSpace(c.Query("status"))

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_from", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_to", err)
		return
	}
	activeFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("active_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid active_from", err)
		return
	}
	activeTo, err := parseTimeNullable(strings.TrimSpace(c.Query("active_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid active_to", err)
		return
	}

	users, total, err := h.RegistryService.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     keyword,
		Status:      status,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		ActiveFrom:  activeFrom,
		ActiveTo:    activeTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "user list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, users, pagination)
}

// GetUser 获取身份详情
func (h *Handler) GetUser(c *gin.Context) {
	peerID, ok := parseAdminPeerID(c)
	if !ok {
		return
	}

	user, err := h.RegistryService.Get(peerID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "identity not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}

	response.Success(c, user)
}

// BanUser 封禁身份
func (h *Handler) BanUser(c *gin.Context) {
	peerID, ok := parseAdminPeerID(c)
	if !ok {
		return
	}

	var req BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}
	if !req.Forever && req.Hours <= 0 {
		respondError(c, response.CodeBadRequest, "hours must be positive unless forever", nil)
		return
	}

	var duration *time.Duration
	if !req.Forever {
		d := time.Duration(req.Hours) * time.Hour
		duration = &d
	}

	newly, err := h.RegistryService.Ban(peerID, duration)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "identity not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "ban failed", err)
		return
	}

	requestLog(c).Infow("admin_ban_user", "peer_id", peerID, "forever", req.Forever, "hours", req.Hours, "newly", newly)
	response.Success(c, gin.H{"newly_banned": newly})
}

// UnbanUser 解除封禁
func (h *Handler) UnbanUser(c *gin.Context) {
	peerID, ok := parseAdminPeerID(c)
	if !ok {
		return
	}

	changed, err := h.RegistryService.Unban(peerID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "identity not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "unban failed", err)
		return
	}

	requestLog(c).Infow("admin_unban_user", "peer_id", peerID, "changed", changed)
	response.Success(c, gin.H{"changed": changed})
}

// SetUserStatus 设置身份状态
func (h *Handler) SetUserStatus(c *gin.Context) {
	peerID, ok := parseAdminPeerID(c)
	if !ok {
		return
	}

	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	if err := h.RegistryService.SetStatus(peerID, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "identity not found", nil)
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, response.CodeBadRequest, "invalid identity status", nil)
		default:
			respondError(c, response.CodeInternal, "status update failed", err)
		}
		return
	}

	response.SuccessWithMsg(c, "status updated", nil)
}

// GetUserRevocations 获取身份轮换历史
func (h *Handler) GetUserRevocations(c *gin.Context) {
	peerID, ok := parseAdminPeerID(c)
	if !ok {
		return
	}

	revocations, err := h.RegistryService.ListRevocations(peerID)
	if err != nil {
		respondError(c, response.CodeInternal, "revocation list failed", err)
		return
	}

	response.Success(c, revocations)
}

// GetStats 获取平台汇总指标
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.RegistryService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "stats failed", err)
		return
	}

	response.Success(c, stats)
}
