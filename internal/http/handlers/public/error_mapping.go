package public

import (
	"errors"

	"github.com/anonic-next/internal/constants"
	handlershared "github.com/anonic-next/internal/http/handlers/shared"
	"github.com/anonic-next/internal/http/response"
	"github.com/anonic-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
// reason 非空时作为机读拒绝分类随响应数据下发。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
	reason string
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, response.CodeBadRequest, "invalid request payload", err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	// 携带附加数据的错误单独展开
	var cooldownErr *service.RotateCooldownError
	if errors.As(err, &cooldownErr) {
		handlershared.RespondErrorWithData(c, response.CodeTooManyRequests, "identity rotation in cooldown",
			gin.H{"days_remaining": cooldownErr.DaysRemaining}, nil)
		return
	}
	var suspendedErr *service.SuspendedError
	if errors.As(err, &suspendedErr) {
		handlershared.RespondErrorWithData(c, response.CodeTooManyRequests, "sender suspended",
			gin.H{"ban_hours": suspendedErr.Hours}, nil)
		return
	}

	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			if rule.reason != "" {
				handlershared.RespondErrorWithData(c, rule.code, rule.msg, gin.H{"reason": rule.reason}, nil)
				return
			}
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var identityErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "identity not found"},
	{target: service.ErrUserBanned, code: response.CodeForbidden, msg: "identity suspended"},
	{target: service.ErrInvalidContentTag, code: response.CodeBadRequest, msg: "unknown content tag"},
	{target: service.ErrRotateCooldown, code: response.CodeTooManyRequests, msg: "identity rotation in cooldown"},
}

var routeErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "identity not found"},
	{target: service.ErrPeerNotFound, code: response.CodeForbidden, msg: "peer unreachable", reason: constants.RouteRejectInvalidPeer},
	{target: service.ErrUserBanned, code: response.CodeForbidden, msg: "identity suspended", reason: constants.RouteRejectBanned},
	{target: service.ErrPeerBanned, code: response.CodeForbidden, msg: "peer unavailable", reason: constants.RouteRejectBanned},
	{target: service.ErrPeerBlocked, code: response.CodeForbidden, msg: "peer rejected the message", reason: constants.RouteRejectBlocked},
	{target: service.ErrSelfBlocked, code: response.CodeForbidden, msg: "peer is in your block list", reason: constants.RouteRejectSelfBlocked},
	{target: service.ErrPeerDeactivated, code: response.CodeForbidden, msg: "peer deactivated", reason: constants.RouteRejectDeactivated},
	{target: service.ErrPeerFrozen, code: response.CodeForbidden, msg: "peer frozen", reason: constants.RouteRejectFrozen},
	{target: service.ErrSelfRoute, code: response.CodeBadRequest, msg: "cannot message yourself", reason: constants.RouteRejectSelf},
	{target: service.ErrNoRoute, code: response.CodeBadRequest, msg: "no active session, use an invitation or reply", reason: constants.RouteRejectNoRoute},
	{target: service.ErrContentNotAllowed, code: response.CodeForbidden, msg: "content type not accepted by peer", reason: constants.RouteRejectContentLock},
	{target: service.ErrInvalidContentTag, code: response.CodeBadRequest, msg: "unknown content tag"},
	{target: service.ErrRateLimited, code: response.CodeTooManyRequests, msg: "sending too fast", reason: constants.RouteRejectRateLimited},
	{target: service.ErrLinkNotFound, code: response.CodeNotFound, msg: "invitation not found"},
	{target: service.ErrLinkUnusable, code: response.CodeBadRequest, msg: "invitation expired or exhausted"},
}

var blockErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "identity not found"},
	{target: service.ErrPeerNotFound, code: response.CodeNotFound, msg: "peer not found"},
	{target: service.ErrSelfRoute, code: response.CodeBadRequest, msg: "cannot block yourself"},
	{target: service.ErrBlockNotFound, code: response.CodeNotFound, msg: "block entry not found"},
}

var linkErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "identity not found"},
	{target: service.ErrLinkNotFound, code: response.CodeNotFound, msg: "invitation not found"},
	{target: service.ErrLinkUnusable, code: response.CodeBadRequest, msg: "invitation expired or exhausted"},
	{target: service.ErrLinkQuotaExceeded, code: response.CodeConflict, msg: "invitation quota exceeded"},
}

func respondIdentityError(c *gin.Context, err error) {
	respondWithMappedError(c, err, identityErrorRules, response.CodeInternal, "identity operation failed")
}

func respondRouteError(c *gin.Context, err error) {
	respondWithMappedError(c, err, routeErrorRules, response.CodeInternal, "routing failed")
}

func respondBlockError(c *gin.Context, err error) {
	respondWithMappedError(c, err, blockErrorRules, response.CodeInternal, "block operation failed")
}

func respondLinkError(c *gin.Context, err error) {
	respondWithMappedError(c, err, linkErrorRules, response.CodeInternal, "invitation operation failed")
}
