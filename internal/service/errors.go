package service

import (
	"errors"
	"fmt"
)

// 业务错误哨兵，供上层用 errors.Is 分发
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPeerNotFound      = errors.New("peer not found")
	ErrUserBanned        = errors.New("user is banned")
	ErrPeerBanned        = errors.New("peer is banned")
	ErrPeerBlocked       = errors.New("peer has blocked sender")
	ErrSelfBlocked       = errors.New("sender has blocked peer")
	ErrPeerDeactivated   = errors.New("peer is deactivated")
	ErrPeerFrozen        = errors.New("peer is frozen")
	ErrSelfRoute         = errors.New("cannot route message to self")
	ErrNoRoute           = errors.New("no route for message")
	ErrContentNotAllowed = errors.New("content type not allowed by peer")
	ErrInvalidContentTag = errors.New("invalid content tag")
	ErrBlockNotFound     = errors.New("block not found")
	ErrLinkNotFound      = errors.New("temp link not found")
	ErrLinkUnusable      = errors.New("temp link expired or exhausted")
	ErrLinkQuotaExceeded = errors.New("temp link quota exceeded")
	ErrRotateCooldown    = errors.New("identity rotation in cooldown")
	ErrInvalidStatus     = errors.New("invalid identity status")
	ErrRateLimited       = errors.New("sender rate limited")
	ErrDeliveryFailed    = errors.New("delivery failed")
)

// RotateCooldownError 身份轮换冷却错误，携带剩余天数
type RotateCooldownError struct {
	DaysRemaining int
}

// Error 实现 error 接口
func (e *RotateCooldownError) Error() string {
	return fmt.Sprintf("identity rotation in cooldown: %d day(s) remaining", e.DaysRemaining)
}

// Unwrap 支持 errors.Is(err, ErrRotateCooldown)
func (e *RotateCooldownError) Unwrap() error {
	return ErrRotateCooldown
}

// SuspendedError 触发自动封禁错误，携带封禁时长
type SuspendedError struct {
	Hours int
}

// Error 实现 error 接口
func (e *SuspendedError) Error() string {
	return fmt.Sprintf("sender suspended for %d hour(s)", e.Hours)
}

// Unwrap 支持 errors.Is(err, ErrRateLimited)
func (e *SuspendedError) Unwrap() error {
	return ErrRateLimited
}
