package public

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/anonic-next/internal/constants"
	"github.com/anonic-next/internal/http/response"
	"github.com/anonic-next/internal/service"

	"github.com/gin-gonic/gin"
)

type errorEnvelope struct {
	StatusCode int    `json:"status_code"`
	Msg        string `json:"msg"`
	Data       struct {
		Reason        string `json:"reason"`
		DaysRemaining int    `json:"days_remaining"`
		BanHours      int    `json:"ban_hours"`
	} `json:"data"`
}

func recordRouteError(t *testing.T, err error) errorEnvelope {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/messages", nil)

	respondRouteError(c, err)

	var envelope errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return envelope
}

func TestRespondRouteErrorReasons(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{"peer banned", service.ErrPeerBanned, response.CodeForbidden, constants.RouteRejectBanned},
		{"sender banned", service.ErrUserBanned, response.CodeForbidden, constants.RouteRejectBanned},
		{"peer blocked", service.ErrPeerBlocked, response.CodeForbidden, constants.RouteRejectBlocked},
		{"self blocked", service.ErrSelfBlocked, response.CodeForbidden, constants.RouteRejectSelfBlocked},
		{"deactivated", service.ErrPeerDeactivated, response.CodeForbidden, constants.RouteRejectDeactivated},
		{"frozen", service.ErrPeerFrozen, response.CodeForbidden, constants.RouteRejectFrozen},
		{"self route", service.ErrSelfRoute, response.CodeBadRequest, constants.RouteRejectSelf},
		{"no route", service.ErrNoRoute, response.CodeBadRequest, constants.RouteRejectNoRoute},
		{"content locked", service.ErrContentNotAllowed, response.CodeForbidden, constants.RouteRejectContentLock},
		{"invalid peer", service.ErrPeerNotFound, response.CodeForbidden, constants.RouteRejectInvalidPeer},
		{"rate limited", service.ErrRateLimited, response.CodeTooManyRequests, constants.RouteRejectRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			envelope := recordRouteError(t, tc.err)
			if envelope.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d", tc.code, envelope.StatusCode)
			}
			if envelope.Data.Reason != tc.reason {
				t.Fatalf("reason want %q got %q", tc.reason, envelope.Data.Reason)
			}
		})
	}
}

func TestRespondRouteErrorSuspendedCarriesHours(t *testing.T) {
	envelope := recordRouteError(t, &service.SuspendedError{Hours: 24})
	if envelope.StatusCode != response.CodeTooManyRequests {
		t.Fatalf("status_code want %d got %d", response.CodeTooManyRequests, envelope.StatusCode)
	}
	if envelope.Data.BanHours != 24 {
		t.Fatalf("ban_hours want 24 got %d", envelope.Data.BanHours)
	}
}
