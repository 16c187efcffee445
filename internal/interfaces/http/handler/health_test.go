package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pinger     stubPinger
		wantStatus int
		wantState  string
	}{
		{"healthy", stubPinger{}, http.StatusOK, "healthy"},
		{"database down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(nil)
			router.GET("/health", NewHealthHandler(tt.pinger).Health)

			res := perform(t, router, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantState, res.dataMap(t)["status"])
		})
	}
}
