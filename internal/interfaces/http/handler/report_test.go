package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	reportapp "github.com/bizdesk/backend/internal/application/report"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubDigest struct {
	queued int
	err    error
	calls  int
}

func (s *stubDigest) TriggerManualRun(context.Context) (int, error) {
	s.calls++
	return s.queued, s.err
}

func TestReportHandler_TriggerDigest(t *testing.T) {
	tests := []struct {
		name       string
		digest     DigestTrigger
		wantStatus int
		wantCode   string
	}{
		{name: "scheduler disabled", digest: nil, wantStatus: http.StatusServiceUnavailable, wantCode: dto.ErrCodeSchedulerDisabled},
		{name: "queued", digest: &stubDigest{queued: 3}, wantStatus: http.StatusAccepted},
		{name: "failure", digest: &stubDigest{err: errors.New("redis down")}, wantStatus: http.StatusInternalServerError, wantCode: dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReportHandler(nil, tt.digest)
			router := gin.New()
			router.POST("/admin/reports/digest", h.TriggerDigest)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reports/digest", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
				return
			}
			got := decodeData[reportapp.DigestRunResponse](t, w)
			assert.Equal(t, 3, got.Queued)
		})
	}
}

func TestReportHandler_SummaryRejectsBadDates(t *testing.T) {
	h := NewReportHandler(nil, nil)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("jwt_user_id", uuid.NewString())
		c.Set("jwt_company_id", uuid.NewString())
	})
	router.GET("/reports/summary", h.Summary)
	router.GET("/reports/export", h.Export)

	for _, path := range []string{"/reports/summary?from=yesterday", "/reports/export?to=2024-13-45"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code, path)
	}
}
