package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	supportapp "github.com/bizdesk/backend/internal/application/support"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

func newAdminTicketRouter(t *testing.T) (*gin.Engine, *testutil.MockTicketRepository) {
	tickets := new(testutil.MockTicketRepository)
	svc := supportapp.NewTicketService(supportapp.TicketServiceDeps{
		TicketRepo: tickets,
		UserRepo:   new(testutil.MockUserRepository),
		Logger:     zaptest.NewLogger(t),
	})
	router := gin.New()
	router.GET("/admin/tickets/stats", NewAdminTicketHandler(svc).Stats)
	return router, tickets
}

func TestAdminTicketHandler_Stats(t *testing.T) {
	t.Run("returns counters", func(t *testing.T) {
		router, tickets := newAdminTicketRouter(t)
		tickets.On("Stats", mock.Anything).Return(&support.Stats{
			Total:                  4,
			ByStatus:               map[support.Status]int64{support.StatusOpen: 3, support.StatusResolved: 1},
			ByPriority:             map[support.Priority]int64{support.PriorityHigh: 4},
			ByDepartment:           map[support.Department]int64{support.DepartmentSales: 4},
			OpenUnassigned:         2,
			AverageResolutionHours: 6,
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/tickets/stats", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		got := decodeData[support.Stats](t, w)
		assert.Equal(t, int64(4), got.Total)
		assert.Equal(t, int64(3), got.ByStatus[support.StatusOpen])
		assert.Equal(t, int64(2), got.OpenUnassigned)
		assert.InDelta(t, 6.0, got.AverageResolutionHours, 0.001)
	})

	t.Run("repository failure is an internal error", func(t *testing.T) {
		router, tickets := newAdminTicketRouter(t)
		tickets.On("Stats", mock.Anything).Return(nil, errors.New("db down")).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/tickets/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, decodeResponse(t, w).Error.Code)
	})
}
