package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newPingDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db, mock
}

func healthRouter(h *HealthHandler) *gin.Engine {
	router := newEngine()
	router.GET("/api/health", h.HealthCheck)
	return router
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		redis      Pinger
		wantStatus int
		wantDB     string
		wantRedis  string
	}{
		{"all healthy", nil, fakePinger{}, http.StatusOK, StatusHealthy, StatusHealthy},
		{"redis disabled", nil, nil, http.StatusOK, StatusHealthy, StatusDisabled},
		{"redis down only", nil, fakePinger{err: errors.New("dial tcp")}, http.StatusOK, StatusHealthy, StatusUnhealthy},
		{"database down", errors.New("connection refused"), nil, http.StatusServiceUnavailable, StatusUnhealthy, StatusDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newPingDB(t)
			mock.ExpectPing().WillReturnError(tt.pingErr)

			w := do(healthRouter(NewHealthHandler(db, tt.redis)), http.MethodGet, "/api/health", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			checks := decode(t, w)["checks"].(map[string]any)
			assert.Equal(t, tt.wantDB, checks["database"].(map[string]any)["status"])
			assert.Equal(t, tt.wantRedis, checks["redis"].(map[string]any)["status"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthCheck_NoDatabase(t *testing.T) {
	w := do(healthRouter(NewHealthHandler(nil, nil)), http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, StatusUnhealthy, decode(t, w)["status"])
}
