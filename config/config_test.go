package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, int64(10*1024), cfg.App.BodyLimit)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 90*24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "sqlite")
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "15m", 15 * time.Minute},
		{"bare days", "90", 90 * 24 * time.Hour},
		{"days suffix", "7d", 7 * 24 * time.Hour},
		{"garbage", "soon", time.Second},
		{"unset", "", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvAsDuration("TEST_DURATION", time.Second); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " http://a.io, ,http://b.io ")
	assert.Equal(t, []string{"http://a.io", "http://b.io"}, getEnvAsList("TEST_LIST", nil))
}

func TestDatabaseConnectionString(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver: "mysql", Host: "db", Port: 3306, Name: "natours", User: "u", Password: "p",
	}}
	assert.Equal(t, "u:p@tcp(db:3306)/natours?charset=utf8mb4&parseTime=True&loc=UTC", cfg.DatabaseConnectionString())

	cfg.Database.Driver = "postgres"
	cfg.Database.Port = 5432
	cfg.Database.SSLMode = "disable"
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=natours sslmode=disable", cfg.DatabaseConnectionString())
}
