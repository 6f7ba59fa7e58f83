package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("AUTH_DEV_USER_ID", "")
	t.Setenv("DB_LOG_LEVEL", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, int64(0), cfg.DevUserID)
	assert.Equal(t, logger.Warn, cfg.DBLogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_EXPIRES_IN", "90m")
	t.Setenv("AUTH_DEV_USER_ID", "7")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 90*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, int64(7), cfg.DevUserID)
	assert.Equal(t, logger.Silent, cfg.DBLogLevel)
	assert.Equal(t, 50, cfg.DBMaxOpenConns)
}
