package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessExpiry)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HERA_SERVER_PORT", "9000")
	t.Setenv("HERA_JWT_ACCESS_EXPIRY_HOURS", "2")
	t.Setenv("HERA_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HERA_CORS_ALLOW_CREDENTIALS", "false")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.CORS.AllowCredentials)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "hera", Password: "pw", Name: "hera", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=hera password=pw dbname=hera sslmode=disable", d.DSN())
}
