// Package config provides configuration management for Hera
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Database DatabaseConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port         string
	Mode         string // debug, release, test
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the Postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("HERA_SERVER_PORT", "8090"),
			Mode:         getEnv("HERA_SERVER_MODE", "debug"),
			ReadTimeout:  time.Duration(getEnvInt("HERA_SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("HERA_SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("HERA_JWT_SECRET", ""),
			AccessExpiry:  time.Duration(getEnvInt("HERA_JWT_ACCESS_EXPIRY_HOURS", 24)) * time.Hour,
			RefreshExpiry: time.Duration(getEnvInt("HERA_JWT_REFRESH_EXPIRY_HOURS", 168)) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitString(getEnv("HERA_CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			AllowCredentials: getEnvBool("HERA_CORS_ALLOW_CREDENTIALS", true),
		},
		Database: DatabaseConfig{
			Host:     getEnv("HERA_DB_HOST", "localhost"),
			Port:     getEnv("HERA_DB_PORT", "5432"),
			User:     getEnv("HERA_DB_USER", "hera"),
			Password: getEnv("HERA_DB_PASSWORD", ""),
			Name:     getEnv("HERA_DB_NAME", "hera"),
			SSLMode:  getEnv("HERA_DB_SSLMODE", "disable"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(val); err == nil {
		return i
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1" || val == "yes"
}

// splitString splits a comma-separated string into a slice
func splitString(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
