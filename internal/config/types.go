// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"time"

	"github.com/ManuGH/wabridge/internal/session/model"
)

// Auth backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the effective configuration.
type Config struct {
	AppName      string `yaml:"appName"`
	PairingPhone string `yaml:"pairingPhone"`
	CountryCode  string `yaml:"countryCode"`

	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Ops       OpsConfig       `yaml:"ops"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Send      SendConfig      `yaml:"send"`
	Media     MediaConfig     `yaml:"media"`

	Version string `yaml:"-"`
}

// SessionConfig controls the connection lifecycle.
type SessionConfig struct {
	ConnectionAttempts int           `yaml:"connectionAttempts"`
	ReconnectBackoff   time.Duration `yaml:"reconnectBackoff"`
	ResetDelay         time.Duration `yaml:"resetDelay"`
	PrintQR            bool          `yaml:"printQR"`
	Browser            []string      `yaml:"browser"`
}

// AuthConfig selects where credentials are persisted.
type AuthConfig struct {
	Backend    string      `yaml:"backend"`
	Path       string      `yaml:"path"`
	Collection string      `yaml:"collection"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// OpsConfig configures the health and metrics listener.
type OpsConfig struct {
	Listen string `yaml:"listen"`
	// RequestsPerMinute limits ops requests per client IP; 0 disables.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// SendConfig paces outbound messages.
type SendConfig struct {
	Rate         float64 `yaml:"rate"`
	Burst        int     `yaml:"burst"`
	PerChatRate  float64 `yaml:"perChatRate"`
	PerChatBurst int     `yaml:"perChatBurst"`
}

// MediaConfig controls media resolution.
type MediaConfig struct {
	FFProbe      string        `yaml:"ffprobe"`
	MaxBytes     int64         `yaml:"maxBytes"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

// StoreName is the store location used for identity derivation.
func (a AuthConfig) StoreName() string {
	if a.Backend == BackendFile || a.Backend == BackendSQLite || a.Backend == BackendBadger {
		return a.Path
	}
	return a.Collection
}

// Identity derives the session identity from the configuration.
func (c Config) Identity() string {
	return model.DeriveIdentity(c.AppName, c.PairingPhone, c.Auth.StoreName())
}

// BrowserTuple returns the browser triple announced on pairing.
func (c Config) BrowserTuple() [3]string {
	var out [3]string
	copy(out[:], c.Session.Browser)
	return out
}

// String renders the configuration with secrets masked.
func (c Config) String() string {
	pw := ""
	if c.Auth.Redis.Password != "" {
		pw = "***"
	}
	return fmt.Sprintf("Config{identity=%s backend=%s path=%s collection=%s redis=%s redisPassword=%s attempts=%d backoff=%s ops=%s log=%s}",
		c.Identity(), c.Auth.Backend, c.Auth.Path, c.Auth.Collection, c.Auth.Redis.Addr, pw,
		c.Session.ConnectionAttempts, c.Session.ReconnectBackoff, c.Ops.Listen, c.Log.Level)
}
