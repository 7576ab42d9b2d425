// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/wabridge/internal/jid"
	"github.com/ManuGH/wabridge/internal/session/manager"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty path skips the
// file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseString(EnvPrefix+key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseInt(EnvPrefix+key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseFloat(EnvPrefix+key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseBool(EnvPrefix+key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseDuration(EnvPrefix+key, def)
}

// Load loads configuration with precedence: ENV > File > Defaults.
func (l *Loader) Load() (Config, error) {
	var cfg Config
	setDefaults(&cfg)

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if cfg.Auth.Path != "" && cfg.Auth.Backend != BackendMemory {
		if abs, err := filepath.Abs(cfg.Auth.Path); err == nil {
			cfg.Auth.Path = abs
		}
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.CountryCode = jid.DefaultCountryCode
	cfg.Session = SessionConfig{
		ConnectionAttempts: manager.DefaultConnectionAttempts,
		ReconnectBackoff:   manager.DefaultReconnectBackoff,
		ResetDelay:         manager.DefaultResetDelay,
		Browser:            []string{"wabridge", "Chrome", "1.0"},
	}
	cfg.Auth = AuthConfig{Backend: BackendFile, Path: "auth_info"}
	cfg.Log = LogConfig{Level: "info"}
	cfg.Ops = OpsConfig{Listen: ":9464", RequestsPerMinute: 120}
	cfg.Telemetry = TelemetryConfig{Exporter: "grpc", Endpoint: "localhost:4317", SamplingRate: 1.0}
	cfg.Send = SendConfig{Rate: 20, Burst: 40, PerChatRate: 1, PerChatBurst: 5}
	cfg.Media = MediaConfig{FFProbe: "ffprobe", MaxBytes: 64 << 20, FetchTimeout: 60 * time.Second}
}

// loadFile overlays a YAML file onto cfg with STRICT parsing. Unknown fields
// are fatal.
func (l *Loader) loadFile(path string, cfg *Config) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.AppName = l.envString("APP_NAME", cfg.AppName)
	cfg.PairingPhone = l.envString("PAIRING_PHONE", cfg.PairingPhone)
	cfg.CountryCode = l.envString("COUNTRY_CODE", cfg.CountryCode)

	cfg.Session.ConnectionAttempts = l.envInt("CONNECTION_ATTEMPTS", cfg.Session.ConnectionAttempts)
	cfg.Session.ReconnectBackoff = l.envDuration("RECONNECT_BACKOFF", cfg.Session.ReconnectBackoff)
	cfg.Session.ResetDelay = l.envDuration("RESET_DELAY", cfg.Session.ResetDelay)
	cfg.Session.PrintQR = l.envBool("PRINT_QR", cfg.Session.PrintQR)

	cfg.Auth.Backend = l.envString("AUTH_BACKEND", cfg.Auth.Backend)
	cfg.Auth.Path = l.envString("AUTH_PATH", cfg.Auth.Path)
	cfg.Auth.Collection = l.envString("AUTH_COLLECTION", cfg.Auth.Collection)
	cfg.Auth.Redis.Addr = l.envString("REDIS_ADDR", cfg.Auth.Redis.Addr)
	cfg.Auth.Redis.Password = l.envString("REDIS_PASSWORD", cfg.Auth.Redis.Password)
	cfg.Auth.Redis.DB = l.envInt("REDIS_DB", cfg.Auth.Redis.DB)

	cfg.Log.Level = l.envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Console = l.envBool("LOG_CONSOLE", cfg.Log.Console)

	cfg.Ops.Listen = l.envString("OPS_LISTEN", cfg.Ops.Listen)
	cfg.Ops.RequestsPerMinute = l.envInt("OPS_REQUESTS_PER_MINUTE", cfg.Ops.RequestsPerMinute)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	cfg.Send.Rate = l.envFloat("SEND_RATE", cfg.Send.Rate)
	cfg.Send.Burst = l.envInt("SEND_BURST", cfg.Send.Burst)
	cfg.Send.PerChatRate = l.envFloat("SEND_PER_CHAT_RATE", cfg.Send.PerChatRate)
	cfg.Send.PerChatBurst = l.envInt("SEND_PER_CHAT_BURST", cfg.Send.PerChatBurst)

	cfg.Media.FFProbe = l.envString("FFPROBE", cfg.Media.FFProbe)
	cfg.Media.MaxBytes = int64(l.envInt("MEDIA_MAX_BYTES", int(cfg.Media.MaxBytes)))
	cfg.Media.FetchTimeout = l.envDuration("MEDIA_FETCH_TIMEOUT", cfg.Media.FetchTimeout)
}
