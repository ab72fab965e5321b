// Package settings loads application settings from an optional YAML file and PEGRACE_*
// environment variables.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Settings struct {
	Server   ServerSettings  `mapstructure:"server"`
	Game     GameSettings    `mapstructure:"game"`
	Sessions SessionSettings `mapstructure:"sessions"`
	Log      LoggingSettings `mapstructure:"log"`
}

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type GameSettings struct {
	ConfigDir     string `mapstructure:"config_dir"`
	DefaultConfig string `mapstructure:"default_config"`
}

type SessionSettings struct {
	Dir             string        `mapstructure:"dir"`
	Backend         string        `mapstructure:"backend"` // file or sqlite
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxIdle         time.Duration `mapstructure:"max_idle"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LoggingSettings struct {
	Debug bool `mapstructure:"debug"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Addr is host:port for the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server.Host, s.Server.Port)
}

// Validate checks values viper cannot.
func (s *Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", s.Server.Port)
	}
	switch s.Sessions.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("sessions.backend must be %q or %q, got %q", BackendFile, BackendSQLite, s.Sessions.Backend)
	}
	if s.Sessions.MaxIdle <= 0 || s.Sessions.CleanupInterval <= 0 {
		return fmt.Errorf("sessions.max_idle and sessions.cleanup_interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("game.config_dir", "configs")
	v.SetDefault("game.default_config", "classic")
	v.SetDefault("sessions.dir", "sessions")
	v.SetDefault("sessions.backend", BackendFile)
	v.SetDefault("sessions.sqlite_path", "sessions/pegrace.db")
	v.SetDefault("sessions.max_idle", 24*time.Hour)
	v.SetDefault("sessions.cleanup_interval", time.Hour)
	v.SetDefault("log.debug", false)
}

// Load reads pegrace.yaml from path when present, then applies environment overrides such
// as PEGRACE_SERVER_PORT or PEGRACE_SESSIONS_BACKEND. An empty path skips the file.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PEGRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("pegrace")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read settings: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
