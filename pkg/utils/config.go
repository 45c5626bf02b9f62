package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bookcatalog/internal/logging"
	"bookcatalog/pkg/database"
)

// DevJWTSecret is used when no secret is configured. Fine for a laptop,
// never for a shared deployment.
const DevJWTSecret = "dev-secret-change-me"

type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	SyncAddr string `yaml:"sync_addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret          string `yaml:"jwt_secret"`
	JWTIssuer          string `yaml:"jwt_issuer"`
	JWTTTLHours        int    `yaml:"jwt_ttl_hours"`
	EditorUser         string `yaml:"editor_user"`
	EditorPasswordHash string `yaml:"editor_password_hash"`
}

func (a AuthConfig) JWTDuration() time.Duration {
	if a.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.JWTTTLHours) * time.Hour
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

const (
	EnvConfigFile         = "BOOKCATALOG_CONFIG"
	EnvDBPath             = "BOOKCATALOG_DB_PATH"
	EnvHTTPAddr           = "BOOKCATALOG_HTTP_ADDR"
	EnvSyncAddr           = "BOOKCATALOG_SYNC_ADDR"
	EnvJWTSecret          = "BOOKCATALOG_JWT_SECRET"
	EnvJWTIssuer          = "BOOKCATALOG_JWT_ISSUER"
	EnvJWTTTLHours        = "BOOKCATALOG_JWT_TTL_HOURS"
	EnvEditorUser         = "BOOKCATALOG_EDITOR_USER"
	EnvEditorPasswordHash = "BOOKCATALOG_EDITOR_PASSWORD_HASH"
	EnvLogLevel           = "BOOKCATALOG_LOG_LEVEL"
	EnvLogFormat          = "BOOKCATALOG_LOG_FORMAT"
	EnvLogSource          = "BOOKCATALOG_LOG_SOURCE"
	EnvLogFile            = "BOOKCATALOG_LOG_FILE"
)

func Defaults() AppConfig {
	return AppConfig{
		Server:   ServerConfig{HTTPAddr: ":8080", SyncAddr: ":7070"},
		Database: DatabaseConfig{Path: database.DefaultConfig().Path},
		Auth: AuthConfig{
			JWTSecret:   DevJWTSecret,
			JWTIssuer:   "bookcatalog",
			JWTTTLHours: 24,
			EditorUser:  "editor",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// ConfigPath is the YAML file Load reads. A missing file is not an error.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p
	}
	return "config.yaml"
}

// Load layers defaults, the YAML file, .env files and the environment, in
// that order. Variables already set in the process win over .env entries.
func Load() (AppConfig, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := Defaults()
	path := ConfigPath()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	setString(&cfg.Database.Path, EnvDBPath)
	setString(&cfg.Server.HTTPAddr, EnvHTTPAddr)
	setString(&cfg.Server.SyncAddr, EnvSyncAddr)

	setString(&cfg.Auth.JWTSecret, EnvJWTSecret)
	setString(&cfg.Auth.JWTIssuer, EnvJWTIssuer)
	setString(&cfg.Auth.EditorUser, EnvEditorUser)
	setString(&cfg.Auth.EditorPasswordHash, EnvEditorPasswordHash)
	if v := os.Getenv(EnvJWTTTLHours); v != "" {
		// invalid values keep whatever was configured before
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Auth.JWTTTLHours = n
		}
	}

	setString(&cfg.Logging.Level, EnvLogLevel)
	setString(&cfg.Logging.Format, EnvLogFormat)
	setString(&cfg.Logging.File, EnvLogFile)
	if v := os.Getenv(EnvLogSource); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Logging.Source = b
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c AppConfig) DB() database.Config {
	return database.Config{Path: c.Database.Path}
}

func (c AppConfig) Log() logging.Options {
	return logging.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}
