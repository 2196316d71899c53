package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverLevelDB  = "leveldb"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Invoicer"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Storage struct {
		Driver string `envconfig:"STORAGE_DRIVER" default:"leveldb"`
		Path   string `envconfig:"STORAGE_PATH" default:"invoicer.db"`
		// Archive keeps snapshots of past invoices next to the draft.
		Archive bool `envconfig:"STORAGE_ARCHIVE" default:"true"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"invoicer"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Assist struct {
		APIKey     string        `envconfig:"GOOGLE_API_KEY"`
		Model      string        `envconfig:"ASSIST_MODEL" default:"gemini-2.0-flash"`
		Endpoint   string        `envconfig:"ASSIST_ENDPOINT" default:"https://generativelanguage.googleapis.com"`
		Timeout    time.Duration `envconfig:"ASSIST_TIMEOUT" default:"30s"`
		RateWindow time.Duration `envconfig:"ASSIST_RATE_WINDOW" default:"5s"`
	}

	ObjectStore struct {
		Endpoint        string `envconfig:"S3_ENDPOINT"`
		Region          string `envconfig:"S3_REGION" default:"us-east-1"`
		Bucket          string `envconfig:"S3_BUCKET"`
		AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
		PublicURL       string `envconfig:"S3_PUBLIC_URL"`
	}

	Log struct {
		Format string `envconfig:"LOG_FORMAT" default:"text"`
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		// File receives the TUI's logs, which would otherwise corrupt the screen.
		File string `envconfig:"LOG_FILE" default:"invoicer-tui.log"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// LogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)

	switch cfg.Storage.Driver {
	case DriverMemory, DriverLevelDB, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}
