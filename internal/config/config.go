package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Storage backends accepted in storage.backend.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	App       App       `yaml:"app"`
	Server    Server    `yaml:"server"`
	Bot       Bot       `yaml:"bot"`
	Storage   Storage   `yaml:"storage"`
	Redis     Redis     `yaml:"redis"`
	Postgres  Postgres  `yaml:"postgres"`
	Documents Documents `yaml:"documents"`
}

type App struct {
	Name string `yaml:"name" env:"APP_NAME"`
	Env  string `yaml:"env" env:"APP_ENV"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

// Bot configures the Telegram side. Token and AdminID normally come from the environment.
type Bot struct {
	Token       string `yaml:"token" env:"BOT_TOKEN"`
	AdminID     string `yaml:"admin_id" env:"ADMIN_ID"`
	WebhookURL  string `yaml:"webhook_url" env:"WEBHOOK_URL"`
	SupportURL  string `yaml:"support_url" env:"SUPPORT_URL"`
	Debug       bool   `yaml:"debug" env:"BOT_DEBUG"`
	SendTimeout string `yaml:"send_timeout" env:"BOT_SEND_TIMEOUT"`
	Workers     int    `yaml:"workers" env:"BOT_WORKERS"`
}

type Storage struct {
	Backend     string `yaml:"backend" env:"STORAGE_BACKEND"`
	Dir         string `yaml:"dir" env:"STORAGE_DIR"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	MessagesTTL string `yaml:"messages_ttl" env:"MESSAGES_TTL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

// Documents overrides the names under which each document is stored.
type Documents struct {
	Users     string `yaml:"users"`
	Premium   string `yaml:"premium"`
	Languages string `yaml:"languages"`
	Messages  string `yaml:"messages"`
	Quizzes   string `yaml:"quizzes"`
	Emails    string `yaml:"emails"`
}

// Default returns a configuration that runs against JSON files in ./data.
func Default() Config {
	return Config{
		App:     App{Name: "codespark", Env: "development"},
		Server:  Server{Port: "8080"},
		Bot:     Bot{SendTimeout: "10s", Workers: 8},
		Storage: Storage{Backend: BackendFile, Dir: "data", SQLitePath: "data/codespark.db", MessagesTTL: "1m"},
		Redis:   Redis{Prefix: "codespark"},
	}
}

// Load reads YAML config from path on top of Default, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings needed to run the bot.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis backend requires redis.addr")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres backend requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Bot.Token == "" {
		return errors.New("bot token not configured (set BOT_TOKEN)")
	}
	return nil
}

// IsProduction reports whether app.env is "production".
func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
