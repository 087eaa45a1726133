package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port              int              `json:"port"`
	Database          DatabaseConfig   `json:"database"`
	EphemeralStore    EphemeralConfig  `json:"ephemeral_store"`
	JWTSecret         string           `json:"jwt_secret"`
	JWTTTLHours       int              `json:"jwt_ttl_hours"`
	CookieSecure      *bool            `json:"cookie_secure"`
	AnonymousAuthorID string           `json:"anonymous_author_id"`
	Mail              MailConfig       `json:"mail"`
	CORSAllowOrigins  []string         `json:"cors_allow_origins"`
	LogConfig         logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type EphemeralConfig struct {
	Type string `json:"type"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/dbname is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.AnonymousAuthorID == "" {
		return nil, fmt.Errorf("anonymous_author_id is required")
	}
	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		return nil, fmt.Errorf("mail.host and mail.from are required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 24
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	switch cfg.EphemeralStore.Type {
	case "":
		cfg.EphemeralStore.Type = "postgres"
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("ephemeral_store.type must be postgres or memory")
	}
	return &cfg, nil
}

func (c *Config) SecureCookies() bool {
	if c.CookieSecure == nil {
		return true
	}
	return *c.CookieSecure
}
