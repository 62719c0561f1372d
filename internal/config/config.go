// Package config reads the sync engine's settings from the environment,
// the way the host platform hands them to a worker process.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"o365sync/calendar/o365"
)

type Config struct {
	// Application registration.
	ClientID     string
	ClientSecret string
	Resource     string
	Tenant       string
	AuthHost     string

	// Remote calendar API root; empty keeps the default.
	BaseURL string

	// Mailbox read by the scheduled app-only path.
	AdminUPN string

	// Session token state for the interactive path. ExpiresOn is unix
	// seconds, as the identity endpoint reports it.
	AccessToken  string
	RefreshToken string
	ExpiresOn    int64

	DBPath string

	// Reconciliation window overrides, in days; zero keeps the defaults.
	PastDays   int
	FutureDays int
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ClientID:     os.Getenv("O365SYNC_CLIENT_ID"),
		ClientSecret: os.Getenv("O365SYNC_CLIENT_SECRET"),
		Resource:     envDefault("O365SYNC_RESOURCE", "https://outlook.office365.com"),
		Tenant:       os.Getenv("O365SYNC_TENANT"),
		AuthHost:     os.Getenv("O365SYNC_AUTH_HOST"),
		BaseURL:      os.Getenv("O365SYNC_BASE_URL"),
		AdminUPN:     os.Getenv("O365SYNC_ADMIN_UPN"),
		AccessToken:  os.Getenv("O365SYNC_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("O365SYNC_REFRESH_TOKEN"),
		DBPath:       envDefault("O365SYNC_DB", "o365sync.db"),
	}

	var err error
	if cfg.ExpiresOn, err = envInt64("O365SYNC_EXPIRES_ON"); err != nil {
		return nil, err
	}
	if cfg.PastDays, err = envInt("O365SYNC_PAST_DAYS"); err != nil {
		return nil, err
	}
	if cfg.FutureDays, err = envInt("O365SYNC_FUTURE_DAYS"); err != nil {
		return nil, err
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("config: O365SYNC_CLIENT_ID and O365SYNC_CLIENT_SECRET are required")
	}
	return cfg, nil
}

func (c Config) Credentials() o365.Credentials {
	return o365.Credentials{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Resource:     c.Resource,
		Tenant:       c.Tenant,
		AuthHost:     c.AuthHost,
	}
}

func (c Config) SessionToken() o365.Token {
	tok := o365.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}
	if c.ExpiresOn > 0 {
		tok.ExpiresAt = time.Unix(c.ExpiresOn, 0)
	}
	return tok
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envInt(key string) (int, error) {
	n, err := envInt64(key)
	return int(n), err
}
