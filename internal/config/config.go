package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	ADMIN_USERNAME = "ADMIN_USERNAME"
	ADMIN_SECRET   = "ADMIN_SECRET"
	TOKEN_SECRET   = "TOKEN_SECRET"
	TOKEN_MAX_AGE  = "TOKEN_MAX_AGE"
	GITHUB_TOKEN   = "GITHUB_TOKEN"
	REPO_OWNER     = "REPO_OWNER"
	REPO_NAME      = "REPO_NAME"
	REPO_BRANCH    = "REPO_BRANCH"
	LISTEN_ADDR    = "LISTEN_ADDR"
)

var ErrSharedSecrets = errors.New("TOKEN_SECRET must differ from ADMIN_SECRET")

// Config is built once at startup and passed by reference; business
// logic never reads the environment directly.
type Config struct {
	AdminUser   string
	AdminPass   string
	TokenSecret string
	TokenMaxAge time.Duration

	GithubToken string
	RepoOwner   string
	RepoName    string
	Branch      string

	ListenAddr string
}

func FromEnv() (*Config, error) {
	cfg := Config{
		AdminUser:   os.Getenv(ADMIN_USERNAME),
		AdminPass:   os.Getenv(ADMIN_SECRET),
		TokenSecret: os.Getenv(TOKEN_SECRET),
		GithubToken: os.Getenv(GITHUB_TOKEN),
		RepoOwner:   os.Getenv(REPO_OWNER),
		RepoName:    os.Getenv(REPO_NAME),
		Branch:      os.Getenv(REPO_BRANCH),
		ListenAddr:  os.Getenv(LISTEN_ADDR),
	}

	required := map[string]string{
		ADMIN_USERNAME: cfg.AdminUser,
		ADMIN_SECRET:   cfg.AdminPass,
		TOKEN_SECRET:   cfg.TokenSecret,
		GITHUB_TOKEN:   cfg.GithubToken,
		REPO_OWNER:     cfg.RepoOwner,
		REPO_NAME:      cfg.RepoName,
	}
	for name, value := range required {
		if value == "" {
			return nil, fmt.Errorf("missing required environment variable %v", name)
		}
	}

	// the token signing key must not double as the login password
	if cfg.TokenSecret == cfg.AdminPass {
		return nil, ErrSharedSecrets
	}

	if maxAge := os.Getenv(TOKEN_MAX_AGE); maxAge != "" {
		parsed, err := time.ParseDuration(maxAge)
		if err != nil {
			return nil, fmt.Errorf("time.ParseDuration(%v). %w", TOKEN_MAX_AGE, err)
		}
		cfg.TokenMaxAge = parsed
	}

	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:8070"
	}

	return &cfg, nil
}
