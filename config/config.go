package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrMissingConfig is returned when an operation needs a setting that was
// not provided. It only fails the operation that needs the setting.
var ErrMissingConfig = errors.New("missing required configuration")

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig
	Admin    AdminConfig
	Twitter  TwitterConfig
	GitHub   GitHubConfig
	Database DatabaseConfig
	PKCE     PKCEConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int    `env:"PORT" envDefault:"3000"`
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	FrontendURL string `env:"FRONTEND_URL"`
}

// AdminConfig holds the operator login password and the session signing key.
type AdminConfig struct {
	Password  string `env:"ADMIN_PASSWORD"`
	JWTSecret string `env:"JWT_SECRET"`
}

// TwitterConfig holds both the static OAuth 1.0a credential set and the
// OAuth 2.0 client used for per-user authorization.
type TwitterConfig struct {
	APIURL            string `env:"TWITTER_API_URL" envDefault:"https://api.twitter.com/2"`
	APIKey            string `env:"TWITTER_API_KEY"`
	APISecret         string `env:"TWITTER_API_SECRET"`
	AccessToken       string `env:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecret string `env:"TWITTER_ACCESS_TOKEN_SECRET"`

	ClientID     string `env:"TWITTER_CLIENT_ID"`
	ClientSecret string `env:"TWITTER_CLIENT_SECRET"`
	RedirectURI  string `env:"TWITTER_REDIRECT_URI"`
	AuthorizeURL string `env:"TWITTER_AUTHORIZE_URL" envDefault:"https://twitter.com/i/oauth2/authorize"`
	TokenURL     string `env:"TWITTER_TOKEN_URL" envDefault:"https://api.twitter.com/2/oauth2/token"`
}

// GitHubConfig holds the repository notes are written to.
type GitHubConfig struct {
	Token         string `env:"GITHUB_TOKEN"`
	Repo          string `env:"GITHUB_REPO"`
	DirectoryPath string `env:"GITHUB_DIRECTORY_PATH"`
	APIURL        string `env:"GITHUB_API_URL"`
}

// DatabaseConfig points at the SQLite file and its migrations.
type DatabaseConfig struct {
	Path          string `env:"DATABASE_PATH" envDefault:"./tweet_fleet.db"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"./database/migrations"`
}

// PKCEConfig selects the backend for pending authorization attempts.
type PKCEConfig struct {
	Store         string        `env:"PKCE_STORE" envDefault:"memory"`
	TTL           time.Duration `env:"PKCE_TTL" envDefault:"10m"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Server.FrontendURL = strings.TrimRight(cfg.Server.FrontendURL, "/")

	switch cfg.PKCE.Store {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("PKCE_STORE must be memory or redis, got %q", cfg.PKCE.Store)
	}
	return &cfg, nil
}
