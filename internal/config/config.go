// Package config loads runtime settings from the environment.
//
// Load reads an optional .env file first, so local development can keep
// settings in a file while deployments use real environment variables.
// Variables already present in the environment always win over .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends accepted by DB_CLIENT.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Config holds every setting the server needs.
type Config struct {
	Port      int
	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	Storage StorageConfig

	JWTSecret           string
	TokenTTL            time.Duration
	BcryptCost          int
	RegistrationEnabled bool

	Redis     RedisConfig
	RateLimit RateLimitConfig
	CacheTTL  time.Duration

	AMQPURL     string
	EventsQueue string

	GitHub GitHubConfig

	CORSOrigins []string
}

// StorageConfig selects and addresses the persistence backend.
type StorageConfig struct {
	Backend string // BackendSQLite or BackendMySQL

	File string // sqlite only

	Host     string // mysql only
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string // empty disables Redis
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether GitHub sign-in has been configured.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// LookupFunc matches os.LookupEnv. Tests pass a map-backed lookup instead.
type LookupFunc func(key string) (string, bool)

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup. All problems are collected and
// returned together so a misconfigured deployment can be fixed in one go.
func FromEnv(lookup LookupFunc) (Config, error) {
	e := env{lookup: lookup}

	cfg := Config{
		Port:      e.int("PORT", 3001),
		LogLevel:  e.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat: strings.ToLower(e.str("LOG_FORMAT", "text")),

		Storage: StorageConfig{
			Backend:  e.backend("DB_CLIENT"),
			File:     e.str("DB_FILE", "data/bookmarks.db"),
			Host:     e.str("DB_HOST", "127.0.0.1"),
			Port:     e.int("DB_PORT", 3306),
			User:     e.str("DB_USER", "root"),
			Password: e.str("DB_PASSWORD", ""),
			Name:     e.str("DB_NAME", "mybookmarks"),
		},

		JWTSecret:           e.str("JWT_SECRET", ""),
		TokenTTL:            e.duration("JWT_EXPIRES", 7*24*time.Hour),
		BcryptCost:          e.int("BCRYPT_COST", 10),
		RegistrationEnabled: RegistrationEnabled(e.str("REGISTRATION_ENABLED", "")),

		Redis: RedisConfig{
			Addr:     e.str("REDIS_ADDR", ""),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.int("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        e.bool("RATE_LIMIT_ENABLED", true),
			Capacity:       e.int("RATE_LIMIT_CAPACITY", 10),
			RefillInterval: e.duration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		},
		CacheTTL: e.duration("CACHE_TTL", 5*time.Minute),

		AMQPURL:     e.str("AMQP_URL", ""),
		EventsQueue: e.str("EVENTS_QUEUE", "bookmarks.events"),

		GitHub: GitHubConfig{
			ClientID:     e.str("GITHUB_CLIENT_ID", ""),
			ClientSecret: e.str("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  e.str("GITHUB_CALLBACK_URL", ""),
		},

		CORSOrigins: e.list("CORS_ORIGINS", []string{"*"}),
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	switch {
	case cfg.JWTSecret == "":
		e.fail("JWT_SECRET is required")
	case len(cfg.JWTSecret) < 16:
		e.fail("JWT_SECRET must be at least 16 characters")
	}
	if cfg.TokenTTL <= 0 {
		e.fail("JWT_EXPIRES must be positive")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		e.fail(fmt.Sprintf("PORT %d is out of range", cfg.Port))
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		e.fail(fmt.Sprintf("BCRYPT_COST %d must be between 4 and 31", cfg.BcryptCost))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		e.fail(fmt.Sprintf("LOG_FORMAT %q must be text or json", cfg.LogFormat))
	}
	if cfg.RateLimit.Capacity < 1 {
		cfg.RateLimit.Capacity = 1
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}

	if len(e.errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(e.errs...))
	}
	return cfg, nil
}

// RegistrationEnabled interprets the REGISTRATION_ENABLED value. Matching is
// case-insensitive: "0", "false" and "no" turn registration off, and every
// other value, including the empty string, leaves it on.
func RegistrationEnabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no":
		return false
	}
	return true
}

// ParseDuration accepts Go durations ("90m", "12h") plus a whole-day suffix
// ("7d") for compatibility with the token lifetimes used by older deployments.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// env wraps a LookupFunc and accumulates parse errors.
type env struct {
	lookup LookupFunc
	errs   []error
}

func (e *env) fail(msg string) {
	e.errs = append(e.errs, errors.New(msg))
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.fail(fmt.Sprintf("invalid int for %s: %q", key, v))
		return def
	}
	return n
}

func (e *env) bool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	e.fail(fmt.Sprintf("invalid bool for %s: %q", key, v))
	return def
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := ParseDuration(v)
	if err != nil {
		e.fail(fmt.Sprintf("invalid duration for %s: %q", key, v))
		return def
	}
	return d
}

func (e *env) level(key string, def slog.Level) slog.Level {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		e.fail(fmt.Sprintf("invalid log level for %s: %q", key, v))
		return def
	}
	return lvl
}

func (e *env) list(key string, def []string) []string {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// backend normalises DB_CLIENT. The knex-style names sqlite3 and mysql2 are
// accepted as aliases.
func (e *env) backend(key string) string {
	v := strings.ToLower(e.str(key, BackendSQLite))
	switch v {
	case "sqlite", "sqlite3":
		return BackendSQLite
	case "mysql", "mysql2":
		return BackendMySQL
	}
	e.fail(fmt.Sprintf("unsupported %s %q (want sqlite or mysql)", key, v))
	return BackendSQLite
}
