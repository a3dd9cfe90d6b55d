// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers files and the environment on top of New().
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// Supported row store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendSheets = "sheets"
)

var backends = []string{BackendMemory, BackendSQLite, BackendRedis, BackendSheets}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Backend selects the row store: memory, sqlite, redis or sheets.
	Backend string `koanf:"backend"`

	// CacheTTL is how long a session trusts its last read.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RemoteTimeout bounds every call to the row store.
	RemoteTimeout time.Duration `koanf:"remote_timeout"`

	// MaxSessions caps live UI sessions; 0 is unbounded.
	MaxSessions int `koanf:"max_sessions"`

	// SessionIdleTimeout drops sessions unused for this long; 0 keeps them.
	SessionIdleTimeout time.Duration `koanf:"session_idle_timeout"`

	// TimestampLayout is the Go time layout for created/updated cells and notes.
	TimestampLayout string `koanf:"timestamp_layout"`

	// SeedDemo fills an empty memory or sqlite sheet with sample tickets.
	SeedDemo bool `koanf:"seed_demo"`

	Sheets SheetsConfig `koanf:"sheets"`
	SQLite SQLiteConfig `koanf:"sqlite"`
	Redis  RedisConfig  `koanf:"redis"`

	// Columns overrides header names by column key, e.g. status: "Status".
	Columns map[string]string `koanf:"columns"`

	// Statuses overrides the status vocabulary. Leaving every kind empty keeps
	// the built-in literals.
	Statuses StatusConfig `koanf:"statuses"`
}

// SheetsConfig addresses a Google spreadsheet tab.
type SheetsConfig struct {
	SpreadsheetID   string `koanf:"spreadsheet_id"`
	SheetName       string `koanf:"sheet_name"`
	CredentialsFile string `koanf:"credentials_file"`
	CredentialsJSON string `koanf:"credentials_json"`
}

// SQLiteConfig locates the local cells database.
type SQLiteConfig struct {
	Path  string `koanf:"path"`
	Sheet string `koanf:"sheet"`
}

// RedisConfig points at the Redis instance holding the shared sheet.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	DB       int    `koanf:"db"`
	Password string `koanf:"password"`
	Prefix   string `koanf:"prefix"`
}

// StatusConfig lists the literals of each status kind, canonical first.
type StatusConfig struct {
	Unread     []string `koanf:"unread"`
	Pending    []string `koanf:"pending"`
	InProgress []string `koanf:"in_progress"`
	Completed  []string `koanf:"completed"`
}

func (s StatusConfig) empty() bool {
	return len(s.Unread)+len(s.Pending)+len(s.InProgress)+len(s.Completed) == 0
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Backend:            BackendMemory,
		CacheTTL:           60 * time.Second,
		RemoteTimeout:      10 * time.Second,
		MaxSessions:        1000,
		SessionIdleTimeout: 30 * time.Minute,
		TimestampLayout:    ticket.DefaultTimestampLayout,
		SeedDemo:           true,
		SQLite: SQLiteConfig{
			Path:  "ticketsync.db",
			Sheet: "tickets",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "ticketsync",
		},
	}
}

// TicketColumns builds the header mapping from Columns.
func (c *Config) TicketColumns() (ticket.Columns, error) {
	overrides := make(map[ticket.ColumnKey]string, len(c.Columns))
	for k, v := range c.Columns {
		key := ticket.ColumnKey(k)
		if !slices.Contains(ticket.ColumnKeys, key) {
			return ticket.Columns{}, fmt.Errorf("%w: unknown column key %q", ErrInvalidConfig, k)
		}
		overrides[key] = v
	}
	cols, err := ticket.NewColumns(overrides)
	if err != nil {
		return ticket.Columns{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cols, nil
}

// Vocabulary builds the status vocabulary from Statuses.
func (c *Config) Vocabulary() (*ticket.Vocabulary, error) {
	if c.Statuses.empty() {
		return ticket.DefaultVocabulary(), nil
	}
	v, err := ticket.NewVocabulary(map[ticket.Kind][]string{
		ticket.KindUnread:     c.Statuses.Unread,
		ticket.KindPending:    c.Statuses.Pending,
		ticket.KindInProgress: c.Statuses.InProgress,
		ticket.KindCompleted:  c.Statuses.Completed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return v, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case !slices.Contains(backends, c.Backend):
		return invalid("unknown backend %q", c.Backend)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.CacheTTL <= 0:
		return invalid("cache_ttl must be positive")
	case c.RemoteTimeout <= 0:
		return invalid("remote_timeout must be positive")
	case c.MaxSessions < 0:
		return invalid("max_sessions must not be negative")
	case c.SessionIdleTimeout < 0:
		return invalid("session_idle_timeout must not be negative")
	case c.SessionIdleTimeout > 0 && c.SessionIdleTimeout < time.Second:
		return invalid("session_idle_timeout must be 0 or at least 1s, got %s", c.SessionIdleTimeout)
	case c.TimestampLayout == "":
		return invalid("timestamp_layout must not be empty")
	}

	switch c.Backend {
	case BackendSheets:
		if c.Sheets.SpreadsheetID == "" || c.Sheets.SheetName == "" {
			return invalid("sheets backend needs sheets.spreadsheet_id and sheets.sheet_name")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" || c.SQLite.Sheet == "" {
			return invalid("sqlite backend needs sqlite.path and sqlite.sheet")
		}
	case BackendRedis:
		if c.Redis.Addr == "" || c.Redis.Prefix == "" {
			return invalid("redis backend needs redis.addr and redis.prefix")
		}
	}

	if _, err := c.TicketColumns(); err != nil {
		return err
	}
	if _, err := c.Vocabulary(); err != nil {
		return err
	}
	return nil
}
