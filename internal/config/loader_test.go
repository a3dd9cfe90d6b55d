package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/wildforest/ticketsync/internal/config"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Backend, convey.ShouldEqual, config.BackendMemory)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, time.Minute)
				convey.So(cfg.RemoteTimeout, convey.ShouldEqual, 10*time.Second)
				convey.So(cfg.TimestampLayout, convey.ShouldEqual, ticket.DefaultTimestampLayout)
				convey.So(cfg.SeedDemo, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TICKETSYNC_ADDR", ":8080")
			_ = os.Setenv("TICKETSYNC_CACHE_TTL", "30s")
			_ = os.Setenv("TICKETSYNC_MAX_SESSIONS", "5")
			_ = os.Setenv("TICKETSYNC_SEED_DEMO", "false")
			_ = os.Setenv("TICKETSYNC_BACKEND", "sqlite")
			_ = os.Setenv("TICKETSYNC_SQLITE__PATH", "/tmp/tickets.db")
			_ = os.Setenv("TICKETSYNC_STATUSES__UNREAD", "new")
			_ = os.Setenv("TICKETSYNC_STATUSES__IN_PROGRESS", "working, busy")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 5)
				convey.So(cfg.SeedDemo, convey.ShouldBeFalse)
			})

			convey.Convey("And double underscores should reach nested keys", func() {
				convey.So(cfg.Backend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.SQLite.Path, convey.ShouldEqual, "/tmp/tickets.db")
				convey.So(cfg.SQLite.Sheet, convey.ShouldEqual, "tickets")
			})

			convey.Convey("And status lists should split on commas", func() {
				convey.So(cfg.Statuses.InProgress, convey.ShouldResemble, []string{"working", "busy"})
				v, err := cfg.Vocabulary()
				convey.So(err, convey.ShouldBeNil)
				convey.So(v.Classify("busy"), convey.ShouldEqual, ticket.KindInProgress)
				convey.So(v.Canonical(ticket.KindUnread), convey.ShouldEqual, "new")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
backend: sheets
remote_timeout: 5s
sheets:
  spreadsheet_id: "abc123"
  sheet_name: "客服紀錄"
columns:
  status: "Status"
  assigned_staff: "Owner"
statuses:
  unread: ["Open"]
  in_progress: ["Working", "In progress"]
  completed: ["Done"]
`)
			_ = os.Setenv("TICKETSYNC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.RemoteTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.Sheets.SpreadsheetID, convey.ShouldEqual, "abc123")
				convey.So(cfg.Sheets.SheetName, convey.ShouldEqual, "客服紀錄")
			})

			convey.Convey("And header overrides should build the column mapping", func() {
				cols, err := cfg.TicketColumns()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cols.Header(ticket.ColumnStatus), convey.ShouldEqual, "Status")
				convey.So(cols.Header(ticket.ColumnAssignedStaff), convey.ShouldEqual, "Owner")
				convey.So(cols.Header(ticket.ColumnTicketID), convey.ShouldEqual, "票號ID")
			})

			convey.Convey("And the vocabulary should replace the defaults", func() {
				v, err := cfg.Vocabulary()
				convey.So(err, convey.ShouldBeNil)
				convey.So(v.Choices(), convey.ShouldResemble, []string{"Open", "Working", "Done"})
				convey.So(v.Known("未讀"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
cache_ttl: 2m
`)
			_ = os.Setenv("TICKETSYNC_CONFIG", tmpFile)
			_ = os.Setenv("TICKETSYNC_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 2*time.Minute)
			})
		})

		convey.Convey("When a dotenv file is present", func() {
			dir := t.TempDir()
			dotfile := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(dotfile, []byte("TICKETSYNC_LOG_LEVEL=debug\nTICKETSYNC_ADDR=:7070\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("TICKETSYNC_ENV_FILE", dotfile)
			_ = os.Setenv("TICKETSYNC_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then its variables should apply without overriding the real environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("TICKETSYNC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TICKETSYNC_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TICKETSYNC_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should be valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the backend is unknown", func() {
			cfg.Backend = "postgres"

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the sheets backend lacks a spreadsheet", func() {
			cfg.Backend = config.BackendSheets
			cfg.Sheets.SheetName = "tickets"

			convey.Convey("Then validation should fail", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "spreadsheet_id")
			})
		})

		convey.Convey("When the cache TTL is not positive", func() {
			cfg.CacheTTL = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the session idle timeout is below a second", func() {
			cfg.SessionIdleTimeout = time.Nanosecond

			convey.Convey("Then validation should fail", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "session_idle_timeout")
			})
		})

		convey.Convey("When session expiry is disabled", func() {
			cfg.SessionIdleTimeout = 0

			convey.Convey("Then validation should pass", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When two columns share a header", func() {
			cfg.Columns = map[string]string{"notes": "員工"}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a column key is unknown", func() {
			cfg.Columns = map[string]string{"priority": "優先"}

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a status literal belongs to two kinds", func() {
			cfg.Statuses.Unread = []string{"open"}
			cfg.Statuses.Pending = []string{"open"}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TICKETSYNC_CONFIG",
		"TICKETSYNC_ENV_FILE",
		"TICKETSYNC_ADDR",
		"TICKETSYNC_LOG_LEVEL",
		"TICKETSYNC_CACHE_TTL",
		"TICKETSYNC_MAX_SESSIONS",
		"TICKETSYNC_SEED_DEMO",
		"TICKETSYNC_BACKEND",
		"TICKETSYNC_SQLITE__PATH",
		"TICKETSYNC_STATUSES__UNREAD",
		"TICKETSYNC_STATUSES__IN_PROGRESS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "ticketsync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
