package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migration files are written and validated on disk. The
// binaries run the copies embedded at build time.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Command is a goose verb exposed by cmd/migrate.
type Command string

const (
	CommandUp      Command = "up"
	CommandDown    Command = "down"
	CommandStatus  Command = "status"
	CommandVersion Command = "version"
)

// goose keeps its dialect and base filesystem in package globals.
var gooseMu sync.Mutex

// Migrator runs the embedded postgres migrations against one database.
type Migrator struct {
	db *sql.DB
}

func NewMigrator(db *sql.DB) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Migrator{db: db}, nil
}

// Apply runs cmd. CommandVersion migrates up or down to target (YYYYMMDDHHMMSS).
func (m *Migrator) Apply(ctx context.Context, cmd Command, target string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	switch cmd {
	case CommandUp, CommandDown, CommandStatus:
		if err := goose.RunContext(ctx, string(cmd), m.db, embeddedDir); err != nil {
			return fmt.Errorf("goose %s: %w", cmd, err)
		}
		return nil
	case CommandVersion:
		return m.toVersion(ctx, target)
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
}

func (m *Migrator) toVersion(ctx context.Context, target string) error {
	version, err := ParseVersion(target)
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersion(m.db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == version:
		return nil
	case current < version:
		if err := goose.UpToContext(ctx, m.db, embeddedDir, version); err != nil {
			return fmt.Errorf("goose up-to %d: %w", version, err)
		}
	default:
		if err := goose.DownToContext(ctx, m.db, embeddedDir, version); err != nil {
			return fmt.Errorf("goose down-to %d: %w", version, err)
		}
	}
	return nil
}

// ParseVersion reads a 14-digit migration version.
func ParseVersion(raw string) (int64, error) {
	if len(raw) != versionLen {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", raw, err)
	}
	return v, nil
}
