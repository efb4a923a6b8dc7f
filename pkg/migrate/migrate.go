package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slog"
)

// Migration holds one versioned migration
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Manager applies and rolls back migrations
type Manager struct {
	db            *sql.DB
	migrationsDir string
	migrations    []Migration
	log           *slog.Logger
}

var fileRe = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// NewManager loads migration files from the specified directory
func NewManager(db *sql.DB, migrationsDir string, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{db: db, migrationsDir: migrationsDir, log: log}
	if err := m.loadMigrations(); err != nil {
		return nil, err
	}
	return m, nil
}

// Migrations returns the loaded migrations sorted by version.
func (m *Manager) Migrations() []Migration {
	return m.migrations
}

// loadMigrations reads .up.sql/.down.sql files and organizes them by version
func (m *Manager) loadMigrations() error {
	entries, err := os.ReadDir(m.migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	tmp := map[int]*Migration{}
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		matches := fileRe.FindStringSubmatch(fi.Name())
		if len(matches) != 4 {
			continue
		}
		ver, _ := strconv.Atoi(matches[1])
		data, err := os.ReadFile(filepath.Join(m.migrationsDir, fi.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", fi.Name(), err)
		}
		mig, exists := tmp[ver]
		if !exists {
			mig = &Migration{Version: ver, Name: matches[2]}
			tmp[ver] = mig
		}
		if matches[3] == "up" {
			mig.UpSQL = string(data)
		} else {
			mig.DownSQL = string(data)
		}
	}
	versions := make([]int, 0, len(tmp))
	for v := range tmp {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		m.migrations = append(m.migrations, *tmp[v])
	}
	return nil
}

// EnsureVersionTable creates schema_migrations if missing
func (m *Manager) EnsureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INT PRIMARY KEY);`)
	return err
}

// currentVersion returns the highest applied migration version
func (m *Manager) currentVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	row := m.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations;`)
	if err := row.Scan(&v); err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

func (m *Manager) recordVersion(ctx context.Context, version int) error {
	_, err := m.db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1);`, version)
	return err
}

func (m *Manager) deleteVersion(ctx context.Context, version int) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1;`, version)
	return err
}

// Up applies all pending migrations
func (m *Manager) Up(ctx context.Context) error {
	if err := m.EnsureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}
	current, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("current version: %w", err)
	}

	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}
		m.log.Info("applying migration", "version", mig.Version, "name", mig.Name)
		if _, err := m.db.ExecContext(ctx, mig.UpSQL); err != nil {
			return fmt.Errorf("apply up %d: %w", mig.Version, err)
		}
		if err := m.recordVersion(ctx, mig.Version); err != nil {
			return fmt.Errorf("record version %d: %w", mig.Version, err)
		}
	}
	return nil
}

// Down rolls back the latest migration
func (m *Manager) Down(ctx context.Context) error {
	if err := m.EnsureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("current version: %w", err)
	}
	if current == 0 {
		m.log.Info("no migrations to roll back")
		return nil
	}
	var toRoll *Migration
	for i := len(m.migrations) - 1; i >= 0; i-- {
		if m.migrations[i].Version == current {
			toRoll = &m.migrations[i]
			break
		}
	}
	if toRoll == nil {
		return fmt.Errorf("migration not found for version %d", current)
	}
	m.log.Info("rolling back migration", "version", toRoll.Version, "name", toRoll.Name)
	if _, err := m.db.ExecContext(ctx, toRoll.DownSQL); err != nil {
		return fmt.Errorf("apply down %d: %w", toRoll.Version, err)
	}
	return m.deleteVersion(ctx, toRoll.Version)
}

// Status reports the current version and whether each migration is applied.
func (m *Manager) Status(ctx context.Context) (string, error) {
	if err := m.EnsureVersionTable(ctx); err != nil {
		return "", fmt.Errorf("ensure version table: %w", err)
	}
	current, err := m.currentVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("current version: %w", err)
	}
	lines := []string{fmt.Sprintf("Current version: %d", current)}
	for _, mig := range m.migrations {
		state := "pending"
		if mig.Version <= current {
			state = "applied"
		}
		lines = append(lines, fmt.Sprintf("%04d_%s: %s", mig.Version, mig.Name, state))
	}
	return strings.Join(lines, "\n"), nil
}
