package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/TechXTT/tormprobe/internal/core"
	"github.com/TechXTT/tormprobe/pkg/internal/schema"
	"github.com/TechXTT/tormprobe/pkg/internal/typeconv"
)

// EnsureStubs writes CREATE TABLE migrations for every model that has no
// migration named after its table yet. It returns the files it wrote.
func EnsureStubs(ast schema.AST, migrationsDir string, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations dir: %w", err)
	}
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	seen := map[string]bool{}
	maxVer := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileRe.FindStringSubmatch(e.Name())
		if m == nil || m[3] != "up" {
			continue
		}
		seen[m[2]] = true
		if v, err := strconv.Atoi(m[1]); err == nil && v > maxVer {
			maxVer = v
		}
	}

	var written []string
	for _, ent := range ast.Entities {
		table := core.SnakeCase(ent.Name)
		if seen[table] {
			continue
		}
		maxVer++
		upFile := fmt.Sprintf("%04d_%s.up.sql", maxVer, table)
		downFile := fmt.Sprintf("%04d_%s.down.sql", maxVer, table)
		upSQL, downSQL := CreateTableSQL(ent, ast.Datasource.Provider)
		if err := os.WriteFile(filepath.Join(migrationsDir, upFile), []byte(upSQL), 0o644); err != nil {
			return written, fmt.Errorf("write up stub: %w", err)
		}
		if err := os.WriteFile(filepath.Join(migrationsDir, downFile), []byte(downSQL), 0o644); err != nil {
			return written, fmt.Errorf("write down stub: %w", err)
		}
		log.Info("generated migration stubs", "up", upFile, "down", downFile)
		written = append(written, upFile, downFile)
	}
	return written, nil
}

// CreateTableSQL renders the up and down statements for one model.
func CreateTableSQL(ent schema.Entity, provider string) (string, string) {
	table := core.SnakeCase(ent.Name)
	sqlite := provider == "sqlite"

	var lines []string
	for _, f := range ent.Fields {
		if !f.PrimaryKey {
			continue
		}
		col := core.SnakeCase(f.Name)
		switch {
		case f.AutoIncrement && sqlite:
			lines = append(lines, fmt.Sprintf("    %s INTEGER PRIMARY KEY AUTOINCREMENT", col))
		case f.AutoIncrement:
			lines = append(lines, fmt.Sprintf("    %s SERIAL PRIMARY KEY", col))
		default:
			lines = append(lines, fmt.Sprintf("    %s %s PRIMARY KEY%s", col,
				typeconv.MapGoTypeToSQL(f.Type, provider), defaultClause(f, sqlite)))
		}
		break
	}

	for _, f := range ent.Fields {
		if f.PrimaryKey {
			continue
		}
		null := ""
		if f.NotNull {
			null = " NOT NULL"
		}
		lines = append(lines, fmt.Sprintf("    %s %s%s%s",
			core.SnakeCase(f.Name), typeconv.MapGoTypeToSQL(f.Type, provider), null, defaultClause(f, sqlite)))
	}

	up := fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(lines, ",\n"))
	down := fmt.Sprintf("DROP TABLE %s;", table)
	return up, down
}

func defaultClause(f schema.Field, sqlite bool) string {
	if f.Default == nil {
		return ""
	}
	switch *f.Default {
	case "uuid()", "cuid()":
		// generated client side on sqlite
		if sqlite || *f.Default == "cuid()" {
			return ""
		}
		return " DEFAULT gen_random_uuid()"
	case "now()":
		return " DEFAULT CURRENT_TIMESTAMP"
	default:
		return " DEFAULT " + *f.Default
	}
}
