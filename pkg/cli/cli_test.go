package cli

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type fixture struct {
	schema     string
	migrations string
	dbPath     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		schema:     filepath.Join(dir, "schema.prisma"),
		migrations: filepath.Join(dir, "migrations"),
		dbPath:     filepath.Join(dir, "probe.db"),
	}
	body := fmt.Sprintf(`
datasource db {
  provider = "sqlite"
  url      = "file:%s"
}

model Test {
  id String @id @default(uuid()) @db.Uuid
}
`, f.dbPath)
	require.NoError(t, os.WriteFile(f.schema, []byte(body), 0o644))
	return f
}

func execute(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProbe_EndToEndSqlite(t *testing.T) {
	f := newFixture(t)

	_, err := execute("migrate", "dev", "--schema", f.schema, "--dir", f.migrations)
	require.NoError(t, err)

	seed, err := sql.Open("sqlite", "file:"+f.dbPath)
	require.NoError(t, err)
	_, err = seed.Exec(`INSERT INTO test (id) VALUES ($1)`, uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	out, err := execute("--schema", f.schema, "--iterations", "20", "--window", "5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, out)
	assert.Regexp(t, regexp.MustCompile(`^Memory usage before: [0-9.]+ MB$`), lines[0])
	assert.Regexp(t, regexp.MustCompile(`^Average memory usage after 10: [0-9.]+ MB \(\+?-?[0-9.]+ MB\)$`), lines[1])
	assert.Regexp(t, regexp.MustCompile(`^Average memory usage after 15: [0-9.]+ MB \(\+?-?[0-9.]+ MB\)$`), lines[2])
	assert.Regexp(t, regexp.MustCompile(`^Memory usage after: [0-9.]+ MB$`), lines[3])
}

func TestProbe_MissingTableFails(t *testing.T) {
	f := newFixture(t)

	out, err := execute("--schema", f.schema, "--iterations", "5", "--window", "1")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestProbe_InvalidWindow(t *testing.T) {
	f := newFixture(t)

	_, err := execute("--schema", f.schema, "--window", "0")
	require.Error(t, err)
}

func TestMigrate_Status(t *testing.T) {
	f := newFixture(t)

	_, err := execute("migrate", "dev", "--schema", f.schema, "--dir", f.migrations)
	require.NoError(t, err)

	out, err := execute("migrate", "status", "--schema", f.schema, "--dir", f.migrations)
	require.NoError(t, err)
	assert.Equal(t, "Current version: 1\n0001_test: applied\n", out)

	_, err = execute("migrate", "down", "--schema", f.schema, "--dir", f.migrations)
	require.NoError(t, err)

	out, err = execute("migrate", "status", "--schema", f.schema, "--dir", f.migrations)
	require.NoError(t, err)
	assert.Equal(t, "Current version: 0\n0001_test: pending\n", out)
}

func TestMigrate_RejectsUnknownAction(t *testing.T) {
	_, err := execute("migrate", "sideways")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Equal(t, version()+"\n", out)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(io.Discard, "debug")
	require.NoError(t, err)
	_, err = newLogger(io.Discard, "loud")
	require.Error(t, err)
}
