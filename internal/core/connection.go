// File: internal/core/connection.go
package core

import (
	"database/sql"
	"fmt"
	"strings"
)

// Connect opens a pool for the given driver. Postgres URLs without an
// explicit sslmode get sslmode=disable.
func Connect(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN is empty")
	}
	return sql.Open(driver, NormalizeDSN(driver, dsn))
}

// NormalizeDSN applies driver specific defaults to dsn.
func NormalizeDSN(driver, dsn string) string {
	if driver != "postgres" && driver != "pgx" {
		return dsn
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn
	}
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "sslmode=disable"
}

func Close(db *sql.DB) error {
	return db.Close()
}
