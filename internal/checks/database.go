package checks

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// RequiredDrivers are the database/sql driver names the binary must register.
var RequiredDrivers = []string{"sqlite3", "postgres", "sqlserver"}

// DatabaseLibraries verifies driver registration and runs a round trip against
// an in-memory SQLite database.
func DatabaseLibraries(ctx context.Context) error {
	registered := sql.Drivers()
	var missing []string
	for _, name := range RequiredDrivers {
		if !slices.Contains(registered, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("drivers not registered: %s", strings.Join(missing, ", "))
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	res, err := db.ExecContext(ctx, `INSERT INTO test (name) VALUES (?)`, "migsmoke")
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	var name string
	if err := db.QueryRowContext(ctx, `SELECT name FROM test WHERE id = ?`, id).Scan(&name); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if name != "migsmoke" {
		return fmt.Errorf("read back %q, want %q", name, "migsmoke")
	}
	return nil
}
