package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// violation classifies a failed insert.
type violation int

const (
	violationNone violation = iota
	violationID
	violationName
)

const nameIndex = "idx_quotes_tenant_name"

type dialect struct {
	driver          string
	migrationRoot   string
	migrationTarget func(ctx context.Context, db *sql.DB) (database.Driver, func(), error)
	dsn             func(raw string) (string, error)
	rebind          func(query string) string
	classify        func(err error) violation
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{
			driver:          DriverSQLite,
			migrationRoot:   "sqlite",
			migrationTarget: sqliteMigrationTarget,
			dsn:             sqliteDSN,
			rebind:          func(q string) string { return q },
			classify:        classifySQLite,
		}, nil
	case DriverPostgres:
		return dialect{
			driver:          DriverPostgres,
			migrationRoot:   "postgres",
			migrationTarget: postgresMigrationTarget,
			dsn:             postgresDSN,
			rebind:          rebindDollar,
			classify:        classifyPostgres,
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func sqliteDSN(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("sqlite path is required")
	}

	if path != ":memory:" {
		path = filepath.Clean(path)
	}

	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", nil
}

func postgresDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", errors.New("postgres dsn is required")
	}

	return dsn, nil
}

// rebindDollar rewrites ? placeholders to $1, $2, ...
// Queries in this package never contain a literal question mark.
func rebindDollar(query string) string {
	var (
		b strings.Builder
		n int
	)

	b.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}

		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}

func classifySQLite(err error) violation {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return violationNone
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return violationID
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		if strings.Contains(err.Error(), "quotes.name") {
			return violationName
		}

		return violationID
	default:
		return violationNone
	}
}

func classifyPostgres(err error) violation {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return violationNone
	}

	if pqErr.Constraint == nameIndex {
		return violationName
	}

	return violationID
}
