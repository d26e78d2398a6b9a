//go:build integration

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce    sync.Once
	sharedDSN string
	pgInitErr error
)

// PostgresDSN starts one PostgreSQL container per test binary, applies the
// repository migrations and returns its DSN.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	pgOnce.Do(func() {
		sharedDSN, pgInitErr = startPostgres()
	})
	if pgInitErr != nil {
		t.Fatalf("testutil: postgres container: %v", pgInitErr)
	}
	return sharedDSN
}

// OpenSQL returns a database/sql handle on the shared container.
func OpenSQL(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", PostgresDSN(t))
	if err != nil {
		t.Fatalf("testutil: sql.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// OpenPool returns a pgx pool on the shared container.
func OpenPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, PostgresDSN(t))
	if err != nil {
		t.Fatalf("testutil: pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// MigrationsDir resolves the repository migrations directory.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "sentinel",
				"POSTGRES_PASSWORD": "sentinel",
				"POSTGRES_DB":       "sentinel_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}
	dsn := fmt.Sprintf("postgres://sentinel:sentinel@%s:%s/sentinel_test?sslmode=disable", host, port.Port())

	m, err := migrate.New("file://"+MigrationsDir(), dsn)
	if err != nil {
		return "", fmt.Errorf("migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return "", fmt.Errorf("migrate up: %w", err)
	}
	return dsn, nil
}

// Exec runs setup statements against the shared database.
func Exec(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("testutil: exec %q: %v", s, err)
		}
	}
}

//Personal.AI order the ending
