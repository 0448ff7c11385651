package database

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresImage = "postgres:16-alpine"

// testServer is one Postgres container per test binary; every test gets its
// own database on it. Ryuk removes the container when the binary exits.
var testServer struct {
	once    sync.Once
	adminDB string
	err     error
	seq     atomic.Int64
}

type quietLogger struct{}

func (quietLogger) Printf(string, ...any) {}

var _ tclog.Logger = quietLogger{}

// SetupTestDB creates an empty, fully migrated database and returns its
// connection string. The test is skipped when no container provider is
// available. The database is dropped when the test ends.
func SetupTestDB(t *testing.T) string {
	t.Helper()
	connStr := emptyTestDB(t)
	_, err := MigrateUp(connStr)
	require.NoError(t, err)
	return connStr
}

// emptyTestDB creates a database without running any migration
func emptyTestDB(t *testing.T) string {
	t.Helper()
	tc.SkipIfProviderIsNotHealthy(t)

	testServer.once.Do(func() {
		testServer.adminDB, testServer.err = startPostgres(context.Background())
	})
	require.NoError(t, testServer.err)

	name := fmt.Sprintf("content_sync_%d", testServer.seq.Add(1))
	require.NoError(t, adminExec(context.Background(), "CREATE DATABASE "+name))
	t.Cleanup(func() {
		_ = adminExec(context.Background(), "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)")
	})

	connStr, err := withDatabaseName(testServer.adminDB, name)
	require.NoError(t, err)
	return connStr
}

func startPostgres(ctx context.Context) (string, error) {
	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("postgres"),
		postgres.WithUsername("sync"),
		postgres.WithPassword("sync"),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(quietLogger{}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start postgres: %w", err)
	}
	return container.ConnectionString(ctx, "sslmode=disable")
}

func adminExec(ctx context.Context, sql string) error {
	conn, err := pgx.Connect(ctx, testServer.adminDB)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close(ctx)
	}()
	_, err = conn.Exec(ctx, sql)
	return err
}

func withDatabaseName(connStr, name string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", err
	}
	u.Path = "/" + name
	return u.String(), nil
}
