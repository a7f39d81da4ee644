//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/effectstore"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func storeRunOutput(runID string) *schema.RunOutput {
	return &schema.RunOutput{
		RunID: runID,
		Effects: []schema.CausalEffect{
			{
				ItemID:            "itm-graphs-bfs",
				ATTScore:          72.5,
				PValue:            0.0004,
				EffectSize:        1.21,
				ProbabilityUplift: 0.35,
				NTreated:          40,
				NControl:          120,
				OutcomeWindow:     5,
			},
			{
				ItemID:            "itm-dp-knapsack",
				ATTScore:          31.25,
				PValue:            0.0121,
				EffectSize:        0.58,
				ProbabilityUplift: 0.18,
				NTreated:          25,
				NControl:          74,
				OutcomeWindow:     5,
			},
		},
		ItemsTested:  2,
		ItemsSkipped: 10,
	}
}

// exerciseStore saves a run through the store API and reads it back.
func exerciseStore(t *testing.T, backend schema.DatabaseBackend, connStr, runID string) {
	t.Helper()

	store, err := effectstore.NewEffectStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveRun(storeRunOutput(runID)))

	effects, err := store.TopEffects(runID, 10)
	require.NoError(t, err)
	require.Len(t, effects, 2)
	assert.Equal(t, "itm-graphs-bfs", effects[0].ItemID)
	assert.Equal(t, "itm-dp-knapsack", effects[1].ItemID)

	runs, err := store.ListRuns()
	require.NoError(t, err)
	assert.Contains(t, runs, runID)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, backend, status.Backend)
	assert.GreaterOrEqual(t, status.RunCount, 1)
	assert.GreaterOrEqual(t, status.EffectCount, 2)
}

// TestUpliftStoreWithMySQL tests the effect store with a MySQL backend.
func TestUpliftStoreWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "uplift",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/uplift?parseTime=true", host, port.Port())

	require.NoError(t, effectstore.MigrateStore(schema.MySQLBackend, connStr, -1))
	exerciseStore(t, schema.MySQLBackend, connStr, "run-mysql")

	// Same store through the CLI
	_ = os.Setenv("UPLIFT_STORE_BACKEND", "mysql")
	_ = os.Setenv("UPLIFT_STORE_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("UPLIFT_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("UPLIFT_STORE_DB_CONNECT") }()

	require.NoError(t, runUpliftCommand(t, "store", "status"))
	require.NoError(t, runUpliftCommand(t, "store", "runs"))
	require.NoError(t, runUpliftCommand(t, "store", "top", "--run", "run-mysql"))
}

// TestUpliftStoreWithPostgres tests the effect store with a PostgreSQL backend.
func TestUpliftStoreWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())

	require.NoError(t, effectstore.MigrateStore(schema.PostgreSQLBackend, connStr, -1))
	exerciseStore(t, schema.PostgreSQLBackend, connStr, "run-pg")

	// Same store through the CLI
	_ = os.Setenv("UPLIFT_STORE_BACKEND", "postgresql")
	_ = os.Setenv("UPLIFT_STORE_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("UPLIFT_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("UPLIFT_STORE_DB_CONNECT") }()

	require.NoError(t, runUpliftCommand(t, "store", "status"))
	require.NoError(t, runUpliftCommand(t, "store", "runs"))
	require.NoError(t, runUpliftCommand(t, "store", "top", "--run", "run-pg"))
	require.NoError(t, runUpliftCommand(t, "store", "migrate", "--target-version", "-1"))
}
