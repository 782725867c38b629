//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/testhelpers"
)

const testPassword = "test_password"

// createIsolatedDatabase creates a database and a login role on the shared
// container and drops both when the test ends. With grantSchema the role may
// create objects in the public schema.
func createIsolatedDatabase(t *testing.T, testDB *testhelpers.TestDB, dbName, user string, grantSchema bool) string {
	t.Helper()
	ctx := context.Background()

	_, _ = testDB.Pool.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName)
	_, _ = testDB.Pool.Exec(ctx, "DROP USER IF EXISTS "+user)

	_, err := testDB.Pool.Exec(ctx, "CREATE DATABASE "+dbName)
	require.NoError(t, err, "create database")
	_, err = testDB.Pool.Exec(ctx, "CREATE USER "+user+" WITH PASSWORD '"+testPassword+"'")
	require.NoError(t, err, "create user")
	_, err = testDB.Pool.Exec(ctx, "GRANT CONNECT ON DATABASE "+dbName+" TO "+user)
	require.NoError(t, err, "grant connect")

	if grantSchema {
		// Schema grants must be issued from inside the new database.
		adminPool, err := pgxpool.New(ctx, testDB.ConnStrFor("zi", testPassword, dbName))
		require.NoError(t, err)
		_, err = adminPool.Exec(ctx, "GRANT ALL ON SCHEMA public TO "+user)
		adminPool.Close()
		require.NoError(t, err, "grant schema")
	}

	t.Cleanup(func() {
		_, _ = testDB.Pool.Exec(ctx, `
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName)
		time.Sleep(100 * time.Millisecond)
		_, _ = testDB.Pool.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName)
		_, _ = testDB.Pool.Exec(ctx, "DROP USER IF EXISTS "+user)
	})

	return testDB.ConnStrFor(user, testPassword, dbName)
}

// runMigrationsWithTimeout fails the test if RunMigrations does not return in time.
func runMigrationsWithTimeout(t *testing.T, db *sql.DB) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- database.RunMigrations(db, testhelpers.MigrationsPath(), zap.NewNop())
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(30 * time.Second):
		t.Fatal("migrations did not return within 30s")
		return nil
	}
}

func Test_Migrations_InsufficientPermissions(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	connStr := createIsolatedDatabase(t, testDB, "zi_migration_perms", "zi_restricted", false)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping(), "restricted user should be able to connect")

	_, err = db.Exec("CREATE TABLE scratch_check (id int)")
	require.Error(t, err, "restricted user should not be able to create tables")

	err = runMigrationsWithTimeout(t, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func Test_Migrations_SuccessWithProperPermissions(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	connStr := createIsolatedDatabase(t, testDB, "zi_migration_ok", "zi_owner", true)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, runMigrationsWithTimeout(t, db))

	var count int
	err = db.QueryRow(`
		SELECT count(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name LIKE 'zi\_%'`).Scan(&count)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 10)

	// A second run finds nothing to apply.
	require.NoError(t, runMigrationsWithTimeout(t, db))

	state, err := database.GetMigrationState(db, testhelpers.MigrationsPath(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, database.MigrationState{Version: 1}, state)
}

func Test_Migrations_RollbackAndReapply(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	connStr := createIsolatedDatabase(t, testDB, "zi_migration_rollback", "zi_rollback", true)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, runMigrationsWithTimeout(t, db))

	err = database.RollbackMigrations(db, testhelpers.MigrationsPath(), 0, zap.NewNop())
	require.Error(t, err)

	require.NoError(t, database.RollbackMigrations(db, testhelpers.MigrationsPath(), 1, zap.NewNop()))

	state, err := database.GetMigrationState(db, testhelpers.MigrationsPath(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, database.MigrationState{}, state)

	var usersTable *string
	require.NoError(t, db.QueryRow(`SELECT to_regclass('public.zi_users')::text`).Scan(&usersTable))
	assert.Nil(t, usersTable)

	require.NoError(t, runMigrationsWithTimeout(t, db))
	require.NoError(t, db.QueryRow(`SELECT to_regclass('public.zi_users')::text`).Scan(&usersTable))
	require.NotNil(t, usersTable)
}
