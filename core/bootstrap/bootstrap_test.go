package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/lexibot/core/config"
	coredatabase "github.com/m3rciful/lexibot/core/database"
)

func mockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock
}

func TestRunPipelineOrder(t *testing.T) {
	db, _ := mockDB(t)
	var steps []string
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: "sqlite3", Path: "x.db"},
		LoggerInit: func(*coreconfig.Config) error { steps = append(steps, "logger"); return nil },
		Connect: func(_ context.Context, cfg coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect:"+cfg.Driver)
			return db, nil
		},
		Migrate: func(coredatabase.Config, fs.FS) error { steps = append(steps, "migrate"); return nil },
	})
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.Equal(t, []string{"logger", "connect:sqlite3", "migrate"}, steps)
}

func TestRunClosesDBWhenMigrationsFail(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectClose()
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect:    func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return db, nil },
		Migrate:    func(coredatabase.Config, fs.FS) error { return errors.New("dirty") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSkipMigrations(t *testing.T) {
	db, _ := mockDB(t)
	_, err := Run(context.Background(), Options{
		Config:         &coreconfig.Config{},
		SkipMigrations: true,
		LoggerInit:     func(*coreconfig.Config) error { return nil },
		Connect:        func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return db, nil },
		Migrate: func(coredatabase.Config, fs.FS) error {
			t.Fatal("migrate must not run")
			return nil
		},
	})
	require.NoError(t, err)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	require.Error(t, err)
}
