package migrate_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T) (*migrate.Runner, *logger.TestLogBuffer) {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, buf := logger.GetTestLogger(t)
	runner, err := sqlite.NewMigrationRunner(db, log)
	require.NoError(t, err)
	return runner, buf
}

func TestRunnerUpDown(t *testing.T) {
	runner, logs := newRunner(t)
	ctx := context.Background()

	require.NoError(t, runner.Up(ctx))
	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
	logger.AssertLogContains(t, logs, "database schema is up to date")

	// A second Up is a no-op.
	require.NoError(t, runner.Up(ctx))

	require.NoError(t, runner.Down(ctx))
	version, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestRunnerRun(t *testing.T) {
	runner, logs := newRunner(t)
	ctx := context.Background()

	tests := []struct {
		command string
		wantErr bool
		wantLog string
	}{
		{migrate.CommandUp, false, "migration applied"},
		{migrate.CommandStatus, false, "migration status"},
		{migrate.CommandVersion, false, "current schema version"},
		{migrate.CommandDown, false, `"direction":"down"`},
		{"sideways", true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			err := runner.Run(ctx, tc.command)
			if tc.wantErr {
				assert.ErrorContains(t, err, "unknown migration command")
				return
			}
			require.NoError(t, err)
			logger.AssertLogContains(t, logs, tc.wantLog)
		})
	}
}

func TestNewRunnerPanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = sqlite.NewMigrationRunner(nil, nil)
	})
}
