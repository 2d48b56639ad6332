package pgstore

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	info, errs []string
}

func (l *recordingLogger) InfoContext(_ context.Context, msg string, _ ...any) {
	l.info = append(l.info, msg)
}

func (l *recordingLogger) ErrorContext(_ context.Context, msg string, _ ...any) {
	l.errs = append(l.errs, msg)
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "statemachine_states")
	assert.Contains(t, string(body), "PRIMARY KEY (machine, instance_id)")
}

func TestMigrateSlogAdapter(t *testing.T) {
	t.Parallel()

	log := &recordingLogger{}
	adapter := newSlogAdapter(log)

	adapter.Printf("OK   %s", "00001_create_statemachine_states.sql")
	adapter.Fatalf("failed: %v", "boom")

	assert.Equal(t, []string{"OK   00001_create_statemachine_states.sql"}, log.info)
	assert.Equal(t, []string{"failed: boom"}, log.errs)
}
