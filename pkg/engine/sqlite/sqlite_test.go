package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/quotegate/pkg/engine"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{Path: filepath.Join(t.TempDir(), "engine.db")})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngine_WriteAndReadInputs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.WriteInputs(ctx, []engine.Field{
		{Key: engine.KeyRegion, Value: "Storstad"},
		{Key: engine.KeyHours, Value: 160.0},
		{Key: engine.KeyEmployees, Value: nil},
	}))
	require.NoError(t, e.WriteInputs(ctx, []engine.Field{
		{Key: engine.KeyToken, Value: "tok-1"},
	}))
	require.NoError(t, e.WriteInputs(ctx, []engine.Field{
		{Key: engine.KeyHours, Value: 12.5},
	}))

	in, err := e.ReadInputs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Storstad", in[engine.KeyRegion])
	assert.Equal(t, "12.5", in[engine.KeyHours])
	assert.Equal(t, "tok-1", in[engine.KeyToken])
	assert.Equal(t, "", in[engine.KeyEmployees])
}

func TestEngine_PublishAndReadOutputs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rows, err := e.ReadOutputs(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, e.PublishOutputs(ctx, []engine.Row{
		{"run_id", "tok-1"},
		{"decision", "approved"},
		{"actual_margin", 14.25},
		{"note"},
	}))

	rows, err = e.ReadOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, engine.Row{"run_id", "tok-1"}, rows[0])
	assert.Equal(t, engine.Row{"actual_margin", "14.25"}, rows[2])
	assert.Equal(t, engine.Row{"note", nil}, rows[3])

	// A second publish replaces the table entirely
	require.NoError(t, e.PublishOutputs(ctx, []engine.Row{{"run_id", "tok-2"}}))
	rows, err = e.ReadOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tok-2", rows[0][1])
}

func TestEngine_SharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	bridgeSide, err := New(Config{Path: path})
	require.NoError(t, err)
	defer bridgeSide.Close()

	recomputeSide, err := New(Config{Path: path})
	require.NoError(t, err)
	defer recomputeSide.Close()

	require.NoError(t, bridgeSide.WriteInputs(ctx, []engine.Field{{Key: engine.KeyToken, Value: "tok-9"}}))

	in, err := recomputeSide.ReadInputs(ctx)
	require.NoError(t, err)
	require.NoError(t, recomputeSide.PublishOutputs(ctx, []engine.Row{{"run_id", in[engine.KeyToken]}}))

	rows, err := bridgeSide.ReadOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tok-9", rows[0][1])
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
