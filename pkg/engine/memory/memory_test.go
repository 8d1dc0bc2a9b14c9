package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/quotegate/pkg/engine"
)

func outputsMap(t *testing.T, rows []engine.Row) map[string]any {
	t.Helper()
	m := make(map[string]any, len(rows))
	for _, r := range rows {
		require.GreaterOrEqual(t, len(r), 2)
		m[r[0].(string)] = r[1]
	}
	return m
}

func TestEngine_PublishesAfterLatency(t *testing.T) {
	e := New(nil, 20*time.Millisecond)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.WriteInputs(ctx, []engine.Field{
		{Key: engine.KeyPricingModel, Value: "LÖPANDE"},
		{Key: engine.KeyHours, Value: 160.0},
		{Key: engine.KeyHourlyRate, Value: 450.0},
		{Key: engine.KeyMaterialCost, Value: 20000.0},
		{Key: engine.KeyToken, Value: "tok-1"},
	}))

	rows, err := e.ReadOutputs(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "outputs are not visible before the recompute")

	require.Eventually(t, func() bool {
		rows, _ := e.ReadOutputs(ctx)
		return len(rows) > 0
	}, time.Second, 5*time.Millisecond)

	rows, _ = e.ReadOutputs(ctx)
	out := outputsMap(t, rows)
	assert.Equal(t, "tok-1", out["run_id"])
	assert.Equal(t, "approved", out["decision"])
}

// TestEngine_LatestGenerationWins tests that an overtaken recompute never
// publishes.
func TestEngine_LatestGenerationWins(t *testing.T) {
	compute := func(in map[string]any) []engine.Row {
		tok := in[engine.KeyToken].(string)
		return []engine.Row{{"run_id", tok}}
	}
	e := New(compute, 30*time.Millisecond)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.WriteInputs(ctx, []engine.Field{{Key: engine.KeyToken, Value: "a"}}))
	require.NoError(t, e.WriteInputs(ctx, []engine.Field{{Key: engine.KeyToken, Value: "b"}}))

	time.Sleep(100 * time.Millisecond)

	rows, err := e.ReadOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0][1])
	assert.Equal(t, 2, e.Writes())
}

func TestEngine_PartialWriteKeepsOtherCells(t *testing.T) {
	e := New(func(map[string]any) []engine.Row { return nil }, time.Millisecond)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.WriteInputs(ctx, []engine.Field{{Key: engine.KeyRegion, Value: "Storstad"}}))
	require.NoError(t, e.WriteInputs(ctx, []engine.Field{{Key: engine.KeyToken, Value: "t"}}))

	in := e.Inputs()
	assert.Equal(t, "Storstad", in[engine.KeyRegion])
	assert.Equal(t, "t", in[engine.KeyToken])
}

func TestEngine_Closed(t *testing.T) {
	e := New(nil, time.Millisecond)
	require.NoError(t, e.Close())

	_, err := e.ReadOutputs(context.Background())
	assert.Error(t, err)
	assert.Error(t, e.WriteInputs(context.Background(), nil))
}

func TestEngine_CanceledContext(t *testing.T) {
	e := New(nil, time.Millisecond)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ReadOutputs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDemoCompute(t *testing.T) {
	tests := []struct {
		name     string
		inputs   map[string]any
		decision string
	}{
		{
			name: "healthy hourly job",
			inputs: map[string]any{
				engine.KeyPricingModel: "LÖPANDE", engine.KeyHours: 160.0,
				engine.KeyHourlyRate: 450.0, engine.KeyMaterialCost: 20000.0,
			},
			decision: "approved",
		},
		{
			name: "thin margin needs review",
			inputs: map[string]any{
				engine.KeyPricingModel: "LÖPANDE", engine.KeyHours: 100.0,
				engine.KeyHourlyRate: 420.0, engine.KeyMaterialCost: 0.0,
			},
			decision: "review",
		},
		{
			name: "fixed price below cost",
			inputs: map[string]any{
				engine.KeyPricingModel: "FAST", engine.KeyHours: 600.0,
				engine.KeyFixedPrice: 100000.0, engine.KeyMaterialCost: 50000.0,
			},
			decision: "rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := outputsMap(t, DemoCompute(tt.inputs))
			assert.Equal(t, tt.decision, out["decision"])
			assert.Equal(t, "", out["run_id"])
		})
	}
}
