package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_Decode(t *testing.T) {
	d := NewDecoder(testKeys())

	res := d.Decode(Snapshot{
		"run_id":               "tok",
		"decision":             " approved ",
		"risk_class":           "yellow",
		"actual_margin":        "12,5 %",
		"target_margin":        "10",
		"required_hourly_rate": "1 234,50",
		"diff_hourly_rate":     "-15.25",
		"action_for_green":     "raise hourly rate by 40",
		"engine_version":       "v3",
	})

	assert.Equal(t, "tok", string(res.Token))
	assert.Equal(t, "approved", res.Decision)
	assert.Equal(t, "yellow", res.RiskClass)
	assert.Equal(t, 12.5, res.ActualMargin)
	assert.Equal(t, 10.0, res.TargetMargin)
	assert.Equal(t, 1234.5, res.RequiredHourlyRate)
	assert.Equal(t, -15.25, res.DiffHourlyRate)
	assert.Equal(t, "raise hourly rate by 40", res.ActionForGreen)
	assert.False(t, res.Locked)
	assert.Equal(t, map[string]string{"engine_version": "v3"}, res.Extra)
}

func TestDecoder_Locked(t *testing.T) {
	d := NewDecoder(testKeys())

	tests := []struct {
		decision string
		locked   bool
	}{
		{"approved", false},
		{"  approved\t", false},
		{"APPROVED", true},
		{"Approved", true},
		{"review", true},
		{"rejected", true},
		{"", true},
	}
	for _, tt := range tests {
		res := d.Decode(Snapshot{"run_id": "tok", "decision": tt.decision})
		assert.Equal(t, tt.locked, res.Locked, "decision %q", tt.decision)
	}
}

func TestDecoder_Fallbacks(t *testing.T) {
	keys := testKeys()
	keys.NumericFallbacks = map[string]float64{"target_margin": 10}
	d := NewDecoder(keys)

	res := d.Decode(Snapshot{
		"run_id":        "tok",
		"decision":      "review",
		"actual_margin": "#DIV/0!",
	})

	assert.Zero(t, res.ActualMargin)
	assert.Equal(t, 10.0, res.TargetMargin)
	assert.Zero(t, res.RequiredHourlyRate)
	assert.Empty(t, res.RiskClass)
	assert.Empty(t, res.ActionForGreen)
	assert.Nil(t, res.Extra)
}

func TestDecoder_Idempotent(t *testing.T) {
	d := NewDecoder(testKeys())
	snap := Snapshot{
		"run_id":        "tok",
		"decision":      "approved",
		"actual_margin": "14.04",
		"extra_a":       "1",
		"extra_b":       "2",
	}

	first := d.Decode(snap)
	second := d.Decode(snap)
	assert.Equal(t, first, second)
	assert.Equal(t, "14.04", snap["actual_margin"], "decode must not mutate the snapshot")
}

func TestDecoder_CustomKeys(t *testing.T) {
	keys := testKeys()
	keys.DecisionKey = "beslut"
	keys.ActualMarginKey = "faktisk_marginal"
	keys.UnlockDecision = "SKICKA"
	d := NewDecoder(keys)

	res := d.Decode(Snapshot{"run_id": "tok", "beslut": "SKICKA", "faktisk_marginal": "8", "decision": "ignored"})
	assert.Equal(t, "SKICKA", res.Decision)
	assert.False(t, res.Locked)
	assert.Equal(t, 8.0, res.ActualMargin)
	assert.Equal(t, "ignored", res.Extra["decision"])
}
