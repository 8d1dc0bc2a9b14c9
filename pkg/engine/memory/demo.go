package memory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mercator-hq/quotegate/pkg/engine"
)

// Demo rule constants. They stand in for the real engine's rules and are not
// meant to price actual work.
const (
	demoLabourCostPerHour = 380.0
	demoPassThroughMarkup = 1.10
	demoBaseTargetMargin  = 10.0
	demoTargetPerStep     = 2.5
	demoGreenHeadroom     = 5.0
)

// DemoCompute is a small rule set for local runs. It derives a margin from
// the input slot, compares it with a target that rises with the adjustment
// step, and echoes the token into run_id.
func DemoCompute(in map[string]any) []engine.Row {
	hours := inputNumber(in, engine.KeyHours)
	material := inputNumber(in, engine.KeyMaterialCost)
	sub := inputNumber(in, engine.KeySubcontractorCost)
	passThrough := (material + sub) * demoPassThroughMarkup
	cost := hours*demoLabourCostPerHour + material + sub

	var revenue, offeredRate float64
	if strings.EqualFold(fmt.Sprint(in[engine.KeyPricingModel]), "FAST") {
		revenue = inputNumber(in, engine.KeyFixedPrice)
		if hours > 0 {
			offeredRate = (revenue - passThrough) / hours
		}
	} else {
		offeredRate = inputNumber(in, engine.KeyHourlyRate)
		revenue = hours*offeredRate + passThrough
	}

	target := demoBaseTargetMargin + demoTargetPerStep*inputNumber(in, engine.KeyAdjustment)
	margin := 0.0
	if revenue > 0 {
		margin = (revenue - cost) / revenue * 100
	}

	required := 0.0
	if hours > 0 {
		required = (cost/(1-target/100) - passThrough) / hours
	}
	diff := required - offeredRate

	decision, risk, action := "approved", "green", "none"
	switch {
	case margin < 0:
		decision, risk = "rejected", "red"
		action = fmt.Sprintf("raise hourly rate by %.0f", math.Ceil(diff))
	case margin < target:
		decision, risk = "review", "yellow"
		action = fmt.Sprintf("raise hourly rate by %.0f", math.Ceil(diff))
	case margin < target+demoGreenHeadroom:
		risk = "yellow"
	}

	return []engine.Row{
		{"run_id", fmt.Sprint(valueOrEmpty(in[engine.KeyToken]))},
		{"decision", decision},
		{"risk_class", risk},
		{"actual_margin", round2(margin)},
		{"target_margin", round2(target)},
		{"required_hourly_rate", round2(required)},
		{"diff_hourly_rate", round2(diff)},
		{"action_for_green", action},
	}
}

func inputNumber(in map[string]any, key string) float64 {
	switch v := in[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
