package bridge

import (
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/token"
)

// Values of Result.HoursSource.
const (
	HoursSourceStandard = "standard"
	HoursSourceProvided = "provided"
)

// Result is the engine's answer to one submission.
type Result struct {
	Token              token.Token `json:"token"`
	Decision           string      `json:"decision"`
	RiskClass          string      `json:"risk_class"`
	ActualMargin       float64     `json:"actual_margin"`
	TargetMargin       float64     `json:"target_margin"`
	RequiredHourlyRate float64     `json:"required_hourly_rate"`
	DiffHourlyRate     float64     `json:"diff_hourly_rate"`
	ActionForGreen     string      `json:"action_for_green"`

	// Locked is true unless the decision is the configured unlock value.
	Locked bool `json:"locked"`

	// HoursDefaulted is true when hours were replaced by the standard
	// duration; StandardHours then holds the substituted value.
	HoursDefaulted bool    `json:"hours_defaulted"`
	StandardHours  float64 `json:"standard_hours,omitempty"`
	HoursSource    string  `json:"hours_source"`

	// Extra holds output keys the decoder does not know.
	Extra map[string]string `json:"extra,omitempty"`
}

// annotate copies the substitution facts of in onto r.
func (r *Result) annotate(in *normalize.CanonicalInput) {
	if in.WasDefaulted(normalize.FieldHours) {
		r.HoursDefaulted = true
		r.StandardHours = in.Hours.Value
		r.HoursSource = HoursSourceStandard
		return
	}
	r.HoursSource = HoursSourceProvided
}
