package bridge

import (
	"strings"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/token"
)

// Decoder turns a ready snapshot into a Result using configured key names.
type Decoder struct {
	keys  config.OutputKeysConfig
	known map[string]struct{}
}

// NewDecoder creates a decoder for keys.
func NewDecoder(keys config.OutputKeysConfig) *Decoder {
	known := make(map[string]struct{})
	for _, k := range []string{
		keys.TokenKey, keys.DecisionKey, keys.FinalKey, keys.RiskClassKey,
		keys.ActualMarginKey, keys.TargetMarginKey, keys.RequiredRateKey,
		keys.DiffRateKey, keys.ActionKey,
	} {
		if k != "" {
			known[k] = struct{}{}
		}
	}
	return &Decoder{keys: keys, known: known}
}

// Decode builds a Result from snap. It does not fail: missing text reads as
// "", and missing or unparseable numbers take the configured fallback or 0.
// Keys the decoder does not know are kept in Extra. The same snapshot always
// decodes to the same Result.
func (d *Decoder) Decode(snap Snapshot) *Result {
	decision := strings.TrimSpace(snap[d.keys.DecisionKey])

	res := &Result{
		Token:              token.Token(strings.TrimSpace(snap[d.keys.TokenKey])),
		Decision:           decision,
		RiskClass:          strings.TrimSpace(snap[d.keys.RiskClassKey]),
		ActualMargin:       d.number(snap, d.keys.ActualMarginKey),
		TargetMargin:       d.number(snap, d.keys.TargetMarginKey),
		RequiredHourlyRate: d.number(snap, d.keys.RequiredRateKey),
		DiffHourlyRate:     d.number(snap, d.keys.DiffRateKey),
		ActionForGreen:     strings.TrimSpace(snap[d.keys.ActionKey]),
		Locked:             decision != strings.TrimSpace(d.keys.UnlockDecision),
		HoursSource:        HoursSourceProvided,
	}

	for k, v := range snap {
		if _, ok := d.known[k]; ok {
			continue
		}
		if res.Extra == nil {
			res.Extra = make(map[string]string)
		}
		res.Extra[k] = v
	}
	return res
}

func (d *Decoder) number(snap Snapshot, key string) float64 {
	if v, ok := normalize.ParseLenient(snap[key]); ok {
		return v
	}
	return d.keys.NumericFallbacks[key]
}
