package normalize

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
)

// aliases lists the accepted request keys for each canonical field, in
// lookup order. The first present key wins.
var aliases = map[string][]string{
	FieldJobType:           {"jobType", "job_type", "jobbtyp"},
	FieldRegion:            {"region", "ortzon"},
	FieldROT:               {"rot", "rotDeduction", "rot_deduction"},
	FieldEmployees:         {"employees", "antal_anstallda"},
	FieldPricingModel:      {"pricingModel", "pricing_model", "prismodell"},
	FieldFixedPrice:        {"fixedPrice", "fixed_price", "fastpris"},
	FieldHours:             {"hours", "timmar"},
	FieldHourlyRate:        {"hourlyRate", "hourly_rate", "rate", "timpris"},
	FieldSubcontractorCost: {"subcontractorCost", "subcontractor_cost", "ue_kostnad"},
	FieldMaterialCost:      {"materialCost", "material_cost", "material", "materialkostnad"},
	FieldAdjustment:        {"adjustment", "justering"},
	FieldEmail:             {"email"},
}

var regionValues = map[string]Region{
	"urban":      RegionUrban,
	"storstad":   RegionUrban,
	"mid":        RegionMid,
	"mellanstor": RegionMid,
	"rural":      RegionRural,
	"landsbygd":  RegionRural,
}

var pricingValues = map[string]PricingModel{
	"hourly":      PricingHourly,
	"lopande":     PricingHourly,
	"running":     PricingHourly,
	"fixed":       PricingFixed,
	"fast":        PricingFixed,
	"fixed_price": PricingFixed,
	"fixed-price": PricingFixed,
}

var boolValues = map[string]bool{
	"ja": true, "yes": true, "true": true, "1": true,
	"nej": false, "no": false, "false": false, "0": false,
}

// Normalizer converts raw requests into CanonicalInput. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	hours HoursTable
}

// New creates a Normalizer that fills missing fixed-price hours from table.
func New(table HoursTable) *Normalizer {
	return &Normalizer{hours: table}
}

// Hours returns the standard-hours table in use.
func (n *Normalizer) Hours() HoursTable {
	return n.hours
}

// Normalize validates req and returns its canonical form. Every problem is
// collected into a single *ValidationError.
func (n *Normalizer) Normalize(req Request) (*CanonicalInput, error) {
	var errs errorList
	in := &CanonicalInput{
		PricingModel:      PricingHourly,
		SubcontractorCost: Some(0),
	}

	// Categorical fields
	if v, ok := lookup(req, FieldJobType); ok {
		s, isString := v.(string)
		switch {
		case !isString:
			errs.add(FieldJobType, CodeInvalid, "must be a string")
		case strings.TrimSpace(s) == "":
			errs.add(FieldJobType, CodeRequired, "is required")
		default:
			in.JobType = strings.TrimSpace(s)
			in.JobCategory = CategoryOf(in.JobType)
		}
	} else {
		errs.add(FieldJobType, CodeRequired, "is required")
	}

	if v, ok := lookup(req, FieldRegion); ok {
		r, found := regionValues[fold(fmt.Sprint(v))]
		if !found {
			errs.add(FieldRegion, CodeInvalid, "must be one of urban, mid, rural")
		}
		in.Region = r
	} else {
		errs.add(FieldRegion, CodeRequired, "is required")
	}

	if v, ok := lookup(req, FieldPricingModel); ok {
		p, found := pricingValues[fold(fmt.Sprint(v))]
		if !found {
			errs.add(FieldPricingModel, CodeInvalid, "must be hourly or fixed")
		} else {
			in.PricingModel = p
		}
	}

	if v, ok := lookup(req, FieldROT); ok {
		b, err := toBool(v)
		if err != nil {
			errs.add(FieldROT, CodeInvalid, "must be yes or no")
		}
		in.ROTDeduction = b
	}

	if v, ok := lookup(req, FieldAdjustment); ok {
		num, err := toNumber(v)
		switch {
		case err != nil:
			errs.add(FieldAdjustment, CodeInvalid, "must be a number")
		case num.Present && (num.Value != math.Trunc(num.Value) || num.Value < 0 || num.Value > 2):
			errs.add(FieldAdjustment, CodeRange, "must be 0, 1 or 2")
		case num.Present:
			in.Adjustment = int(num.Value)
		}
	}

	// Numeric fields
	fixed := in.PricingModel == PricingFixed
	in.Hours = n.number(req, FieldHours, &errs, fixed)
	in.HourlyRate = n.number(req, FieldHourlyRate, &errs, fixed)
	in.FixedPrice = n.number(req, FieldFixedPrice, &errs, false)
	in.MaterialCost = n.number(req, FieldMaterialCost, &errs, false)
	in.Employees = n.number(req, FieldEmployees, &errs, false)
	if sub := n.number(req, FieldSubcontractorCost, &errs, false); sub.Present {
		in.SubcontractorCost = sub
	}

	if !in.MaterialCost.Present && !errs.has(FieldMaterialCost) {
		errs.add(FieldMaterialCost, CodeRequired, "is required")
	}

	// Pricing model exclusivity
	switch in.PricingModel {
	case PricingHourly:
		if !in.HourlyRate.Present && !errs.has(FieldHourlyRate) {
			errs.add(FieldHourlyRate, CodeRequired, "is required for hourly pricing")
		}
		if !in.Hours.Present {
			if !errs.has(FieldHours) {
				errs.add(FieldHours, CodeRequired, "is required for hourly pricing")
			}
		} else if in.Hours.Value <= 0 {
			errs.add(FieldHours, CodeRange, "must be greater than zero for hourly pricing")
		}
		in.FixedPrice = None
	case PricingFixed:
		if !in.FixedPrice.Present && !errs.has(FieldFixedPrice) {
			errs.add(FieldFixedPrice, CodeRequired, "is required for fixed pricing")
		}
		in.HourlyRate = Some(0)
		if !in.Hours.Present || in.Hours.Value <= 0 {
			in.Hours = Some(n.hours.StandardHours(in.JobCategory, in.Region))
			in.Defaulted = append(in.Defaulted, FieldHours)
		}
	}

	if v, ok := lookup(req, FieldEmail); ok {
		s, isString := v.(string)
		if !isString {
			errs.add(FieldEmail, CodeInvalid, "must be a string")
		} else if addr, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil || addr.Address != strings.TrimSpace(s) {
			errs.add(FieldEmail, CodeInvalid, "must be a valid email address")
		} else {
			in.ContactEmail = addr.Address
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return in, nil
}

// number reads a non-negative numeric field. With ignored set, a negative
// value is passed through untouched since the caller will replace it.
func (n *Normalizer) number(req Request, field string, errs *errorList, ignored bool) Number {
	v, ok := lookup(req, field)
	if !ok {
		return None
	}
	num, err := toNumber(v)
	if err != nil {
		errs.add(field, CodeInvalid, "must be a finite number")
		return None
	}
	if num.Present && num.Value < 0 {
		if ignored {
			return num
		}
		errs.add(field, CodeRange, "must not be negative")
		return None
	}
	return num
}

// lookup returns the first non-nil value stored under field or one of its
// aliases. Blank strings count as absent.
func lookup(req Request, field string) (any, bool) {
	for _, key := range aliases[field] {
		v, ok := req[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case int:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case string:
		if b, ok := boolValues[fold(x)]; ok {
			return b, nil
		}
	}
	return false, fmt.Errorf("not a boolean: %v", v)
}
