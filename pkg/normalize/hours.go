package normalize

import (
	"math"
	"strings"
)

// HoursTable holds the standard job durations used when a fixed-price
// request omits hours.
type HoursTable struct {
	// Base maps a Category to hours.
	Base map[Category]float64

	// RegionFactor scales the base value per Region. A missing region
	// scales by 1.
	RegionFactor map[Region]float64
}

// DefaultHoursTable returns the built-in durations.
func DefaultHoursTable() HoursTable {
	return HoursTable{
		Base: map[Category]float64{
			CategoryService:    40,
			CategoryRenovation: 160,
			CategoryExtension:  220,
			CategoryNewBuild:   600,
			CategoryOther:      160,
		},
		RegionFactor: map[Region]float64{
			RegionUrban: 1.10,
			RegionMid:   1.00,
			RegionRural: 1.10,
		},
	}
}

// HoursTableFromConfig builds a table from string-keyed maps as they appear
// in configuration. Entries missing from base fall back to the defaults.
func HoursTableFromConfig(base, factors map[string]float64) HoursTable {
	t := DefaultHoursTable()
	for k, v := range base {
		t.Base[Category(k)] = v
	}
	for k, v := range factors {
		t.RegionFactor[Region(k)] = v
	}
	return t
}

// StandardHours returns the standard duration for a job category in a
// region, rounded to whole hours with halves rounded up.
func (t HoursTable) StandardHours(c Category, r Region) float64 {
	h, ok := t.Base[c]
	if !ok {
		h = t.Base[CategoryOther]
	}
	if f, ok := t.RegionFactor[r]; ok {
		h *= f
	}
	return math.Floor(h + 0.5)
}

// CategoryOf derives the job category from a free-text job type. Swedish
// and English stems are both recognised.
func CategoryOf(jobType string) Category {
	jt := fold(jobType)
	switch {
	case strings.Contains(jt, "service"):
		return CategoryService
	case strings.Contains(jt, "renov"):
		return CategoryRenovation
	case strings.Contains(jt, "tillbygg"), strings.Contains(jt, "extension"):
		return CategoryExtension
	case strings.Contains(jt, "nybygg"), strings.Contains(jt, "new_build"),
		strings.Contains(jt, "new build"), strings.Contains(jt, "newbuild"):
		return CategoryNewBuild
	}
	return CategoryOther
}
