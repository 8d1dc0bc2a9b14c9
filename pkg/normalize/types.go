package normalize

// Request is a raw submission as decoded from a JSON body or assembled from
// CLI flags. Keys may use canonical names or any accepted alias.
type Request map[string]any

// Region is the geographic zone of a job.
type Region string

// Regions.
const (
	RegionUrban Region = "urban"
	RegionMid   Region = "mid"
	RegionRural Region = "rural"
)

// EngineLabel returns the label the engine expects in its input slot.
func (r Region) EngineLabel() string {
	switch r {
	case RegionUrban:
		return "Storstad"
	case RegionMid:
		return "Mellanstor"
	case RegionRural:
		return "Landsbygd"
	}
	return ""
}

// PricingModel is the commercial model of a quote.
type PricingModel string

// Pricing models.
const (
	PricingHourly PricingModel = "hourly"
	PricingFixed  PricingModel = "fixed"
)

// EngineLabel returns the label the engine expects in its input slot.
func (p PricingModel) EngineLabel() string {
	switch p {
	case PricingHourly:
		return "LÖPANDE"
	case PricingFixed:
		return "FAST"
	}
	return ""
}

// Category is the job class derived from the free-text job type. It selects
// the standard duration row.
type Category string

// Job categories.
const (
	CategoryService    Category = "service"
	CategoryRenovation Category = "renovation"
	CategoryExtension  Category = "extension"
	CategoryNewBuild   Category = "new_build"
	CategoryOther      Category = "other"
)

// Number is a finite numeric value or an explicit absence.
type Number struct {
	Value   float64
	Present bool
}

// Some returns a present Number.
func Some(v float64) Number { return Number{Value: v, Present: true} }

// None is the absent Number.
var None = Number{}

// Field names used in CanonicalInput.Defaulted and in FieldError.Field.
const (
	FieldJobType           = "jobType"
	FieldRegion            = "region"
	FieldROT               = "rot"
	FieldEmployees         = "employees"
	FieldPricingModel      = "pricingModel"
	FieldFixedPrice        = "fixedPrice"
	FieldHours             = "hours"
	FieldHourlyRate        = "hourlyRate"
	FieldSubcontractorCost = "subcontractorCost"
	FieldMaterialCost      = "materialCost"
	FieldAdjustment        = "adjustment"
	FieldEmail             = "email"
)

// CanonicalInput is the validated, fully typed form of a Request. It is
// never mutated after Normalize returns it.
//
// For PricingHourly, HourlyRate is present and FixedPrice is absent. For
// PricingFixed, FixedPrice is present and HourlyRate is zero.
type CanonicalInput struct {
	JobType      string
	JobCategory  Category
	Region       Region
	PricingModel PricingModel
	ROTDeduction bool
	Adjustment   int

	Hours             Number
	HourlyRate        Number
	FixedPrice        Number
	SubcontractorCost Number
	MaterialCost      Number
	Employees         Number

	// Defaulted lists fields whose value was substituted rather than supplied.
	Defaulted []string

	// ContactEmail is kept for the caller's records and is never sent to
	// the engine.
	ContactEmail string
}

// WasDefaulted reports whether field was substituted.
func (c *CanonicalInput) WasDefaulted(field string) bool {
	for _, f := range c.Defaulted {
		if f == field {
			return true
		}
	}
	return false
}
