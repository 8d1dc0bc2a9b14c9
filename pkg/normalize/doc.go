// Package normalize turns raw quote requests into a canonical, fully typed
// input for the quote engine.
//
// Requests arrive with canonical camelCase keys, snake_case keys or the
// Swedish names used by older clients (jobbtyp, ortzon, timpris, ...).
// Normalize resolves aliases, folds case and accents on enumerations, reads
// numbers written with locale separators, applies defaults and enforces the
// pricing-model rules:
//
//   - hourly pricing requires hourlyRate and hours; fixedPrice is dropped
//   - fixed pricing requires fixedPrice; hourlyRate is forced to 0 and
//     missing hours are filled from the standard-hours table
//
// Substituted fields are listed in CanonicalInput.Defaulted so callers can
// report them. All field problems are returned together in a
// *ValidationError.
package normalize
