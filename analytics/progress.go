// Package analytics derives read-only views from petitions: progress
// towards a target and the creator dashboard summary.
package analytics

import (
	"math"

	"petitionhub-backend/validation"
)

// ErrDivisionByZero is returned when progress is requested for a target
// below one. Targets are validated at creation, so this signals bad data.
var ErrDivisionByZero = &validation.FieldError{
	Field:   "target",
	Kind:    validation.DivisionByZero,
	Message: "target must be at least 1",
}

// Percentage returns signatures / target × 100 at full precision. Values
// above 100 are legitimate: a petition may exceed its goal.
func Percentage(signatures, target int64) (float64, error) {
	if target < 1 {
		return 0, ErrDivisionByZero
	}
	return float64(signatures) / float64(target) * 100, nil
}

// DisplayPercent rounds a percentage to the nearest whole percent
func DisplayPercent(pct float64) int64 {
	return int64(math.Round(pct))
}

// Progress bundles both representations for API responses
type Progress struct {
	Percent        float64 `json:"percent"`
	DisplayPercent int64   `json:"display_percent"`
}

// ProgressOf computes the progress of one petition
func ProgressOf(signatures, target int64) (Progress, error) {
	pct, err := Percentage(signatures, target)
	if err != nil {
		return Progress{}, err
	}
	return Progress{Percent: pct, DisplayPercent: DisplayPercent(pct)}, nil
}
