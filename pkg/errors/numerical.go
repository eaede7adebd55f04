package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// DegenerateScaleError reports a resolved rescale value that is too small to
// divide by. This is a data-quality failure: dataset-derived values this
// close to zero indicate insufficient variation in the training set.
type DegenerateScaleError struct {
	Option    string
	Values    []float64
	Threshold float64
	Hint      string
}

func (e *DegenerateScaleError) Error() string {
	return fmt.Sprintf("nequip: %s resolved to a very low scaling %v (threshold %g). %s", e.Option, e.Values, e.Threshold, e.Hint)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DegenerateScaleError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("option", e.Option).
		Floats64("values", e.Values).
		Float64("threshold", e.Threshold).
		Str("hint", e.Hint).
		Str("type", "DegenerateScaleError")
}

// NewDegenerateScaleError creates a new DegenerateScaleError with a stack
// trace attached.
func NewDegenerateScaleError(option string, values []float64, threshold float64, hint string) error {
	err := &DegenerateScaleError{Option: option, Values: values, Threshold: threshold, Hint: hint}
	return errors.WithStack(err)
}

// CheckScaleThreshold validates that every entry of a resolved scale value
// exceeds threshold (for per-species values the minimum over species is the
// binding entry). A nil value is absent scaling and always passes.
func CheckScaleThreshold(option string, values []float64, threshold float64, hint string) error {
	if values == nil {
		return nil
	}
	for _, v := range values {
		if v < threshold || math.IsNaN(v) {
			return NewDegenerateScaleError(option, values, threshold, hint)
		}
	}
	return nil
}

// CheckFinite returns a ValueError if any entry is NaN or infinite. It is
// used to validate externally supplied scale/shift values, where a NaN is a
// configuration mistake rather than missing data.
func CheckFinite(op string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValueError(op, fmt.Sprintf("non-finite value %v at index %d", v, i))
		}
	}
	return nil
}
