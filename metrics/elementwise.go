// Package metrics provides the elementwise error functions at the core of
// the training losses, plus reduced scalar forms for evaluation code.
package metrics

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/yzchen08/nequip/pkg/errors"
)

// Elementwise is a loss function producing one value per corresponding pair
// of prediction/reference entries, with no reduction. Inputs must have the
// same shape.
type Elementwise func(pred, ref *mat.Dense) *mat.Dense

// SquaredError returns the per-entry squared error (pred-ref)^2.
func SquaredError(pred, ref *mat.Dense) *mat.Dense {
	return apply(pred, ref, func(p, r float64) float64 {
		d := p - r
		return d * d
	})
}

// AbsoluteError returns the per-entry absolute error |pred-ref|.
func AbsoluteError(pred, ref *mat.Dense) *mat.Dense {
	return apply(pred, ref, func(p, r float64) float64 {
		return math.Abs(p - r)
	})
}

// HuberError returns a per-entry Huber loss with the given delta: quadratic
// within delta of the reference, linear beyond it.
func HuberError(delta float64) Elementwise {
	return func(pred, ref *mat.Dense) *mat.Dense {
		return apply(pred, ref, func(p, r float64) float64 {
			d := math.Abs(p - r)
			if d <= delta {
				return 0.5 * d * d
			}
			return delta * (d - 0.5*delta)
		})
	}
}

func apply(pred, ref *mat.Dense, f func(p, r float64) float64) *mat.Dense {
	rows, cols := pred.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, f(pred.At(i, j), ref.At(i, j)))
		}
	}
	return out
}

// LookupElementwise resolves an elementwise function by its configuration
// name. Recognized names (case-insensitive): MSELoss, L1Loss, MAELoss,
// HuberLoss. params may carry "delta" for HuberLoss.
func LookupElementwise(name string, params map[string]interface{}) (Elementwise, error) {
	switch strings.ToLower(name) {
	case "mseloss":
		return SquaredError, nil
	case "l1loss", "maeloss":
		return AbsoluteError, nil
	case "huberloss":
		delta := 1.0
		if v, ok := params["delta"]; ok {
			d, ok := v.(float64)
			if !ok {
				return nil, errors.NewConfigError("delta", "expected a float", v)
			}
			delta = d
		}
		return HuberError(delta), nil
	}
	return nil, errors.NewConfigError("loss", "unknown elementwise loss function", name)
}

// IsSquaredError reports whether name refers to the squared-error function.
// The per-atom loss needs this to apply its squared-error normalization
// correction.
func IsSquaredError(name string) bool {
	return strings.ToLower(name) == "mseloss"
}
