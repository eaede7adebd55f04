package train

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/yzchen08/nequip/metrics"
	"github.com/yzchen08/nequip/pkg/errors"
)

// Aggregation is the closed set of loss aggregation kinds.
type Aggregation int

const (
	// AggregationPlain reduces over all entries.
	AggregationPlain Aggregation = iota
	// AggregationPerAtom normalizes graph-level losses by atom count.
	AggregationPerAtom
	// AggregationPerSpecies averages per-species group means uniformly.
	AggregationPerSpecies
)

// LossSpec is a parsed loss configuration: an aggregation kind plus the
// elementwise function to apply. Symbolic names like "PerSpeciesMAELoss"
// are parsed into a spec once at configuration time.
type LossSpec struct {
	Aggregation Aggregation
	FuncName    string
}

// ParseLossName splits a symbolic loss name into its aggregation wrapper
// and elementwise function name. Recognized case-insensitive prefixes:
// "perspecies" and "peratom"; everything else is a plain loss.
func ParseLossName(name string) LossSpec {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "perspecies"):
		return LossSpec{Aggregation: AggregationPerSpecies, FuncName: name[len("perspecies"):]}
	case strings.HasPrefix(lower, "peratom"):
		return LossSpec{Aggregation: AggregationPerAtom, FuncName: name[len("peratom"):]}
	}
	return LossSpec{Aggregation: AggregationPlain, FuncName: name}
}

// Build constructs the loss described by the spec. params may carry
// "ignore_nan" plus elementwise function parameters.
func (s LossSpec) Build(params map[string]interface{}) (Loss, error) {
	ignoreNaN := false
	if v, ok := params["ignore_nan"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, errors.NewConfigError("ignore_nan", "expected a boolean", v)
		}
		ignoreNaN = b
	}
	fn, err := metrics.LookupElementwise(s.FuncName, params)
	if err != nil {
		return nil, err
	}
	base := SimpleLoss{FuncName: s.FuncName, Func: fn, IgnoreNaN: ignoreNaN}
	switch s.Aggregation {
	case AggregationPerAtom:
		return &PerAtomLoss{SimpleLoss: base}, nil
	case AggregationPerSpecies:
		return &PerSpeciesLoss{SimpleLoss: base}, nil
	}
	return &base, nil
}

// NewLoss dispatches a loss configuration value: an already-constructed
// Loss passes through unchanged, an elementwise function is wrapped in a
// SimpleLoss, and a symbolic name is parsed and built. Anything else is a
// configuration error.
func NewLoss(name interface{}, params map[string]interface{}) (Loss, error) {
	switch v := name.(type) {
	case Loss:
		return v, nil
	case metrics.Elementwise:
		return &SimpleLoss{Func: v}, nil
	case func(pred, ref *mat.Dense) *mat.Dense:
		return &SimpleLoss{Func: v}, nil
	case string:
		return ParseLossName(v).Build(params)
	}
	return nil, errors.NewConfigError("loss", "cannot construct a loss from value", name)
}
