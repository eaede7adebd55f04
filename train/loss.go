// Package train provides the training-loss family: an elementwise-loss core
// with configurable NaN masking, wrapped by per-atom and per-species
// aggregation variants, and a factory dispatching symbolic loss names.
package train

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/yzchen08/nequip/data"
	"github.com/yzchen08/nequip/metrics"
	"github.com/yzchen08/nequip/pkg/errors"
	"github.com/yzchen08/nequip/scatter"
)

// Loss evaluates one loss term over a batch. Implementations are stateless
// across calls: both methods are pure functions of their batch-scoped
// inputs.
type Loss interface {
	// Loss returns the mean-reduced loss for key.
	Loss(pred, ref data.Batch, key data.Key) (float64, error)
	// LossRaw returns the unreduced per-entry loss for key.
	LossRaw(pred, ref data.Batch, key data.Key) (*mat.Dense, error)
}

// SimpleLoss applies an elementwise loss function to pred[key] and ref[key].
//
// With IgnoreNaN set and NaN present in the reference, NaN entries are
// masked out: they contribute zero loss and are excluded from the mean's
// denominator, so missing reference values never pollute the aggregate.
type SimpleLoss struct {
	FuncName  string
	Func      metrics.Elementwise
	IgnoreNaN bool
}

// evaluated is the shared elementwise-plus-mask evaluation all variants
// build on.
type evaluated struct {
	loss   *mat.Dense
	mask   *mat.Dense // 1 for valid entries, 0 for masked; nil when not masked
	valid  int        // count of valid entries; total entries when not masked
	masked bool
}

func (l *SimpleLoss) eval(op string, pred, ref data.Batch, key data.Key) (evaluated, error) {
	r, ok := ref[key]
	if !ok {
		return evaluated{}, errors.NewValueError(op, "reference batch missing key "+string(key))
	}
	p, ok := pred[key]
	if !ok {
		return evaluated{}, errors.NewValueError(op, "prediction batch missing key "+string(key))
	}
	pr, pc := p.Dims()
	rr, rc := r.Dims()
	if pr != rr {
		return evaluated{}, errors.NewDimensionError(op, rr, pr, 0)
	}
	if pc != rc {
		return evaluated{}, errors.NewDimensionError(op, rc, pc, 1)
	}

	if l.IgnoreNaN && containsNaN(r) {
		mask := mat.NewDense(rr, rc, nil)
		clean := mat.NewDense(rr, rc, nil)
		valid := 0
		for i := 0; i < rr; i++ {
			for j := 0; j < rc; j++ {
				v := r.At(i, j)
				if math.IsNaN(v) {
					// zero the nan entries before evaluating
					clean.Set(i, j, 0)
				} else {
					clean.Set(i, j, v)
					mask.Set(i, j, 1)
					valid++
				}
			}
		}
		loss := l.Func(p, clean)
		loss.MulElem(loss, mask)
		return evaluated{loss: loss, mask: mask, valid: valid, masked: true}, nil
	}

	return evaluated{loss: l.Func(p, r), valid: rr * rc}, nil
}

// Loss implements Loss.
func (l *SimpleLoss) Loss(pred, ref data.Batch, key data.Key) (float64, error) {
	ev, err := l.eval("SimpleLoss", pred, ref, key)
	if err != nil {
		return 0, err
	}
	return mat.Sum(ev.loss) / float64(ev.valid), nil
}

// LossRaw implements Loss. Masked entries are zero in the returned array.
func (l *SimpleLoss) LossRaw(pred, ref data.Batch, key data.Key) (*mat.Dense, error) {
	ev, err := l.eval("SimpleLoss", pred, ref, key)
	if err != nil {
		return nil, err
	}
	return ev.loss, nil
}

// PerAtomLoss normalizes a graph-level loss by the atom count of each graph
// before reducing. It refuses node-level keys: per-atom normalization of a
// per-node quantity is a configuration mistake.
//
// For the squared-error function the loss is divided by the atom count
// twice. Squared error on a per-atom-averaged quantity scales quadratically
// with the 1/N already folded into the prediction upstream; the second
// division compensates for that convention and is intentional. It applies
// to the squared-error function only, never to other elementwise choices.
type PerAtomLoss struct {
	SimpleLoss
}

func (l *PerAtomLoss) compute(pred, ref data.Batch, key data.Key) (evaluated, error) {
	if !data.IsGraphField(key) {
		return evaluated{}, errors.NewKeyKindError("PerAtomLoss", string(key), "graph-level")
	}
	ev, err := l.eval("PerAtomLoss", pred, ref, key)
	if err != nil {
		return evaluated{}, err
	}
	counts, err := ref.AtomCounts()
	if err != nil {
		return evaluated{}, err
	}
	rows, cols := ev.loss.Dims()
	if rows != len(counts) {
		return evaluated{}, errors.NewDimensionError("PerAtomLoss", len(counts), rows, 0)
	}
	for i := 0; i < rows; i++ {
		n := float64(counts[i])
		div := n
		if metrics.IsSquaredError(l.FuncName) {
			div = n * n
		}
		for j := 0; j < cols; j++ {
			ev.loss.Set(i, j, ev.loss.At(i, j)/div)
		}
	}
	return ev, nil
}

// Loss implements Loss.
func (l *PerAtomLoss) Loss(pred, ref data.Batch, key data.Key) (float64, error) {
	ev, err := l.compute(pred, ref, key)
	if err != nil {
		return 0, err
	}
	return mat.Sum(ev.loss) / float64(ev.valid), nil
}

// LossRaw implements Loss.
func (l *PerAtomLoss) LossRaw(pred, ref data.Batch, key data.Key) (*mat.Dense, error) {
	ev, err := l.compute(pred, ref, key)
	if err != nil {
		return nil, err
	}
	return ev.loss, nil
}

// PerSpeciesLoss groups the per-atom loss by species label, reduces within
// each species, and averages the per-species results with equal weight
// regardless of species population. Only mean reduction is supported.
type PerSpeciesLoss struct {
	SimpleLoss
}

// Loss implements Loss.
func (l *PerSpeciesLoss) Loss(pred, ref data.Batch, key data.Key) (float64, error) {
	ev, err := l.eval("PerSpeciesLoss", pred, ref, key)
	if err != nil {
		return 0, err
	}
	species, err := pred.Species()
	if err != nil {
		return 0, err
	}
	rows, cols := ev.loss.Dims()
	if len(species) != rows {
		return 0, errors.NewDimensionError("PerSpeciesLoss", rows, len(species), 0)
	}

	if ev.masked {
		// Sum the loss and the valid-entry count within each species group;
		// a group's mean is its sum over its valid count. Groups with no
		// valid entries are excluded from the species denominator entirely
		// instead of contributing an infinite reciprocal.
		n := 0
		for _, s := range species {
			if s < 0 {
				return 0, errors.NewValueError("PerSpeciesLoss", "negative species label")
			}
			if s+1 > n {
				n = s + 1
			}
		}
		perAtom := make([]float64, rows)
		validPerAtom := make([]float64, rows)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				perAtom[i] += ev.loss.At(i, j)
				validPerAtom[i] += ev.mask.At(i, j)
			}
		}
		sums, err := scatter.SumByGroup(perAtom, species, n)
		if err != nil {
			return 0, err
		}
		valid, err := scatter.SumByGroup(validPerAtom, species, n)
		if err != nil {
			return 0, err
		}
		total := 0.0
		observed := 0
		for s := 0; s < n; s++ {
			if valid[s] > 0 {
				total += sums[s] / valid[s]
				observed++
			}
		}
		if observed == 0 {
			return math.NaN(), nil
		}
		return total / float64(observed), nil
	}

	// Raw species codes need not be contiguous or zero-based; remap them to
	// dense slots before group-averaging.
	perAtom := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			perAtom[i] += ev.loss.At(i, j)
		}
		perAtom[i] /= float64(cols)
	}
	dense, n := scatter.DenseLabels(species)
	means, err := scatter.MeanByGroup(perAtom, dense, n)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, m := range means {
		total += m
	}
	return total / float64(n), nil
}

// LossRaw implements Loss. Per-species losses only support mean reduction.
func (l *PerSpeciesLoss) LossRaw(pred, ref data.Batch, key data.Key) (*mat.Dense, error) {
	return nil, errors.NewNotImplementedError("PerSpeciesLoss.LossRaw", "per-species losses only support mean reduction")
}

func containsNaN(m *mat.Dense) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(m.At(i, j)) {
				return true
			}
		}
	}
	return false
}
