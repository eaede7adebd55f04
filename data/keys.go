// Package data defines the symbolic quantity keys shared across the
// pipeline, the batch container they index, and the contract of the dataset
// statistics backend together with the statistic-name resolver that feeds it.
package data

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/yzchen08/nequip/pkg/errors"
)

// Key is a symbolic name identifying a physical quantity in prediction and
// reference mappings.
type Key string

// Well-known quantity keys.
const (
	// TotalEnergyKey is the total potential energy of a graph.
	TotalEnergyKey Key = "total_energy"
	// PerAtomEnergyKey is the per-atom site energy.
	PerAtomEnergyKey Key = "atomic_energy"
	// ForceKey is the per-atom force vector.
	ForceKey Key = "forces"
	// StressKey is the per-graph stress tensor.
	StressKey Key = "stress"
	// AtomTypeKey is the per-atom species label.
	AtomTypeKey Key = "atom_types"
	// BatchKey maps each atom to the index of its containing graph.
	BatchKey Key = "batch"
)

var (
	fieldMutex sync.RWMutex
	// Keys with one value per graph. Everything else is per-node.
	graphFields = map[Key]bool{
		TotalEnergyKey: true,
		StressKey:      true,
	}
)

// RegisterGraphFields marks keys as graph-level (one value per graph rather
// than per atom). The built-in registrations cover total energy and stress.
func RegisterGraphFields(keys ...Key) {
	fieldMutex.Lock()
	defer fieldMutex.Unlock()
	for _, k := range keys {
		graphFields[k] = true
	}
}

// IsGraphField reports whether key is registered as a graph-level field.
func IsGraphField(key Key) bool {
	fieldMutex.RLock()
	defer fieldMutex.RUnlock()
	return graphFields[key]
}

// Batch is a mapping from quantity key to value array. The leading axis of
// every array is the node-or-graph index; trailing columns are feature
// dimensions.
type Batch map[Key]*mat.Dense

// Clone returns a batch sharing no backing storage with b.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for k, v := range b {
		out[k] = mat.DenseCopyOf(v)
	}
	return out
}

// Species returns the per-atom species labels from AtomTypeKey as ints.
func (b Batch) Species() ([]int, error) {
	return b.intColumn(AtomTypeKey)
}

// GraphIndex returns the per-atom graph assignment from BatchKey as ints.
func (b Batch) GraphIndex() ([]int, error) {
	return b.intColumn(BatchKey)
}

// AtomCounts returns the number of atoms in each graph, indexed by graph,
// computed as the bincount of the graph-assignment column.
func (b Batch) AtomCounts() ([]int, error) {
	idx, err := b.GraphIndex()
	if err != nil {
		return nil, err
	}
	n := 0
	for _, g := range idx {
		if g < 0 {
			return nil, errors.NewValueError("Batch.AtomCounts", "negative graph index")
		}
		if g+1 > n {
			n = g + 1
		}
	}
	counts := make([]int, n)
	for _, g := range idx {
		counts[g]++
	}
	return counts, nil
}

func (b Batch) intColumn(key Key) ([]int, error) {
	v, ok := b[key]
	if !ok {
		return nil, errors.NewValueError("Batch", "missing key "+string(key))
	}
	r, c := v.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("Batch."+string(key), 1, c, 1)
	}
	out := make([]int, r)
	for i := 0; i < r; i++ {
		out[i] = int(v.At(i, 0))
	}
	return out, nil
}
