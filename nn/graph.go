// Package nn defines the pipeline contracts consumed by the rescale
// configurators: the graph-model interface, the ordered named-stage
// pipeline with anchored insertion, and the scale/shift stages that carry
// resolved rescale parameters.
package nn

import (
	"github.com/yzchen08/nequip/data"
	"github.com/yzchen08/nequip/pkg/errors"
)

// GraphModel is the minimal contract a prediction pipeline exposes to the
// configurators: the set of quantity keys it produces.
type GraphModel interface {
	OutputKeys() []data.Key
}

// HasOutput reports whether model produces key.
func HasOutput(m GraphModel, key data.Key) bool {
	for _, k := range m.OutputKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Stage is one step of a prediction pipeline. Apply reads and writes batch
// entries in place.
type Stage interface {
	Apply(batch data.Batch) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(batch data.Batch) error

// Apply implements Stage.
func (f StageFunc) Apply(batch data.Batch) error { return f(batch) }

// Sequential is an ordered pipeline of uniquely named stages. Names are
// unique by construction (Append rejects duplicates), so InsertBefore
// anchors cannot collide; lookup is by name index, not positional search.
type Sequential struct {
	names   []string
	stages  []Stage
	index   map[string]int
	outputs []data.Key
}

// NewSequential creates an empty pipeline declaring the given output keys.
func NewSequential(outputs ...data.Key) *Sequential {
	return &Sequential{
		index:   make(map[string]int),
		outputs: outputs,
	}
}

// OutputKeys implements GraphModel.
func (s *Sequential) OutputKeys() []data.Key { return s.outputs }

// StageNames returns the stage names in pipeline order.
func (s *Sequential) StageNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Stage returns the named stage, or nil when absent.
func (s *Sequential) Stage(name string) Stage {
	if i, ok := s.index[name]; ok {
		return s.stages[i]
	}
	return nil
}

// Append adds a named stage at the end of the pipeline. A duplicate name is
// rejected.
func (s *Sequential) Append(name string, stage Stage) error {
	if _, ok := s.index[name]; ok {
		return errors.NewValueError("Sequential.Append", "duplicate stage name "+name)
	}
	s.index[name] = len(s.stages)
	s.names = append(s.names, name)
	s.stages = append(s.stages, stage)
	return nil
}

// InsertBefore inserts a named stage immediately before the stage named
// anchor. An unknown anchor or duplicate name is an error.
func (s *Sequential) InsertBefore(anchor, name string, stage Stage) error {
	if _, ok := s.index[name]; ok {
		return errors.NewValueError("Sequential.InsertBefore", "duplicate stage name "+name)
	}
	at, ok := s.index[anchor]
	if !ok {
		return errors.NewValueError("Sequential.InsertBefore", "unknown anchor stage "+anchor)
	}

	s.names = append(s.names, "")
	copy(s.names[at+1:], s.names[at:])
	s.names[at] = name

	s.stages = append(s.stages, nil)
	copy(s.stages[at+1:], s.stages[at:])
	s.stages[at] = stage

	for i := at; i < len(s.names); i++ {
		s.index[s.names[i]] = i
	}
	return nil
}

// Forward runs every stage in order against batch.
func (s *Sequential) Forward(batch data.Batch) error {
	for i, stage := range s.stages {
		if err := stage.Apply(batch); err != nil {
			return errors.Wrapf(err, "stage %q", s.names[i])
		}
	}
	return nil
}
