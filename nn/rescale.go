package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/yzchen08/nequip/data"
	"github.com/yzchen08/nequip/pkg/errors"
)

// RescaleOutput wraps a model with a global affine rescale of selected
// output quantities: scaled keys are multiplied by Scale, shifted keys get
// Shift added. A nil Scale or Shift means that half is absent.
//
// The wrapper owns the resolved values after configuration; persisted
// checkpoint state is restored into it through SetState. The Apply here is
// a reference implementation; a production network layer with trainable
// parameters can substitute for it.
type RescaleOutput struct {
	Model GraphModel

	ScaleKeys []data.Key
	Scale     []float64
	ShiftKeys []data.Key
	Shift     []float64

	ScaleTrainable bool
	ShiftTrainable bool
}

// OutputKeys implements GraphModel by delegation.
func (r *RescaleOutput) OutputKeys() []data.Key { return r.Model.OutputKeys() }

// SetState restores persisted scale/shift values, replacing the dummy
// values installed when the wrapper was built without initialization.
func (r *RescaleOutput) SetState(scale, shift []float64) {
	if r.Scale != nil && scale != nil {
		r.Scale = scale
	}
	if r.Shift != nil && shift != nil {
		r.Shift = shift
	}
}

// Apply rescales the configured keys of batch in place. The global scale
// and shift are scalars (length-1 values).
func (r *RescaleOutput) Apply(batch data.Batch) error {
	if r.Scale != nil {
		if len(r.Scale) != 1 {
			return errors.NewValueError("RescaleOutput", "global scale must be a scalar")
		}
		for _, k := range r.ScaleKeys {
			v, ok := batch[k]
			if !ok {
				continue
			}
			v.Scale(r.Scale[0], v)
		}
	}
	if r.Shift != nil {
		if len(r.Shift) != 1 {
			return errors.NewValueError("RescaleOutput", "global shift must be a scalar")
		}
		for _, k := range r.ShiftKeys {
			v, ok := batch[k]
			if !ok {
				continue
			}
			rows, cols := v.Dims()
			for i := 0; i < rows; i++ {
				for j := 0; j < cols; j++ {
					v.Set(i, j, v.At(i, j)+r.Shift[0])
				}
			}
		}
	}
	return nil
}

// PerSpeciesScaleShift rescales a per-atom field by species-dependent
// constants: out[i] = in[i]*scales[species[i]] + shifts[species[i]].
// Length-1 Scales/Shifts broadcast over all species; nil disables that
// half. ArgumentsInDatasetUnits records whether the supplied values are in
// dataset units (the caller validated consistency; the flag travels with
// the stage so checkpoint restore can rescale them correctly).
type PerSpeciesScaleShift struct {
	Field    data.Key
	OutField data.Key

	Shifts []float64
	Scales []float64

	ArgumentsInDatasetUnits bool
}

// SetState restores persisted per-species shifts/scales.
func (p *PerSpeciesScaleShift) SetState(scales, shifts []float64) {
	if p.Scales != nil && scales != nil {
		p.Scales = scales
	}
	if p.Shifts != nil && shifts != nil {
		p.Shifts = shifts
	}
}

// Apply implements Stage.
func (p *PerSpeciesScaleShift) Apply(batch data.Batch) error {
	in, ok := batch[p.Field]
	if !ok {
		return errors.NewValueError("PerSpeciesScaleShift", "batch missing field "+string(p.Field))
	}
	species, err := batch.Species()
	if err != nil {
		return err
	}
	rows, cols := in.Dims()
	if len(species) != rows {
		return errors.NewDimensionError("PerSpeciesScaleShift", rows, len(species), 0)
	}

	out := in
	if p.OutField != p.Field {
		out = mat.DenseCopyOf(in)
		batch[p.OutField] = out
	}
	for i := 0; i < rows; i++ {
		scale, err := perSpecies(p.Scales, species[i], 1.0)
		if err != nil {
			return err
		}
		shift, err := perSpecies(p.Shifts, species[i], 0.0)
		if err != nil {
			return err
		}
		for j := 0; j < cols; j++ {
			out.Set(i, j, in.At(i, j)*scale+shift)
		}
	}
	return nil
}

func perSpecies(values []float64, species int, absent float64) (float64, error) {
	switch {
	case values == nil:
		return absent, nil
	case len(values) == 1:
		return values[0], nil
	case species >= 0 && species < len(values):
		return values[species], nil
	}
	return 0, errors.NewValueError("PerSpeciesScaleShift", "species label out of range of per-species parameters")
}
