// Package model builds the normalization stages of a property-prediction
// pipeline: a global rescale of extensive outputs and a per-species
// scale/shift of per-atom energies, both derived from training-set
// statistics unless configured explicitly.
package model

import (
	"github.com/yzchen08/nequip/data"
	"github.com/yzchen08/nequip/nn"
	"github.com/yzchen08/nequip/pkg/config"
	"github.com/yzchen08/nequip/pkg/errors"
	"github.com/yzchen08/nequip/pkg/log"
)

// RescaleThreshold is the minimum acceptable resolved scale. Values below it
// indicate degenerate training-set variation and fail configuration.
const RescaleThreshold = 1e-6

// RescaleKind discriminates the states a configured scale/shift can be in.
type RescaleKind int

const (
	// Absent means no scaling/shifting of this half at all.
	Absent RescaleKind = iota
	// Explicit means a literal numeric value was supplied.
	Explicit
	// DatasetDerived means a statistic identifier to resolve against the
	// training set.
	DatasetDerived
)

// RescaleValue is a configured scale or shift: absent, an explicit value, or
// a dataset statistic still to be resolved. Configurators resolve every
// DatasetDerived value to Explicit before anything reaches the pipeline.
type RescaleValue struct {
	Kind   RescaleKind
	Name   string    // statistic identifier, when DatasetDerived
	Values []float64 // scalar (length 1) or per-species, when Explicit
}

// AbsentValue returns the absent RescaleValue.
func AbsentValue() RescaleValue { return RescaleValue{Kind: Absent} }

// ExplicitValue returns an explicit RescaleValue.
func ExplicitValue(values ...float64) RescaleValue {
	return RescaleValue{Kind: Explicit, Values: values}
}

// DatasetValue returns a dataset-derived RescaleValue for the given
// statistic identifier.
func DatasetValue(name string) RescaleValue {
	return RescaleValue{Kind: DatasetDerived, Name: name}
}

// ParseRescaleValue classifies a raw configuration value. nil is absent,
// a string is a statistic identifier, numbers and float slices are explicit
// values; anything else is a configuration error naming option.
func ParseRescaleValue(option string, v interface{}) (RescaleValue, error) {
	switch value := v.(type) {
	case nil:
		return AbsentValue(), nil
	case RescaleValue:
		return value, nil
	case string:
		return DatasetValue(value), nil
	case float64:
		return ExplicitValue(value), nil
	case int:
		return ExplicitValue(float64(value)), nil
	case []float64:
		if len(value) == 0 {
			return RescaleValue{}, errors.NewConfigError(option, "empty value list", v)
		}
		return ExplicitValue(value...), nil
	}
	return RescaleValue{}, errors.NewConfigError(option, "expected a statistic identifier, a number, a list of numbers, or nil", v)
}

// resolveDatasetValues resolves every DatasetDerived value in vals against
// the dataset in one backend call, in place.
func resolveDatasetValues(ds data.Dataset, stride int, kwargs map[string]map[string]interface{}, logger log.Logger, vals ...*RescaleValue) error {
	var names []string
	for _, v := range vals {
		if v.Kind == DatasetDerived {
			names = append(names, v.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	computed, err := data.ComputeStatistics(ds, names, stride, kwargs)
	if err != nil {
		return err
	}

	i := 0
	for _, v := range vals {
		if v.Kind != DatasetDerived {
			continue
		}
		logger.Debug("resolved dataset statistic",
			log.StatNameKey, v.Name,
			log.ScaleKey, computed[i],
		)
		*v = RescaleValue{Kind: Explicit, Values: computed[i]}
		i++
	}
	return nil
}

// RescaleEnergyEtc wraps model with a global rescale of its energy-based
// outputs. Scale defaults to the dataset force RMS when the model predicts
// forces, else the total-energy standard deviation; shift defaults to
// absent, keeping the energy model extensive.
//
// When initialize is false no statistics are computed: whichever of
// scale/shift is non-absent gets a dummy value (1.0 / 0.0) so the wrapper
// has the right shape, and the true values are restored later from
// persisted model state.
//
// The original model is not mutated; the returned wrapper holds it.
func RescaleEnergyEtc(m nn.GraphModel, cfg config.Config, ds data.Dataset, initialize bool) (*nn.RescaleOutput, error) {
	const prefix = "global_rescale"
	logger := log.GetLoggerWithName("model.rescale")

	defaultScale := "dataset_" + string(data.TotalEnergyKey) + "_std"
	if nn.HasOutput(m, data.ForceKey) {
		defaultScale = "dataset_" + string(data.ForceKey) + "_rms"
	}

	scale, err := ParseRescaleValue(prefix+"_scale", cfg.Get(prefix+"_scale", defaultScale))
	if err != nil {
		return nil, err
	}
	shift, err := ParseRescaleValue(prefix+"_shift", cfg.Get(prefix+"_shift", nil))
	if err != nil {
		return nil, err
	}

	if shift.Kind != Absent {
		errors.Warn(errors.NewExtensivityWarning(string(data.TotalEnergyKey), cfg.Get(prefix+"_shift", nil)))
	}

	if initialize {
		stride, err := cfg.GetInt("dataset_statistics_stride", 1)
		if err != nil {
			return nil, err
		}
		if err := resolveDatasetValues(ds, stride, nil, logger, &scale, &shift); err != nil {
			return nil, err
		}
		if err := errors.CheckScaleThreshold(prefix+"_scale", scale.Values, RescaleThreshold,
			"If dataset values were used, does the dataset contain insufficient variation? Maybe try disabling global scaling with "+prefix+"_scale = nil."); err != nil {
			return nil, err
		}
		logger.Debug("global rescale resolved",
			log.ScaleKey, scale.Values,
			log.ShiftKey, shift.Values,
		)
	} else {
		// Dummy values; real ones are restored from persisted state later.
		if scale.Kind != Absent {
			scale = ExplicitValue(1.0)
		}
		if shift.Kind != Absent {
			shift = ExplicitValue(0.0)
		}
	}

	scaleTrainable, err := cfg.GetBool(prefix+"_scale_trainable", false)
	if err != nil {
		return nil, err
	}
	shiftTrainable, err := cfg.GetBool(prefix+"_shift_trainable", false)
	if err != nil {
		return nil, err
	}

	var scaleKeys []data.Key
	for _, k := range []data.Key{data.TotalEnergyKey, data.PerAtomEnergyKey, data.ForceKey, data.StressKey} {
		if nn.HasOutput(m, k) {
			scaleKeys = append(scaleKeys, k)
		}
	}
	var shiftKeys []data.Key
	if nn.HasOutput(m, data.TotalEnergyKey) {
		shiftKeys = append(shiftKeys, data.TotalEnergyKey)
	}

	return &nn.RescaleOutput{
		Model:          m,
		ScaleKeys:      scaleKeys,
		Scale:          scale.Values,
		ShiftKeys:      shiftKeys,
		Shift:          shift.Values,
		ScaleTrainable: scaleTrainable,
		ShiftTrainable: shiftTrainable,
	}, nil
}

// PerSpeciesRescale inserts a per-species scale/shift of the per-atom energy
// into model, immediately before its "total_energy_sum" stage. Scales
// default to the dataset force RMS when forces are trained on (noisy local
// signal available), else the per-atom total-energy standard deviation;
// shifts default to the per-atom total-energy mean.
//
// Mixing a dataset-derived half with an explicit one is only allowed when
// the configuration declares the explicit values to be in dataset units
// (per_species_rescale_arguments_in_dataset_units = true); mixing unit
// systems silently is forbidden. When both halves are explicit no
// consistency check applies; validating that combination is an open
// upstream gap.
func PerSpeciesRescale(m *nn.Sequential, cfg config.Config, ds data.Dataset, initialize bool) error {
	const prefix = "per_species_rescale"
	logger := log.GetLoggerWithName("model.rescale")

	trainOn, err := cfg.GetStringSlice("train_on_keys", nil)
	if err != nil {
		return err
	}
	trainsOnForces := false
	for _, k := range trainOn {
		if data.Key(k) == data.ForceKey {
			trainsOnForces = true
		}
	}
	// Without train_on_keys, assume conservatively that nothing is trained
	// on and take the most general default.
	defaultScales := "dataset_per_atom_" + string(data.TotalEnergyKey) + "_std"
	if trainsOnForces {
		defaultScales = "dataset_" + string(data.ForceKey) + "_rms"
	}
	defaultShifts := "dataset_per_atom_" + string(data.TotalEnergyKey) + "_mean"

	scales, err := ParseRescaleValue(prefix+"_scales", cfg.Get(prefix+"_scales", defaultScales))
	if err != nil {
		return err
	}
	shifts, err := ParseRescaleValue(prefix+"_shifts", cfg.Get(prefix+"_shifts", defaultShifts))
	if err != nil {
		return err
	}

	argumentsInDatasetUnits := false
	if initialize {
		derived := 0
		for _, v := range []RescaleValue{scales, shifts} {
			if v.Kind == DatasetDerived {
				derived++
			}
		}
		switch derived {
		case 2:
			// Both computed from the dataset; units consistent by construction.
			argumentsInDatasetUnits = true
		case 1:
			declared, err := cfg.GetBool(prefix+"_arguments_in_dataset_units", false)
			if err != nil {
				return err
			}
			if !declared {
				return errors.NewConfigError(prefix+"_arguments_in_dataset_units",
					"one of the per-species shifts/scales is dataset-derived while the other is explicit; "+
						"give the explicit values in dataset units and set "+prefix+"_arguments_in_dataset_units = true", nil)
			}
			argumentsInDatasetUnits = true
		default:
			argumentsInDatasetUnits, err = cfg.GetBool(prefix+"_arguments_in_dataset_units", false)
			if err != nil {
				return err
			}
		}

		stride, err := cfg.GetInt("dataset_statistics_stride", 1)
		if err != nil {
			return err
		}
		kwargs, err := cfg.GetStringMap(prefix + "_kwargs")
		if err != nil {
			return err
		}
		if err := resolveDatasetValues(ds, stride, kwargs, logger, &scales, &shifts); err != nil {
			return err
		}
		if err := errors.CheckScaleThreshold(prefix+"_scales", scales.Values, RescaleThreshold,
			"Maybe try setting "+prefix+"_scales = 1."); err != nil {
			return err
		}
		logger.Debug("per-species rescale resolved",
			log.ScaleKey, scales.Values,
			log.ShiftKey, shifts.Values,
			log.SpeciesCountKey, len(scales.Values),
		)
	} else {
		// Dummy values; the persisted state restored later includes these
		// buffers, so what they are set to here does not matter.
		scales = ExplicitValue(1.0)
		shifts = ExplicitValue(0.0)
		argumentsInDatasetUnits = false
	}

	stage := &nn.PerSpeciesScaleShift{
		Field:                   data.PerAtomEnergyKey,
		OutField:                data.PerAtomEnergyKey,
		Shifts:                  shifts.Values,
		Scales:                  scales.Values,
		ArgumentsInDatasetUnits: argumentsInDatasetUnits,
	}
	return m.InsertBefore("total_energy_sum", prefix, stage)
}
