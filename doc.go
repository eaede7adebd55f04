// Package nequip provides the normalization and loss machinery of a
// property-prediction training pipeline for atomistic data: dataset
// statistics, dataset-derived global and per-species rescaling of model
// outputs, and the loss functions used to train against per-atom and
// per-graph quantities.
//
// # Packages
//
//   - data: quantity keys, batches, dataset statistics resolution
//   - nn: graph-model pipeline and the rescale layers
//   - model: the rescale configurators (RescaleEnergyEtc, PerSpeciesRescale)
//   - train: loss functions (simple, per-atom, per-species) and their factory
//   - metrics: elementwise error functions and scalar regression metrics
//   - scatter: segment reductions over per-atom values
//
// # Quick Start
//
// Wrap an energy pipeline with dataset-derived normalization and build a
// per-atom loss:
//
//	pipeline := nn.NewSequential(data.TotalEnergyKey, data.PerAtomEnergyKey)
//	_ = pipeline.Append("total_energy_sum", sumStage)
//
//	if err := model.PerSpeciesRescale(pipeline, cfg, dataset, true); err != nil {
//	    log.Fatal(err)
//	}
//	wrapped, err := model.RescaleEnergyEtc(pipeline, cfg, dataset, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loss, err := train.NewLoss("PerAtomMSELoss", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	l, err := loss.Loss(pred, ref, data.TotalEnergyKey)
//
// Scales and shifts default to training-set statistics (force RMS, energy
// standard deviation and mean); explicit values and statistic identifiers
// such as "dataset_per_atom_total_energy_std" are accepted in configuration.
package nequip
