// Standard attribute keys for the normalization and training-loss domain.
// Using these keys keeps configurator and loss logs filterable by quantity
// key, statistic field and aggregation mode.

package log

// Component and operation context.
const (
	// ComponentKey identifies the package or subsystem emitting the record.
	// Examples: "model.rescale", "train.loss", "data.statistics"
	ComponentKey = "component"

	// OperationKey names the operation being performed.
	// Examples: "rescale_energy_etc", "per_species_rescale", "loss"
	OperationKey = "operation"
)

// Quantity and statistic context.
const (
	// QuantityKey is the symbolic quantity key a record is about.
	// Examples: "total_energy", "forces"
	QuantityKey = "quantity"

	// StatFieldKey is the dataset field a statistic was computed over.
	StatFieldKey = "stat.field"

	// StatModeKey is the aggregation mode of a statistic request.
	// Examples: "mean_std", "rms", "per_species_mean_std", "per_atom_rms"
	StatModeKey = "stat.mode"

	// StatNameKey is the full symbolic statistic identifier as configured.
	StatNameKey = "stat.name"

	// StrideKey is the dataset statistics stride.
	StrideKey = "stat.stride"
)

// Resolved rescale values.
const (
	// ScaleKey carries a resolved scale value (scalar or per-species).
	ScaleKey = "rescale.scale"

	// ShiftKey carries a resolved shift value (scalar or per-species).
	ShiftKey = "rescale.shift"

	// SpeciesCountKey is the number of distinct species in a batch or a
	// per-species parameter vector.
	SpeciesCountKey = "rescale.species_count"
)

// Batch shape context.
const (
	// AtomsKey is the number of atoms (nodes) in a batch.
	AtomsKey = "batch.atoms"

	// GraphsKey is the number of graphs (samples) in a batch.
	GraphsKey = "batch.graphs"
)
