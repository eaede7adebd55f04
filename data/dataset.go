package data

// StatResult is one statistics-backend result. Primary holds the mean or
// rms, Secondary the standard deviation; Secondary is populated only for
// mean_std modes. Values are length-1 for scalar statistics and one entry
// per species for per_species modes.
type StatResult struct {
	Primary   []float64
	Secondary []float64
}

// Dataset is the statistics backend contract. Statistics computes one
// descriptive statistic per requested (field, mode) pair over the dataset,
// visiting every stride-th frame. kwargs carries auxiliary per-request
// parameters keyed by field+mode, forwarded verbatim from configuration.
//
// The call is synchronous; a failure is a hard error for the caller, with
// no retry semantics owned on this side.
type Dataset interface {
	Statistics(fields []string, modes []string, stride int, kwargs map[string]map[string]interface{}) ([]StatResult, error)
}
