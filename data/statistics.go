package data

import (
	"strings"

	"github.com/yzchen08/nequip/pkg/errors"
)

// A statistic identifier encodes dataset_[per_species_|per_atom_]<field>_<stat>
// with <stat> one of mean, std, rms. mean and std of the same field share a
// single mean_std backend request; rms is always its own request.

// StatRequest is one deduplicated backend request.
type StatRequest struct {
	Field string
	Mode  string
}

// StatSelector maps an original statistic identifier onto the backend result
// list: Request indexes the deduplicated request, Slot selects the tuple
// entry (0 for mean/rms, 1 for std).
type StatSelector struct {
	Request int
	Slot    int
}

// ResolveStatNames parses statistic identifiers into deduplicated backend
// requests plus one selector per identifier. kwargs maps a field name to
// auxiliary parameters; these are forwarded (keyed field+mode) for
// per-species requests only, matching what the backend accepts. The
// resolver is pure; it never touches the dataset.
func ResolveStatNames(names []string, kwargs map[string]map[string]interface{}) ([]StatRequest, []StatSelector, map[string]map[string]interface{}, error) {
	requests := make([]StatRequest, 0, len(names))
	selectors := make([]StatSelector, 0, len(names))
	forwarded := make(map[string]map[string]interface{})
	seen := make(map[StatRequest]int)

	for _, name := range names {
		rest := strings.TrimPrefix(name, "dataset_")
		prefix := ""
		if strings.HasPrefix(rest, "per_species_") {
			rest = strings.TrimPrefix(rest, "per_species_")
			prefix = "per_species_"
		} else if strings.HasPrefix(rest, "per_atom_") {
			rest = strings.TrimPrefix(rest, "per_atom_")
			prefix = "per_atom_"
		}

		cut := strings.LastIndex(rest, "_")
		if cut < 0 {
			return nil, nil, nil, errors.NewStatNameError(name, rest)
		}
		field := rest[:cut]
		stat := rest[cut+1:]

		var mode string
		var slot int
		switch stat {
		case "mean":
			mode, slot = prefix+"mean_std", 0
		case "std":
			mode, slot = prefix+"mean_std", 1
		case "rms":
			mode, slot = prefix+"rms", 0
		default:
			return nil, nil, nil, errors.NewStatNameError(name, stat)
		}

		req := StatRequest{Field: field, Mode: mode}
		idx, ok := seen[req]
		if !ok {
			idx = len(requests)
			seen[req] = idx
			requests = append(requests, req)
			if strings.HasPrefix(mode, "per_species_") {
				if kw, ok := kwargs[field]; ok {
					forwarded[field+mode] = kw
				}
			}
		}
		selectors = append(selectors, StatSelector{Request: idx, Slot: slot})
	}

	return requests, selectors, forwarded, nil
}

// ComputeStatistics resolves names, issues the single backend call, and maps
// the results back onto the original identifiers, one value per name.
func ComputeStatistics(ds Dataset, names []string, stride int, kwargs map[string]map[string]interface{}) ([][]float64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	requests, selectors, forwarded, err := ResolveStatNames(names, kwargs)
	if err != nil {
		return nil, err
	}

	fields := make([]string, len(requests))
	modes := make([]string, len(requests))
	for i, req := range requests {
		fields[i] = req.Field
		modes[i] = req.Mode
	}

	results, err := ds.Statistics(fields, modes, stride, forwarded)
	if err != nil {
		return nil, errors.Wrap(err, "computing dataset statistics")
	}
	if len(results) != len(requests) {
		return nil, errors.Newf("statistics backend returned %d results for %d requests", len(results), len(requests))
	}

	values := make([][]float64, len(names))
	for i, sel := range selectors {
		res := results[sel.Request]
		switch sel.Slot {
		case 0:
			values[i] = res.Primary
		case 1:
			values[i] = res.Secondary
		}
		if values[i] == nil {
			return nil, errors.Newf("statistics backend returned no value for %q (field %q, mode %q)",
				names[i], requests[sel.Request].Field, requests[sel.Request].Mode)
		}
	}
	return values, nil
}
