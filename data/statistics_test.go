package data

import (
	"math"
	"testing"

	"github.com/yzchen08/nequip/pkg/errors"
)

func TestResolveStatNames(t *testing.T) {
	tests := []struct {
		name         string
		names        []string
		wantRequests []StatRequest
		wantSel      []StatSelector
		wantErr      bool
	}{
		{
			name:         "single mean",
			names:        []string{"dataset_forces_rms"},
			wantRequests: []StatRequest{{Field: "forces", Mode: "rms"}},
			wantSel:      []StatSelector{{Request: 0, Slot: 0}},
		},
		{
			name:  "mean and std of same field deduplicate",
			names: []string{"dataset_total_energy_mean", "dataset_total_energy_std"},
			wantRequests: []StatRequest{
				{Field: "total_energy", Mode: "mean_std"},
			},
			wantSel: []StatSelector{{Request: 0, Slot: 0}, {Request: 0, Slot: 1}},
		},
		{
			name:  "rms never merges with mean_std",
			names: []string{"dataset_forces_rms", "dataset_forces_std"},
			wantRequests: []StatRequest{
				{Field: "forces", Mode: "rms"},
				{Field: "forces", Mode: "mean_std"},
			},
			wantSel: []StatSelector{{Request: 0, Slot: 0}, {Request: 1, Slot: 1}},
		},
		{
			name:  "per_species and per_atom prefixes",
			names: []string{"dataset_per_species_atomic_energy_mean", "dataset_per_atom_total_energy_std"},
			wantRequests: []StatRequest{
				{Field: "atomic_energy", Mode: "per_species_mean_std"},
				{Field: "total_energy", Mode: "per_atom_mean_std"},
			},
			wantSel: []StatSelector{{Request: 0, Slot: 0}, {Request: 1, Slot: 1}},
		},
		{
			name:  "scoped and unscoped modes stay distinct",
			names: []string{"dataset_total_energy_mean", "dataset_per_atom_total_energy_mean"},
			wantRequests: []StatRequest{
				{Field: "total_energy", Mode: "mean_std"},
				{Field: "total_energy", Mode: "per_atom_mean_std"},
			},
			wantSel: []StatSelector{{Request: 0, Slot: 0}, {Request: 1, Slot: 0}},
		},
		{
			name:    "unknown stat suffix",
			names:   []string{"dataset_forces_median"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests, sel, _, err := ResolveStatNames(tt.names, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var statErr *errors.StatNameError
				if !errors.As(err, &statErr) {
					t.Fatalf("error = %v, want StatNameError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(requests) != len(tt.wantRequests) {
				t.Fatalf("requests = %v, want %v", requests, tt.wantRequests)
			}
			for i := range requests {
				if requests[i] != tt.wantRequests[i] {
					t.Errorf("request %d = %v, want %v", i, requests[i], tt.wantRequests[i])
				}
			}
			for i := range sel {
				if sel[i] != tt.wantSel[i] {
					t.Errorf("selector %d = %v, want %v", i, sel[i], tt.wantSel[i])
				}
			}
		})
	}
}

func TestResolveStatNamesKwargsForwarding(t *testing.T) {
	kwargs := map[string]map[string]interface{}{
		"atomic_energy": {"alpha": 0.1},
		"forces":        {"alpha": 0.2},
	}
	names := []string{
		"dataset_per_species_atomic_energy_mean",
		"dataset_forces_rms", // not per-species: kwargs must not forward
	}
	_, _, forwarded, err := ResolveStatNames(names, kwargs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forwarded) != 1 {
		t.Fatalf("forwarded = %v, want exactly one entry", forwarded)
	}
	kw, ok := forwarded["atomic_energyper_species_mean_std"]
	if !ok {
		t.Fatalf("forwarded kwargs missing per-species entry: %v", forwarded)
	}
	if kw["alpha"] != 0.1 {
		t.Errorf("forwarded alpha = %v, want 0.1", kw["alpha"])
	}
}

// fakeDataset returns canned statistics keyed by field+mode.
type fakeDataset struct {
	results map[string]StatResult
	calls   int

	gotFields []string
	gotModes  []string
	gotStride int
}

func (d *fakeDataset) Statistics(fields, modes []string, stride int, kwargs map[string]map[string]interface{}) ([]StatResult, error) {
	d.calls++
	d.gotFields = fields
	d.gotModes = modes
	d.gotStride = stride
	out := make([]StatResult, len(fields))
	for i := range fields {
		res, ok := d.results[fields[i]+"|"+modes[i]]
		if !ok {
			return nil, errors.Newf("no canned result for %s %s", fields[i], modes[i])
		}
		out[i] = res
	}
	return out, nil
}

func TestComputeStatistics(t *testing.T) {
	ds := &fakeDataset{results: map[string]StatResult{
		"total_energy|mean_std": {Primary: []float64{-3.5}, Secondary: []float64{1.25}},
		"forces|rms":            {Primary: []float64{2.0}},
	}}

	values, err := ComputeStatistics(ds, []string{
		"dataset_total_energy_std",
		"dataset_forces_rms",
		"dataset_total_energy_mean",
	}, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.calls != 1 {
		t.Fatalf("backend called %d times, want 1", ds.calls)
	}
	if ds.gotStride != 3 {
		t.Errorf("stride = %d, want 3", ds.gotStride)
	}
	if len(ds.gotFields) != 2 {
		t.Fatalf("backend got %d requests, want 2 after dedup", len(ds.gotFields))
	}
	want := [][]float64{{1.25}, {2.0}, {-3.5}}
	for i := range want {
		if math.Abs(values[i][0]-want[i][0]) > 1e-12 {
			t.Errorf("value %d = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestComputeStatisticsNoNames(t *testing.T) {
	ds := &fakeDataset{}
	values, err := ComputeStatistics(ds, nil, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values != nil {
		t.Errorf("values = %v, want nil", values)
	}
	if ds.calls != 0 {
		t.Errorf("backend called %d times, want 0", ds.calls)
	}
}
