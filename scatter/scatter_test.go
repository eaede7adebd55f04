package scatter

import (
	"math"
	"testing"
)

func TestSumByGroup(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		labels  []int
		n       int
		want    []float64
		wantErr bool
	}{
		{
			name:   "basic grouping",
			values: []float64{1, 2, 3, 4},
			labels: []int{0, 1, 1, 2},
			n:      3,
			want:   []float64{1, 5, 4},
		},
		{
			name:   "empty slot stays zero",
			values: []float64{1, 2},
			labels: []int{0, 2},
			n:      3,
			want:   []float64{1, 0, 2},
		},
		{
			name:    "label out of range",
			values:  []float64{1},
			labels:  []int{3},
			n:       2,
			wantErr: true,
		},
		{
			name:    "length mismatch",
			values:  []float64{1, 2},
			labels:  []int{0},
			n:       1,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SumByGroup(tt.values, tt.labels, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("slot %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMeanByGroup(t *testing.T) {
	got, err := MeanByGroup([]float64{2, 4, 9}, []int{0, 0, 1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{3, 9}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("slot %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenseLabels(t *testing.T) {
	tests := []struct {
		name      string
		labels    []int
		wantDense []int
		wantN     int
	}{
		{
			name:      "non-contiguous labels",
			labels:    []int{0, 5, 5, 9},
			wantDense: []int{0, 1, 1, 2},
			wantN:     3,
		},
		{
			name:      "already dense",
			labels:    []int{1, 0, 1},
			wantDense: []int{1, 0, 1},
			wantN:     2,
		},
		{
			name:      "single label",
			labels:    []int{7, 7},
			wantDense: []int{0, 0},
			wantN:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dense, n := DenseLabels(tt.labels)
			if n != tt.wantN {
				t.Fatalf("n = %d, want %d", n, tt.wantN)
			}
			for i := range tt.wantDense {
				if dense[i] != tt.wantDense[i] {
					t.Errorf("dense[%d] = %d, want %d", i, dense[i], tt.wantDense[i])
				}
			}
		})
	}
}
