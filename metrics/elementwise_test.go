package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSquaredError(t *testing.T) {
	pred := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	ref := mat.NewDense(2, 2, []float64{1, 0, 6, 4})
	got := SquaredError(pred, ref)
	want := []float64{0, 4, 9, 0}
	r, c := got.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", r, c)
	}
	for i, w := range want {
		if v := got.At(i/2, i%2); math.Abs(v-w) > 1e-12 {
			t.Errorf("entry %d = %v, want %v", i, v, w)
		}
	}
}

func TestAbsoluteError(t *testing.T) {
	pred := mat.NewDense(1, 3, []float64{1, -2, 3})
	ref := mat.NewDense(1, 3, []float64{2, 2, 3})
	got := AbsoluteError(pred, ref)
	want := []float64{1, 4, 0}
	for j, w := range want {
		if v := got.At(0, j); math.Abs(v-w) > 1e-12 {
			t.Errorf("entry %d = %v, want %v", j, v, w)
		}
	}
}

func TestHuberError(t *testing.T) {
	huber := HuberError(1.0)
	tests := []struct {
		name string
		pred float64
		ref  float64
		want float64
	}{
		{"within delta is quadratic", 0.5, 0, 0.125},
		{"at delta", 1.0, 0, 0.5},
		{"beyond delta is linear", 3.0, 0, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := huber(mat.NewDense(1, 1, []float64{tt.pred}), mat.NewDense(1, 1, []float64{tt.ref}))
			if v := got.At(0, 0); math.Abs(v-tt.want) > 1e-12 {
				t.Errorf("huber(%v, %v) = %v, want %v", tt.pred, tt.ref, v, tt.want)
			}
		})
	}
}

func TestLookupElementwise(t *testing.T) {
	tests := []struct {
		name    string
		lossKey string
		wantErr bool
	}{
		{"mse", "MSELoss", false},
		{"l1", "L1Loss", false},
		{"mae alias", "MAELoss", false},
		{"huber", "HuberLoss", false},
		{"case insensitive", "mseloss", false},
		{"unknown", "HingeLoss", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := LookupElementwise(tt.lossKey, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fn == nil {
				t.Fatal("nil elementwise function")
			}
		})
	}
}

func TestIsSquaredError(t *testing.T) {
	if !IsSquaredError("MSELoss") || !IsSquaredError("mseloss") {
		t.Error("MSELoss should be recognized as squared error")
	}
	if IsSquaredError("L1Loss") || IsSquaredError("HuberLoss") {
		t.Error("non-MSE functions must not be treated as squared error")
	}
}

func TestMSEAndMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	mse, err := MSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mse-0.25) > 1e-12 {
		t.Errorf("MSE = %v, want 0.25", mse)
	}

	mae, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mae-0.5) > 1e-12 {
		t.Errorf("MAE = %v, want 0.5", mae)
	}

	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rmse-0.5) > 1e-12 {
		t.Errorf("RMSE = %v, want 0.5", rmse)
	}

	if _, err := MSE(mat.NewVecDense(2, nil), mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected dimension error")
	}
}
