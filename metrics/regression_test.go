package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRegressionMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1, 2, 3, 6})

	tests := []struct {
		name string
		fn   func(a, b *mat.VecDense) (float64, error)
		want float64
	}{
		{"MSE", MSE, 1.0},
		{"RMSE", RMSE, 1.0},
		{"MAE", MAE, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegressionMetricsErrors(t *testing.T) {
	short := mat.NewVecDense(2, []float64{1, 2})
	long := mat.NewVecDense(3, []float64{1, 2, 3})

	if _, err := MSE(short, long); err == nil {
		t.Error("MSE with mismatched lengths succeeded")
	}
	if _, err := MAE(short, long); err == nil {
		t.Error("MAE with mismatched lengths succeeded")
	}
}
