package tracker

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// floatsEqual compares a state mean against expected values
func floatsEqual(a *mat.VecDense, b []float64, epsilon float64) bool {
	if a.Len() != len(b) {
		return false
	}
	for i := range b {
		if diff := a.AtVec(i) - b[i]; diff > epsilon || diff < -epsilon {
			return false
		}
	}
	return true
}

// matricesEqual compare matrices
func matricesEqual(a, b mat.Matrix, epsilon float64) bool {
	r1, c1 := a.Dims()
	r2, c2 := b.Dims()

	if r1 != r2 || c1 != c2 {
		return false
	}

	for i := 0; i < r1; i++ {
		for j := 0; j < c1; j++ {
			if diff := a.At(i, j) - b.At(i, j); diff > epsilon || diff < -epsilon {
				return false
			}
		}
	}

	return true
}

// TestKalmanFilter tests for expected output from the Kalman Filter.  Input
// and output values are derived from the reference C++ implementation
func TestKalmanFilter(t *testing.T) {
	kf := NewKalmanFilter(1.0/20, 1.0/160)

	state := kf.Initiate(Xyah{100.0, 200.0, 1.0, 50.0})

	expectedMeanInit := []float64{100.0, 200.0, 1.0, 50.0, 0.0, 0.0, 0.0, 0.0}

	expectedCovarianceInit := mat.NewDense(8, 8, []float64{
		25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 9.999999747378752e-05, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 25.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 9.999999439624929e-11, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 9.765625,
	})

	if !floatsEqual(state.Mean, expectedMeanInit, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanInit, state.Mean.RawVector().Data)
	}

	if !matricesEqual(state.Cov, expectedCovarianceInit, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovarianceInit, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(state.Cov, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	kf.Predict(&state)

	expectedMeanPredict := []float64{100.0, 200.0, 1.0, 50.0, 0.0, 0.0, 0.0, 0.0}
	expectedCovariancePredict := mat.NewDense(8, 8, []float64{
		41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.00020000009494756943, 0.0, 0.0, 0.0, 9.999999439624929e-11, 0.0,
		0.0, 0.0, 0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625,
		9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0, 0.0,
		0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0,
		0.0, 0.0, 9.999999439624929e-11, 0.0, 0.0, 0.0, 1.9999998879249858e-10, 0.0,
		0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125,
	})

	if !floatsEqual(state.Mean, expectedMeanPredict, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanPredict, state.Mean.RawVector().Data)
	}

	if !matricesEqual(state.Cov, expectedCovariancePredict, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovariancePredict, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(state.Cov, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	err := kf.Update(&state, Xyah{105.0, 205.0, 1.1, 55.0})

	if err != nil {
		t.Errorf("failed to update: %v", err)
	}

	expectedMeanUpdate := []float64{104.338844, 204.338837, 1.001961, 54.338844, 1.033058, 1.033058, 0.0, 1.033058}
	expectedCovarianceUpdate := mat.NewDense(8, 8, []float64{
		5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0, 0.0,
		0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0,
		0.0, 0.0, 0.00019607852290531608, 0.0, 0.0, 0.0, 9.803920941585902e-11, 0.0,
		0.0, 0.0, 0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873,
		1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0, 0.0,
		0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0,
		0.0, 0.0, 9.803920941585902e-11, 0.0, 0.0, 0.0, 1.9999998781210662e-10, 0.0,
		0.0, 0.0, 0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521,
	})

	if !floatsEqual(state.Mean, expectedMeanUpdate, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanUpdate, state.Mean.RawVector().Data)
	}

	if !matricesEqual(state.Cov, expectedCovarianceUpdate, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovarianceUpdate, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(state.Cov, mat.Prefix(""), mat.Excerpt(0)),
		)
	}
}

func TestGatingDistance(t *testing.T) {

	kf := NewKalmanFilter(1.0/20, 1.0/160)
	state := kf.Initiate(Xyah{100.0, 200.0, 1.0, 50.0})
	kf.Predict(&state)

	dists, err := kf.GatingDistance(state, []Xyah{
		{100.0, 200.0, 1.0, 50.0},
		{105.0, 205.0, 1.1, 55.0},
		{400.0, 200.0, 1.0, 50.0},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dists[0] > 1e-9 {
		t.Errorf("expected zero distance for measurement at the mean, got %v", dists[0])
	}

	if dists[1] >= chi2inv95 {
		t.Errorf("expected nearby measurement inside gate, got %v", dists[1])
	}

	if dists[2] <= chi2inv95 {
		t.Errorf("expected distant measurement outside gate, got %v", dists[2])
	}
}
