package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// chi2inv95 is the 0.95 quantile of the chi-square distribution with 4
// degrees of freedom, used as the Mahalanobis gating threshold
const chi2inv95 = 9.4877

// KalmanState is the mean and covariance of a tracked box in the 8
// dimensional state space (x, y, a, h, vx, vy, va, vh)
type KalmanState struct {
	Mean *mat.VecDense
	Cov  *mat.Dense
}

// Xyah returns the position part of the state mean
func (s KalmanState) Xyah() Xyah {
	return Xyah{
		float32(s.Mean.AtVec(0)),
		float32(s.Mean.AtVec(1)),
		float32(s.Mean.AtVec(2)),
		float32(s.Mean.AtVec(3)),
	}
}

// KalmanFilter is a constant velocity Kalman filter over box center, aspect
// ratio and height
type KalmanFilter struct {
	stdWeightPosition float64
	stdWeightVelocity float64
	motionMat         *mat.Dense
	updateMat         *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float64) *KalmanFilter {

	ndim := 4
	dt := 1.0

	// identity with dt on the position/velocity coupling
	motionMat := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionMat.Set(i, i, 1)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, dt)
	}

	// observation picks the first four state elements
	updateMat := mat.NewDense(4, 8, nil)

	for i := 0; i < ndim; i++ {
		updateMat.Set(i, i, 1)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// diag returns a square matrix with the squares of std on its diagonal
func diag(std []float64) *mat.Dense {

	m := mat.NewDense(len(std), len(std), nil)

	for i, v := range std {
		m.Set(i, i, v*v)
	}

	return m
}

// Initiate creates a state from an unassociated measurement, velocities
// start at zero
func (kf *KalmanFilter) Initiate(measurement Xyah) KalmanState {

	mean := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		mean.SetVec(i, float64(measurement[i]))
	}

	h := float64(measurement[3])
	pos := 2 * kf.stdWeightPosition * h
	vel := 10 * kf.stdWeightVelocity * h

	return KalmanState{
		Mean: mean,
		Cov:  diag([]float64{pos, pos, 1e-2, pos, vel, vel, 1e-5, vel}),
	}
}

// Predict runs the prediction step, moving the state one frame forward
func (kf *KalmanFilter) Predict(s *KalmanState) {

	h := s.Mean.AtVec(3)
	pos := kf.stdWeightPosition * h
	vel := kf.stdWeightVelocity * h
	motionCov := diag([]float64{pos, pos, 1e-2, pos, vel, vel, 1e-5, vel})

	mean := mat.NewVecDense(8, nil)
	mean.MulVec(kf.motionMat, s.Mean)

	var tmp, cov mat.Dense
	tmp.Mul(kf.motionMat, s.Cov)
	cov.Mul(&tmp, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	s.Mean = mean
	s.Cov = &cov
}

// project maps the state into measurement space
func (kf *KalmanFilter) project(s KalmanState) (*mat.VecDense, *mat.SymDense) {

	h := s.Mean.AtVec(3)
	std := []float64{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-1,
		kf.stdWeightPosition * h,
	}

	mean := mat.NewVecDense(4, nil)
	mean.MulVec(kf.updateMat, s.Mean)

	var tmp, cov mat.Dense
	tmp.Mul(kf.updateMat, s.Cov)
	cov.Mul(&tmp, kf.updateMat.T())

	projected := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			projected.SetSym(i, j, cov.At(i, j))
		}
		projected.SetSym(i, i, projected.At(i, i)+std[i]*std[i])
	}

	return mean, projected
}

// Update runs the correction step with an associated measurement
func (kf *KalmanFilter) Update(s *KalmanState, measurement Xyah) error {

	projMean, projCov := kf.project(*s)

	var chol mat.Cholesky

	if ok := chol.Factorize(projCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// gainT is the transposed Kalman gain, S^-1 * H * P
	var b, gainT mat.Dense
	b.Mul(s.Cov, kf.updateMat.T())

	if err := chol.SolveTo(&gainT, b.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(4, nil)

	for i := 0; i < 4; i++ {
		innovation.SetVec(i, float64(measurement[i])-projMean.AtVec(i))
	}

	var delta mat.VecDense
	delta.MulVec(gainT.T(), innovation)

	mean := mat.NewVecDense(8, nil)
	mean.AddVec(s.Mean, &delta)

	var tmp, correction, cov mat.Dense
	tmp.Mul(gainT.T(), projCov)
	correction.Mul(&tmp, &gainT)
	cov.Sub(s.Cov, &correction)

	s.Mean = mean
	s.Cov = &cov

	return nil
}

// GatingDistance returns the squared Mahalanobis distance between the state
// and each measurement
func (kf *KalmanFilter) GatingDistance(s KalmanState, measurements []Xyah) ([]float64, error) {

	projMean, projCov := kf.project(s)

	var chol mat.Cholesky

	if ok := chol.Factorize(projCov); !ok {
		return nil, errors.New("failed to factorize projected covariance")
	}

	dists := make([]float64, len(measurements))

	for k, m := range measurements {

		d := mat.NewVecDense(4, nil)

		for i := 0; i < 4; i++ {
			d.SetVec(i, float64(m[i])-projMean.AtVec(i))
		}

		var x mat.VecDense

		if err := chol.SolveVecTo(&x, d); err != nil {
			return nil, fmt.Errorf("failed to solve gating distance: %w", err)
		}

		dists[k] = mat.Dot(d, &x)
	}

	return dists, nil
}
