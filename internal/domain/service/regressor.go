package service

// Regressor maps a feature vector to a scalar target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}
