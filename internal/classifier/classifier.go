// Package classifier implements the two model families compared in the
// report: L1/L2 regularized logistic regression and gradient-boosted trees.
// Both follow the familiar Fit / PredictProba shape over gonum matrices.
package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFitted          = errors.New("model is not fitted")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrInvalidLabel       = errors.New("labels must be 0 or 1")
	ErrInvalidHyperparams = errors.New("invalid hyperparameters")
)

// Classifier is a binary probabilistic model. PredictProba returns
// P(y = 1) per row.
type Classifier interface {
	Name() string
	Fit(x mat.Matrix, y []float64) error
	PredictProba(x mat.Matrix) ([]float64, error)
}

func checkTraining(x mat.Matrix, y []float64) (rows, cols int, err error) {
	rows, cols = x.Dims()
	if rows != len(y) {
		return 0, 0, fmt.Errorf("%w: %d rows but %d labels", ErrDimensionMismatch, rows, len(y))
	}
	if rows == 0 {
		return 0, 0, fmt.Errorf("%w: empty training set", ErrDimensionMismatch)
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return 0, 0, ErrInvalidLabel
		}
	}
	return rows, cols, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func logit(p float64) float64 {
	const eps = 1e-12
	p = math.Max(eps, math.Min(1-eps, p))
	return math.Log(p / (1 - p))
}
