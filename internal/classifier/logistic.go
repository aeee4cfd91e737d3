package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	PenaltyL1 = "l1"
	PenaltyL2 = "l2"
)

type LogisticConfig struct {
	// C is the inverse regularization strength, as in the usual convention
	C       float64
	Penalty string
	MaxIter int
	Tol     float64
}

func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		C:       1,
		Penalty: PenaltyL2,
		MaxIter: 300,
		Tol:     1e-5,
	}
}

// Logistic minimizes mean log-loss + penalty/(C*n) with accelerated
// proximal gradient descent (FISTA). The intercept is not penalized.
type Logistic struct {
	cfg       LogisticConfig
	weights   []float64
	intercept float64
	iters     int
	fitted    bool
}

func NewLogistic(cfg LogisticConfig) (*Logistic, error) {
	if cfg.C <= 0 {
		return nil, fmt.Errorf("%w: C must be positive, got %v", ErrInvalidHyperparams, cfg.C)
	}
	if cfg.Penalty != PenaltyL1 && cfg.Penalty != PenaltyL2 {
		return nil, fmt.Errorf("%w: unknown penalty %q", ErrInvalidHyperparams, cfg.Penalty)
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultLogisticConfig().MaxIter
	}
	if cfg.Tol <= 0 {
		cfg.Tol = DefaultLogisticConfig().Tol
	}
	return &Logistic{cfg: cfg}, nil
}

func (m *Logistic) Name() string {
	return "logistic_regression"
}

func (m *Logistic) Config() LogisticConfig {
	return m.cfg
}

func (m *Logistic) Fit(x mat.Matrix, y []float64) error {
	n, d, err := checkTraining(x, y)
	if err != nil {
		return err
	}
	nf := float64(n)
	reg := 1 / (m.cfg.C * nf)

	// step from a Lipschitz bound on the mean log-loss gradient:
	// lambda_max(X'X/n) <= mean squared row norm (+1 for the intercept)
	var sq float64
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		sq += floats.Dot(row, row)
	}
	lipschitz := 0.25 * (sq/nf + 1)
	if m.cfg.Penalty == PenaltyL2 {
		lipschitz += reg
	}
	step := 1 / lipschitz

	w := make([]float64, d)
	prevW := make([]float64, d)
	v := make([]float64, d)
	// start the intercept at the prior log-odds
	b := logit(floats.Sum(y) / nf)
	prevB, vb := b, b
	t := 1.0

	grad := make([]float64, d)
	resid := mat.NewVecDense(n, nil)
	gradVec := mat.NewVecDense(d, grad)

	iter := 0
	for iter = 1; iter <= m.cfg.MaxIter; iter++ {
		// gradient of the smooth loss at the extrapolated point
		resid.MulVec(x, mat.NewVecDense(d, v))
		var gb float64
		for i := 0; i < n; i++ {
			r := sigmoid(resid.AtVec(i)+vb) - y[i]
			resid.SetVec(i, r)
			gb += r
		}
		gradVec.MulVec(x.T(), resid)
		floats.Scale(1/nf, grad)
		gb /= nf
		if m.cfg.Penalty == PenaltyL2 {
			floats.AddScaled(grad, reg, v)
		}

		copy(prevW, w)
		prevB = b
		for j := range w {
			w[j] = v[j] - step*grad[j]
			if m.cfg.Penalty == PenaltyL1 {
				w[j] = softThreshold(w[j], step*reg)
			}
		}
		b = vb - step*gb

		nextT := (1 + math.Sqrt(1+4*t*t)) / 2
		momentum := (t - 1) / nextT
		for j := range v {
			v[j] = w[j] + momentum*(w[j]-prevW[j])
		}
		vb = b + momentum*(b-prevB)
		t = nextT

		delta := math.Abs(b - prevB)
		for j := range w {
			delta = math.Max(delta, math.Abs(w[j]-prevW[j]))
		}
		if delta < m.cfg.Tol {
			break
		}
	}

	m.weights = w
	m.intercept = b
	m.iters = min(iter, m.cfg.MaxIter)
	m.fitted = true
	return nil
}

func (m *Logistic) PredictProba(x mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	n, d := x.Dims()
	if d != len(m.weights) {
		return nil, fmt.Errorf("%w: model has %d features, input has %d", ErrDimensionMismatch, len(m.weights), d)
	}
	z := mat.NewVecDense(n, nil)
	z.MulVec(x, mat.NewVecDense(d, m.weights))
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = sigmoid(z.AtVec(i) + m.intercept)
	}
	return probs, nil
}

// Coefficients returns a copy of the fitted weights in column order.
func (m *Logistic) Coefficients() []float64 {
	return append([]float64(nil), m.weights...)
}

func (m *Logistic) Intercept() float64 {
	return m.intercept
}

// Iterations reports how many descent steps the last Fit used.
func (m *Logistic) Iterations() int {
	return m.iters
}

func softThreshold(v, lambda float64) float64 {
	switch {
	case v > lambda:
		return v - lambda
	case v < -lambda:
		return v + lambda
	default:
		return 0
	}
}
