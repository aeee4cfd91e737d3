package classifier

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// linearData draws three standard normal columns; the label depends on the
// first two only, the third is noise.
func linearData(n int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b, c := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
		x.SetRow(i, []float64{a, b, c})
		if 2*a-b+0.3*rng.NormFloat64() > 0 {
			y[i] = 1
		}
	}
	return x, y
}

// xorData is not linearly separable: the label is the sign of a*b.
func xorData(n int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b, c := rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1
		x.SetRow(i, []float64{a, b, c})
		if a*b > 0 {
			y[i] = 1
		}
	}
	return x, y
}

func accuracy(probs, y []float64) float64 {
	correct := 0
	for i, p := range probs {
		pred := 0.0
		if p >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func TestLogisticLearnsLinearBoundary(t *testing.T) {
	x, y := linearData(400, 1)
	m, err := NewLogistic(DefaultLogisticConfig())
	require.NoError(t, err)
	require.NoError(t, m.Fit(x, y))

	probs, err := m.PredictProba(x)
	require.NoError(t, err)
	require.Len(t, probs, 400)
	for _, p := range probs {
		assert.True(t, p >= 0 && p <= 1)
	}
	assert.Greater(t, accuracy(probs, y), 0.9)

	w := m.Coefficients()
	require.Len(t, w, 3)
	assert.Greater(t, w[0], 0.0)
	assert.Less(t, w[1], 0.0)
	assert.Greater(t, math.Abs(w[0]), math.Abs(w[2]))
	assert.Greater(t, m.Iterations(), 0)
	assert.LessOrEqual(t, m.Iterations(), DefaultLogisticConfig().MaxIter)
}

func TestLogisticL2Shrinkage(t *testing.T) {
	x, y := linearData(300, 2)

	weak, err := NewLogistic(LogisticConfig{C: 10, Penalty: PenaltyL2})
	require.NoError(t, err)
	require.NoError(t, weak.Fit(x, y))

	strong, err := NewLogistic(LogisticConfig{C: 0.01, Penalty: PenaltyL2})
	require.NoError(t, err)
	require.NoError(t, strong.Fit(x, y))

	assert.Less(t, floats.Norm(strong.Coefficients(), 2), floats.Norm(weak.Coefficients(), 2))
}

func TestLogisticStrongL1ZeroesCoefficients(t *testing.T) {
	x, y := linearData(400, 3)
	m, err := NewLogistic(LogisticConfig{C: 0.001, Penalty: PenaltyL1})
	require.NoError(t, err)
	require.NoError(t, m.Fit(x, y))

	for _, w := range m.Coefficients() {
		assert.Equal(t, 0.0, w)
	}
	// only the intercept is left, at the prior log-odds
	prior := floats.Sum(y) / float64(len(y))
	assert.InDelta(t, logit(prior), m.Intercept(), 1e-6)
}

func TestLogisticRejectsBadConfig(t *testing.T) {
	_, err := NewLogistic(LogisticConfig{C: 0, Penalty: PenaltyL2})
	assert.ErrorIs(t, err, ErrInvalidHyperparams)

	_, err = NewLogistic(LogisticConfig{C: 1, Penalty: "elasticnet"})
	assert.ErrorIs(t, err, ErrInvalidHyperparams)

	m, err := NewLogistic(LogisticConfig{C: 1, Penalty: PenaltyL1})
	require.NoError(t, err)
	assert.Equal(t, DefaultLogisticConfig().MaxIter, m.Config().MaxIter)
	assert.Equal(t, DefaultLogisticConfig().Tol, m.Config().Tol)
}

func TestGBTLearnsInteraction(t *testing.T) {
	x, y := xorData(400, 4)
	cfg := DefaultGBTConfig()
	cfg.NEstimators = 60
	cfg.LearningRate = 0.3
	cfg.MaxDepth = 3
	m, err := NewGBT(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Fit(x, y))
	assert.Equal(t, 60, m.NumTrees())

	probs, err := m.PredictProba(x)
	require.NoError(t, err)
	assert.Greater(t, accuracy(probs, y), 0.9)

	imp := m.FeatureImportance()
	require.Len(t, imp, 3)
	assert.InDelta(t, 1.0, floats.Sum(imp), 1e-9)
	assert.Greater(t, imp[0], imp[2])
	assert.Greater(t, imp[1], imp[2])
}

func TestGBTSubsampleIsSeeded(t *testing.T) {
	x, y := linearData(200, 5)
	cfg := DefaultGBTConfig()
	cfg.NEstimators = 20
	cfg.Subsample = 0.7

	fit := func() []float64 {
		m, err := NewGBT(cfg)
		require.NoError(t, err)
		require.NoError(t, m.Fit(x, y))
		probs, err := m.PredictProba(x)
		require.NoError(t, err)
		return probs
	}
	assert.Equal(t, fit(), fit())
}

func TestGBTMissingValuesGoRight(t *testing.T) {
	// the positives sit at the top of the column, so NaN rows must score
	// like the positives
	n := 100
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i)
		if i >= 50 {
			y[i] = 1
		}
		x.Set(i, 0, v)
	}
	cfg := DefaultGBTConfig()
	cfg.NEstimators = 20
	m, err := NewGBT(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Fit(x, y))

	probs, err := m.PredictProba(mat.NewDense(2, 1, []float64{math.NaN(), 10}))
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.5)
	assert.Less(t, probs[1], 0.5)
}

func TestGBTRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GBTConfig)
	}{
		{"no trees", func(c *GBTConfig) { c.NEstimators = 0 }},
		{"zero rate", func(c *GBTConfig) { c.LearningRate = 0 }},
		{"zero depth", func(c *GBTConfig) { c.MaxDepth = 0 }},
		{"subsample above one", func(c *GBTConfig) { c.Subsample = 1.5 }},
		{"negative lambda", func(c *GBTConfig) { c.Lambda = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGBTConfig()
			tt.mutate(&cfg)
			_, err := NewGBT(cfg)
			assert.ErrorIs(t, err, ErrInvalidHyperparams)
		})
	}
}

func TestTrainingErrors(t *testing.T) {
	models := []Classifier{
		mustLogistic(t),
		mustGBT(t),
	}
	for _, m := range models {
		t.Run(m.Name(), func(t *testing.T) {
			_, err := m.PredictProba(mat.NewDense(1, 2, nil))
			assert.ErrorIs(t, err, ErrNotFitted)

			err = m.Fit(mat.NewDense(3, 2, nil), []float64{0, 1})
			assert.ErrorIs(t, err, ErrDimensionMismatch)

			err = m.Fit(mat.NewDense(2, 2, nil), []float64{0, 2})
			assert.ErrorIs(t, err, ErrInvalidLabel)

			require.NoError(t, m.Fit(mat.NewDense(2, 2, []float64{0, 1, 1, 0}), []float64{0, 1}))
			_, err = m.PredictProba(mat.NewDense(1, 3, nil))
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func mustLogistic(t *testing.T) *Logistic {
	m, err := NewLogistic(DefaultLogisticConfig())
	require.NoError(t, err)
	return m
}

func mustGBT(t *testing.T) *GBT {
	cfg := DefaultGBTConfig()
	cfg.NEstimators = 5
	m, err := NewGBT(cfg)
	require.NoError(t, err)
	return m
}

func TestFactoriesOverlayParams(t *testing.T) {
	c, err := LogisticFactory(DefaultLogisticConfig())(Params{"c": 0.5, "penalty": PenaltyL1})
	require.NoError(t, err)
	lr, ok := c.(*Logistic)
	require.True(t, ok)
	assert.Equal(t, 0.5, lr.Config().C)
	assert.Equal(t, PenaltyL1, lr.Config().Penalty)

	c, err = GBTFactory(DefaultGBTConfig())(Params{"n_estimators": 50, "max_depth": 4.0, "learning_rate": 0.05})
	require.NoError(t, err)
	gbt, ok := c.(*GBT)
	require.True(t, ok)
	assert.Equal(t, 50, gbt.Config().NEstimators)
	assert.Equal(t, 4, gbt.Config().MaxDepth)
	assert.Equal(t, 0.05, gbt.Config().LearningRate)
	assert.Equal(t, DefaultGBTConfig().Subsample, gbt.Config().Subsample)

	_, err = GBTFactory(DefaultGBTConfig())(Params{"max_depth": 2.5})
	assert.ErrorIs(t, err, ErrInvalidHyperparams)

	_, err = LogisticFactory(DefaultLogisticConfig())(Params{"penalty": 1})
	assert.ErrorIs(t, err, ErrInvalidHyperparams)
}

func TestParamsString(t *testing.T) {
	p := Params{"penalty": "l2", "c": 0.1}
	assert.Equal(t, "c=0.1 penalty=l2", p.String())
	assert.Equal(t, "", Params{}.String())
}
