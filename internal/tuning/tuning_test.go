package tuning

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrisdamba/reviewclf/internal/classifier"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// echoModel scores each row by its first column scaled by skill, so a
// skill of zero ties every row and a positive skill ranks perfectly when
// the first column is the label.
type echoModel struct {
	skill float64
	fits  *int64
	gauge *fitGauge
}

// fitGauge tracks how many fits run at the same time.
type fitGauge struct {
	inFlight int64
	peak     int64
}

func (g *fitGauge) enter() {
	cur := atomic.AddInt64(&g.inFlight, 1)
	for {
		peak := atomic.LoadInt64(&g.peak)
		if cur <= peak || atomic.CompareAndSwapInt64(&g.peak, peak, cur) {
			return
		}
	}
}

func (g *fitGauge) leave() { atomic.AddInt64(&g.inFlight, -1) }

func (m *echoModel) Name() string { return "echo" }

func (m *echoModel) Fit(x mat.Matrix, y []float64) error {
	if m.fits != nil {
		atomic.AddInt64(m.fits, 1)
	}
	if m.gauge != nil {
		m.gauge.enter()
		defer m.gauge.leave()
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (m *echoModel) PredictProba(x mat.Matrix) ([]float64, error) {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 + 0.4*m.skill*(x.At(i, 0)-0.5)
	}
	return out, nil
}

func echoFactory(fits *int64) classifier.Factory {
	return func(p classifier.Params) (classifier.Classifier, error) {
		skill, ok := p["skill"].(float64)
		if !ok {
			return nil, errors.New("skill missing")
		}
		return &echoModel{skill: skill, fits: fits}, nil
	}
}

func echoFolds(k int) []FoldData {
	labels := []float64{0, 1, 0, 1, 1, 0}
	x := mat.NewDense(len(labels), 1, append([]float64(nil), labels...))
	folds := make([]FoldData, k)
	for i := range folds {
		folds[i] = FoldData{XTrain: x, YTrain: labels, XVal: x, YVal: labels}
	}
	return folds
}

func TestGridExpand(t *testing.T) {
	g := Grid{
		{Name: "c", Values: Floats(0.1, 1)},
		{Name: "penalty", Values: Strings("l1", "l2")},
	}
	assert.Equal(t, 4, g.Size())
	combos := g.Expand()
	require.Len(t, combos, 4)
	assert.Equal(t, "c=0.1 penalty=l1", combos[0].String())
	assert.Equal(t, "c=0.1 penalty=l2", combos[1].String())
	assert.Equal(t, "c=1 penalty=l1", combos[2].String())
	assert.Equal(t, "c=1 penalty=l2", combos[3].String())

	assert.Equal(t, 0, Grid{}.Size())
	assert.Nil(t, Grid{}.Expand())
	assert.Equal(t, 0, Grid{{Name: "c"}}.Size())
}

func TestGridSample(t *testing.T) {
	g := Grid{
		{Name: "n_estimators", Values: Ints(50, 100, 200)},
		{Name: "max_depth", Values: Ints(2, 3, 4)},
	}
	sample := g.Sample(4, 7)
	require.Len(t, sample, 4)
	seen := make(map[string]bool)
	for _, p := range sample {
		assert.False(t, seen[p.String()], "duplicate %s", p)
		seen[p.String()] = true
	}
	assert.Equal(t, sample, g.Sample(4, 7))
	assert.Len(t, g.Sample(20, 7), 9)
}

func TestSearchRanksCandidates(t *testing.T) {
	var fits int64
	s := &Search{
		Name:    "echo",
		Factory: echoFactory(&fits),
		Grid:    Grid{{Name: "skill", Values: Floats(0, 1, -1)}},
		Scoring: models.ScoringROCAUC,
		Workers: 2,
	}
	result, err := s.Run(context.Background(), echoFolds(3))
	require.NoError(t, err)

	assert.Equal(t, int64(9), fits)
	assert.Equal(t, 3, result.Folds)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, 1.0, result.Best.Params["skill"])
	assert.InDelta(t, 1.0, result.Best.MeanScore, 1e-12)
	assert.Equal(t, 0.0, result.Best.StdScore)

	ranks := []int{result.Candidates[0].Rank, result.Candidates[1].Rank, result.Candidates[2].Rank}
	assert.Equal(t, []int{2, 1, 3}, ranks)
	assert.InDelta(t, 0.5, result.Candidates[0].MeanScore, 1e-12)
	assert.InDelta(t, 0.0, result.Candidates[2].MeanScore, 1e-12)
	assert.Len(t, result.Candidates[0].FoldScores, 3)
}

func TestSearchBoundsConcurrentFits(t *testing.T) {
	gauge := &fitGauge{}
	var fits int64
	s := &Search{
		Name: "echo",
		Factory: func(p classifier.Params) (classifier.Classifier, error) {
			return &echoModel{skill: p["skill"].(float64), fits: &fits, gauge: gauge}, nil
		},
		Grid:    Grid{{Name: "skill", Values: Floats(0, 0.5, 1, -1)}},
		Scoring: models.ScoringROCAUC,
		Workers: 3,
	}
	_, err := s.Run(context.Background(), echoFolds(5))
	require.NoError(t, err)

	assert.Equal(t, int64(20), fits)
	assert.LessOrEqual(t, atomic.LoadInt64(&gauge.peak), int64(3))
	assert.Greater(t, atomic.LoadInt64(&gauge.peak), int64(1))
	assert.Zero(t, atomic.LoadInt64(&gauge.inFlight))
}

func TestSearchRandomMode(t *testing.T) {
	var fits int64
	s := &Search{
		Name:    "echo",
		Factory: echoFactory(&fits),
		Grid:    Grid{{Name: "skill", Values: Floats(0, 0.5, 1, -1)}},
		Scoring: models.ScoringROCAUC,
		Mode:    models.SearchModeRandom,
		NIter:   2,
		Seed:    3,
	}
	result, err := s.Run(context.Background(), echoFolds(2))
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 2)
	assert.Equal(t, int64(4), fits)
}

func TestSearchErrors(t *testing.T) {
	s := &Search{Name: "echo", Factory: echoFactory(nil), Scoring: models.ScoringROCAUC}
	_, err := s.Run(context.Background(), echoFolds(2))
	assert.ErrorIs(t, err, ErrEmptyGrid)

	s.Grid = Grid{{Name: "skill", Values: Floats(1)}}
	_, err = s.Run(context.Background(), nil)
	assert.Error(t, err)

	// a factory failure aborts the search
	s.Grid = Grid{{Name: "skill", Values: Strings("high")}}
	_, err = s.Run(context.Background(), echoFolds(2))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Grid = Grid{{Name: "skill", Values: Floats(1)}}
	_, err = s.Run(ctx, echoFolds(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefit(t *testing.T) {
	var fits int64
	model, err := Refit(echoFactory(&fits), classifier.Params{"skill": 1.0}, mat.NewDense(1, 1, nil), []float64{0})
	require.NoError(t, err)
	assert.Equal(t, "echo", model.Name())
	assert.Equal(t, int64(1), fits)

	_, err = Refit(echoFactory(nil), classifier.Params{}, mat.NewDense(1, 1, nil), []float64{0})
	assert.Error(t, err)
}

func TestPrepareFoldsUsesTrainingStatistics(t *testing.T) {
	records := make([]models.Record, 6)
	labels := make([]float64, 6)
	for i := range records {
		r := &records[i]
		*r = models.Record{OrderID: string(rune('a' + i))}
		r.ApprovalHours = float64(i)
		labels[i] = float64(i % 2)
	}
	// the last row is missing and only ever validated
	records[5].ApprovalHours = math.NaN()

	folds := []preprocess.Fold{{Train: []int{0, 1, 2, 3}, Validation: []int{4, 5}}}
	data, err := PrepareFolds(records, labels, folds, preprocess.Options{})
	require.NoError(t, err)
	require.Len(t, data, 1)

	d := data[0]
	rows, _ := d.XTrain.Dims()
	assert.Equal(t, 4, rows)
	rows, _ = d.XVal.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, []float64{0, 1, 0, 1}, d.YTrain)
	assert.Equal(t, []float64{0, 1}, d.YVal)

	// approval_hours is the first column; the missing row gets the
	// training median of 0,1,2,3
	assert.Equal(t, 4.0, d.XVal.At(0, 0))
	assert.Equal(t, 1.5, d.XVal.At(1, 0))
}
