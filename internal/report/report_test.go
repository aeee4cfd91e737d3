package report

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/reviewclf/internal/classifier"
	"github.com/chrisdamba/reviewclf/internal/eda"
	"github.com/chrisdamba/reviewclf/internal/evaluation"
	"github.com/chrisdamba/reviewclf/internal/features"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/output"
	"github.com/chrisdamba/reviewclf/internal/tuning"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func testSummary(t *testing.T, probs []float64) evaluation.Summary {
	y := []float64{1, 0, 1, 0, 0, 0, 1, 0}
	s, err := evaluation.Evaluate(y, probs, []float64{0.5, 0.2})
	require.NoError(t, err)
	return s
}

func testReport(t *testing.T) *Report {
	intercept := -1.2
	records := []models.Record{
		{Label: models.LabelNegative, DeliveryDays: 20},
		{Label: models.LabelNegative, DeliveryDays: 25},
		{Label: models.LabelNegative, DeliveryDays: math.NaN()},
		{Label: models.LabelPositive, DeliveryDays: 6},
		{Label: models.LabelPositive, DeliveryDays: 9},
		{Label: models.LabelPositive, DeliveryDays: 11},
	}
	reviews := []models.Review{{Score: 1}, {Score: 2}, {Score: 5}, {Score: 4}, {Score: 3}}

	return &Report{
		RunID:      "run-1",
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		DataDir:    "data",
		Dataset:    models.DatasetCounts{Orders: 10, Reviews: 9},
		Build:      features.BuildStats{Orders: 10, ReviewedOrders: 9, Kept: 6, Negatives: 3, Positives: 3, NeutralDropped: 1},
		EDA:        eda.Analyze(reviews, records, 5),
		TrainRows:  4,
		TestRows:   2,
		CVFolds:    5,
		Workers:    12,
		Features:   []string{"delivery_days", "price"},
		Medians:    map[string]float64{"delivery_days": 10},
		Thresholds: []float64{0.5, 0.2},
		Models: []ModelReport{
			{
				Name: "logistic_regression",
				Search: &tuning.Result{
					Model:   "logistic_regression",
					Scoring: models.ScoringROCAUC,
					Folds:   5,
					Best: tuning.Candidate{
						Params:    classifier.Params{"c": 0.1, "penalty": "l2"},
						MeanScore: 0.71,
						StdScore:  0.02,
						Rank:      1,
					},
				},
				Test:         testSummary(t, []float64{0.9, 0.1, 0.6, 0.3, 0.2, 0.4, 0.35, 0.1}),
				Intercept:    &intercept,
				Coefficients: Weights([]string{"delivery_days", "price"}, []float64{0.3, -0.8}),
			},
			{
				Name:       "gradient_boosting",
				Test:       testSummary(t, []float64{0.9, 0.1, 0.8, 0.3, 0.2, 0.1, 0.7, 0.1}),
				Importance: Weights([]string{"delivery_days", "price"}, []float64{0.75, 0.25}),
			},
		},
		DeliveryDays: SplitByClass(records, func(r *models.Record) float64 { return r.DeliveryDays }),
	}
}

func TestWeightsSortByMagnitude(t *testing.T) {
	ws := Weights([]string{"a", "b", "c"}, []float64{0.1, -2, 1})
	assert.Equal(t, []Weight{{"b", -2}, {"c", 1}, {"a", 0.1}}, ws)

	// missing names stay blank
	ws = Weights(nil, []float64{1})
	assert.Equal(t, "", ws[0].Feature)
}

func TestSplitByClass(t *testing.T) {
	r := testReport(t)
	assert.Equal(t, []float64{20, 25}, r.DeliveryDays.Negative)
	assert.Equal(t, []float64{6, 9, 11}, r.DeliveryDays.Positive)
}

func TestBestAndSummary(t *testing.T) {
	r := testReport(t)
	best, ok := r.Best()
	require.True(t, ok)
	assert.Equal(t, "gradient_boosting", best.Name)
	assert.Equal(t, "gradient_boosting", r.BestModel().Name)

	s := r.Summary()
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 6, s.Rows)
	assert.Equal(t, 3, s.Negatives)
	require.Len(t, s.Models, 2)

	lr := s.Models[0]
	assert.Equal(t, 0.71, lr.CVScore)
	assert.Equal(t, models.ScoringROCAUC, lr.Scoring)
	assert.Equal(t, 0.1, lr.Params["c"])
	assert.Equal(t, 0.5, lr.Threshold)

	gbt := s.Models[1]
	assert.Nil(t, gbt.Params)
	assert.Equal(t, 1.0, gbt.ROCAUC)

	empty := &Report{}
	_, ok = empty.Best()
	assert.False(t, ok)
	assert.Nil(t, empty.BestModel())
}

func TestMarkdown(t *testing.T) {
	r := testReport(t)
	r.Plots = []string{"coefficients.png", "importance.png"}
	md, err := r.Markdown()
	require.NoError(t, err)
	text := string(md)

	assert.Contains(t, text, "# Review sentiment report")
	assert.Contains(t, text, "Run `run-1` created 2024-03-01 12:00:00 UTC")
	assert.Contains(t, text, "| orders | 10 |")
	assert.Contains(t, text, "**6** orders, of which 3 are negative (50.0%)")
	assert.Contains(t, text, "### logistic regression")
	assert.Contains(t, text, "Best parameters `c=0.1 penalty=l2` scored 0.710 ± 0.020 roc_auc over 5 folds")
	assert.Contains(t, text, "| 0.20 |")
	assert.Contains(t, text, "| price | -0.800 |")
	assert.Contains(t, text, "| delivery_days | 0.750 |")
	assert.Contains(t, text, "![Feature importance](importance.png)")
	assert.Contains(t, text, "The best held-out model is gradient boosting with ROC-AUC 1.000.")
	assert.Contains(t, text, "### payment type")
	assert.Contains(t, text, "Neutral scores of 3 removed 1 orders")
	assert.NotContains(t, text, "missing or out-of-range score")
	// an all-missing column renders as n/a rather than NaN
	assert.NotContains(t, text, "NaN")

	r.Build.InvalidScores = 2
	md, err = r.Markdown()
	require.NoError(t, err)
	assert.Contains(t, string(md), "2 orders had a missing or out-of-range score and were skipped.")
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "0.123", formatFixed(0.12345, 3))
	assert.Equal(t, "n/a", formatFixed(math.NaN(), 2))
	assert.Equal(t, "n/a", formatFixed(math.Inf(1), 2))
}

func TestPlotsArePNG(t *testing.T) {
	r := testReport(t)

	data, err := ScorePlot(r.EDA.ScoreCounts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	data, err = ClassHistogram("delivery", "days", r.DeliveryDays, 5)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	data, err = CurvePlot("roc", "fpr", "tpr", ROCCurves(r.Models), rocBaseline())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	data, err = WeightPlot("coefficients", r.Models[0].Coefficients)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	curves := PRCurves(r.Models)
	require.Len(t, curves, 2)
	assert.Equal(t, len(r.Models[0].Test.PR), len(curves[0].Points))
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	store, err := output.NewLocalStore(dir)
	require.NoError(t, err)

	r := testReport(t)
	written, err := Render(context.Background(), r, store)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"score_distribution.png",
		"delivery_days.png",
		"roc.png",
		"pr.png",
		"coefficients.png",
		"importance.png",
		MarkdownFile,
		ResultsFile,
	}, written)
	assert.Equal(t, written[:6], r.Plots)
	for _, name := range written {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	raw, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Len(t, decoded["models"], 2)
	assert.Len(t, decoded["plots"], 6)
}

func TestRenderStopsOnCancel(t *testing.T) {
	store, err := output.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	written, err := Render(ctx, testReport(t), store)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, written)
}
