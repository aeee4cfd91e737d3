// Package report assembles the outcome of a run into a markdown document,
// a JSON results file and a set of PNG plots.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/reviewclf/internal/eda"
	"github.com/chrisdamba/reviewclf/internal/evaluation"
	"github.com/chrisdamba/reviewclf/internal/features"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/tuning"
	"github.com/goccy/go-json"
)

// Weight pairs an encoded feature with a coefficient or an importance.
type Weight struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

type ModelReport struct {
	Name         string             `json:"name"`
	Search       *tuning.Result     `json:"search"`
	Test         evaluation.Summary `json:"test"`
	Intercept    *float64           `json:"intercept,omitempty"`
	Coefficients []Weight           `json:"coefficients,omitempty"`
	Importance   []Weight           `json:"importance,omitempty"`
}

// ClassValues holds one numeric feature split by label, for plotting.
type ClassValues struct {
	Negative []float64
	Positive []float64
}

type Report struct {
	RunID      string               `json:"run_id"`
	CreatedAt  time.Time            `json:"created_at"`
	DataDir    string               `json:"data_dir"`
	Dataset    models.DatasetCounts `json:"dataset"`
	Build      features.BuildStats  `json:"build"`
	EDA        eda.Summary          `json:"eda"`
	TrainRows  int                  `json:"train_rows"`
	TestRows   int                  `json:"test_rows"`
	CVFolds    int                  `json:"cv_folds"`
	Workers    int                  `json:"workers"`
	Features   []string             `json:"features"`
	Medians    map[string]float64   `json:"medians"`
	Thresholds []float64            `json:"thresholds"`
	Models     []ModelReport        `json:"models"`
	Plots      []string             `json:"plots"`

	DeliveryDays ClassValues `json:"-"`
}

// Weights pairs names with values, sorted by absolute value, largest first.
func Weights(names []string, values []float64) []Weight {
	out := make([]Weight, 0, len(values))
	for i, v := range values {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		out = append(out, Weight{Feature: name, Value: v})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return math.Abs(out[a].Value) > math.Abs(out[b].Value)
	})
	return out
}

// SplitByClass collects the finite values of one feature per label.
func SplitByClass(records []models.Record, get func(*models.Record) float64) ClassValues {
	var cv ClassValues
	for i := range records {
		v := get(&records[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if records[i].Label == models.LabelNegative {
			cv.Negative = append(cv.Negative, v)
		} else {
			cv.Positive = append(cv.Positive, v)
		}
	}
	return cv
}

// Best is the model with the highest held-out ROC-AUC.
func (r *Report) Best() (ModelReport, bool) {
	if len(r.Models) == 0 {
		return ModelReport{}, false
	}
	best := r.Models[0]
	for _, m := range r.Models[1:] {
		if m.Test.ROCAUC > best.Test.ROCAUC {
			best = m
		}
	}
	return best, true
}

// Summary condenses the report for publication, reporting the confusion
// metrics at the first configured threshold.
func (r *Report) Summary() models.RunSummary {
	s := models.RunSummary{
		RunID:     r.RunID,
		CreatedAt: r.CreatedAt,
		DataDir:   r.DataDir,
		Rows:      r.Build.Kept,
		Negatives: r.Build.Negatives,
		TrainRows: r.TrainRows,
		TestRows:  r.TestRows,
	}
	for _, m := range r.Models {
		run := models.ModelRun{
			Model:  m.Name,
			ROCAUC: m.Test.ROCAUC,
			PRAUC:  m.Test.PRAUC,
		}
		if m.Search != nil {
			run.Params = map[string]any(m.Search.Best.Params)
			run.Scoring = m.Search.Scoring
			run.CVScore = m.Search.Best.MeanScore
			run.CVStd = m.Search.Best.StdScore
		}
		if len(m.Test.Thresholds) > 0 {
			t := m.Test.Thresholds[0]
			run.Threshold = t.Threshold
			run.Accuracy = t.Accuracy
			run.Precision = t.Precision
			run.Recall = t.Recall
			run.F1 = t.F1
		}
		s.Models = append(s.Models, run)
	}
	return s
}

func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
