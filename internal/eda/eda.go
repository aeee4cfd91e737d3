// Package eda summarises the raw and engineered tables before modelling.
package eda

import (
	"math"
	"sort"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/preprocess"
	"gonum.org/v1/gonum/stat"
)

type NumericSummary struct {
	Count   int           `json:"count"`
	Missing int           `json:"missing"`
	Mean    models.Number `json:"mean"`
	Std     models.Number `json:"std"`
	Min     models.Number `json:"min"`
	P25     models.Number `json:"p25"`
	Median  models.Number `json:"median"`
	P75     models.Number `json:"p75"`
	Max     models.Number `json:"max"`
}

type FeatureProfile struct {
	Name        string         `json:"name"`
	All         NumericSummary `json:"all"`
	Negative    NumericSummary `json:"negative"`
	Positive    NumericSummary `json:"positive"`
	Correlation models.Number  `json:"correlation"` // point-biserial with the negative label
}

type LevelRate struct {
	Level        string  `json:"level"`
	Count        int     `json:"count"`
	NegativeRate float64 `json:"negative_rate"`
}

type CategoricalProfile struct {
	Name   string      `json:"name"`
	Levels []LevelRate `json:"levels"`
}

type Summary struct {
	ScoreCounts  map[int]int          `json:"score_counts"`
	Rows         int                  `json:"rows"`
	Negatives    int                  `json:"negatives"`
	NegativeRate float64              `json:"negative_rate"`
	Numeric      []FeatureProfile     `json:"numeric"`
	Categorical  []CategoricalProfile `json:"categorical"`
}

// ScoreDistribution counts raw review scores 1-5 over every review,
// before deduplication or filtering.
func ScoreDistribution(reviews []models.Review) map[int]int {
	counts := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range reviews {
		if r.Score >= 1 && r.Score <= 5 {
			counts[r.Score]++
		}
	}
	return counts
}

// Analyze profiles the engineered table. topLevels caps the categorical
// levels listed per column.
func Analyze(reviews []models.Review, records []models.Record, topLevels int) Summary {
	s := Summary{
		ScoreCounts: ScoreDistribution(reviews),
		Rows:        len(records),
	}
	labels := make([]float64, len(records))
	for i := range records {
		labels[i] = float64(records[i].Label)
		if records[i].Label == models.LabelNegative {
			s.Negatives++
		}
	}
	if s.Rows > 0 {
		s.NegativeRate = float64(s.Negatives) / float64(s.Rows)
	}

	for _, f := range models.NumericFeatures {
		s.Numeric = append(s.Numeric, profileNumeric(f, records, labels))
	}
	for _, f := range models.CategoricalFeatures {
		s.Categorical = append(s.Categorical, profileCategorical(f, records, topLevels))
	}
	return s
}

func profileNumeric(f models.NumericFeature, records []models.Record, labels []float64) FeatureProfile {
	var all, neg, pos, paired, pairedLabels []float64
	missing, negMissing, posMissing := 0, 0, 0
	for i := range records {
		v := f.Get(&records[i])
		isNeg := records[i].Label == models.LabelNegative
		if math.IsNaN(v) || math.IsInf(v, 0) {
			missing++
			if isNeg {
				negMissing++
			} else {
				posMissing++
			}
			continue
		}
		all = append(all, v)
		paired = append(paired, v)
		pairedLabels = append(pairedLabels, labels[i])
		if isNeg {
			neg = append(neg, v)
		} else {
			pos = append(pos, v)
		}
	}

	p := FeatureProfile{
		Name:     f.Name,
		All:      Describe(all, missing),
		Negative: Describe(neg, negMissing),
		Positive: Describe(pos, posMissing),
	}
	p.Correlation = models.Number(math.NaN())
	if len(paired) > 1 {
		p.Correlation = models.Number(stat.Correlation(paired, pairedLabels, nil))
	}
	return p
}

// Describe summarises values; missing is reported alongside. Statistics of
// an empty sample are NaN.
func Describe(values []float64, missing int) NumericSummary {
	s := NumericSummary{Count: len(values), Missing: missing}
	if len(values) == 0 {
		nan := models.Number(math.NaN())
		s.Mean, s.Std, s.Min, s.P25, s.Median, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	s.Mean, s.Std = models.Number(mean), models.Number(std)
	s.Min = models.Number(sorted[0])
	s.Max = models.Number(sorted[len(sorted)-1])
	s.P25 = models.Number(stat.Quantile(0.25, stat.Empirical, sorted, nil))
	s.Median = models.Number(preprocess.Median(sorted))
	s.P75 = models.Number(stat.Quantile(0.75, stat.Empirical, sorted, nil))
	return s
}

func profileCategorical(f models.CategoricalFeature, records []models.Record, top int) CategoricalProfile {
	counts := make(map[string]int)
	negatives := make(map[string]int)
	for i := range records {
		level := f.Get(&records[i])
		if level == "" {
			level = "(missing)"
		}
		counts[level]++
		if records[i].Label == models.LabelNegative {
			negatives[level]++
		}
	}

	levels := make([]LevelRate, 0, len(counts))
	for level, n := range counts {
		levels = append(levels, LevelRate{
			Level:        level,
			Count:        n,
			NegativeRate: float64(negatives[level]) / float64(n),
		})
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Count != levels[j].Count {
			return levels[i].Count > levels[j].Count
		}
		return levels[i].Level < levels[j].Level
	})
	if top > 0 && len(levels) > top {
		levels = levels[:top]
	}
	return CategoricalProfile{Name: f.Name, Levels: levels}
}

// Feature returns the numeric profile with the given name.
func (s Summary) Feature(name string) (FeatureProfile, bool) {
	for _, p := range s.Numeric {
		if p.Name == name {
			return p, true
		}
	}
	return FeatureProfile{}, false
}
