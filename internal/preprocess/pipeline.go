package preprocess

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chrisdamba/reviewclf/internal/models"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrNotFitted = errors.New("pipeline is not fitted")

// OtherLevel collects categorical values outside the retained top levels,
// including missing ones.
const OtherLevel = "other"

type Options struct {
	// TopK caps the one-hot levels kept per categorical column; <= 0 keeps all
	TopK  int
	Scale bool
}

// Pipeline imputes numeric medians, one-hot encodes categoricals and
// optionally standardizes every output column. All statistics come from
// the rows passed to Fit.
type Pipeline struct {
	opts    Options
	medians []float64
	levels  [][]string
	means   []float64
	stds    []float64
	names   []string
	fitted  bool
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

func (p *Pipeline) Fit(records []models.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("fit pipeline: %w", errors.New("no rows"))
	}

	p.medians = make([]float64, len(models.NumericFeatures))
	p.names = p.names[:0]
	for j, f := range models.NumericFeatures {
		values := make([]float64, 0, len(records))
		for i := range records {
			if v := f.Get(&records[i]); !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}
		p.medians[j] = Median(values)
		p.names = append(p.names, f.Name)
	}

	p.levels = make([][]string, len(models.CategoricalFeatures))
	for j, f := range models.CategoricalFeatures {
		counts := make(map[string]int)
		for i := range records {
			if v := f.Get(&records[i]); v != "" {
				counts[v]++
			}
		}
		p.levels[j] = topLevels(counts, p.opts.TopK)
		for _, level := range p.levels[j] {
			p.names = append(p.names, f.Name+"="+level)
		}
		p.names = append(p.names, f.Name+"="+OtherLevel)
	}

	p.fitted = true
	p.means, p.stds = nil, nil
	if !p.opts.Scale {
		return nil
	}

	raw := p.encode(records)
	_, cols := raw.Dims()
	p.means = make([]float64, cols)
	p.stds = make([]float64, cols)
	col := make([]float64, len(records))
	for j := 0; j < cols; j++ {
		mat.Col(col, j, raw)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		p.means[j], p.stds[j] = mean, std
	}
	return nil
}

func (p *Pipeline) Transform(records []models.Record) (*mat.Dense, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("transform: %w", errors.New("no rows"))
	}
	x := p.encode(records)
	if p.opts.Scale {
		rows, cols := x.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				x.Set(i, j, (x.At(i, j)-p.means[j])/p.stds[j])
			}
		}
	}
	return x, nil
}

func (p *Pipeline) FitTransform(records []models.Record) (*mat.Dense, error) {
	if err := p.Fit(records); err != nil {
		return nil, err
	}
	return p.Transform(records)
}

// FeatureNames lists the output columns in matrix order.
func (p *Pipeline) FeatureNames() []string {
	return append([]string(nil), p.names...)
}

// Medians returns the imputation value per numeric column.
func (p *Pipeline) Medians() map[string]float64 {
	out := make(map[string]float64, len(p.medians))
	for j, f := range models.NumericFeatures {
		if j < len(p.medians) {
			out[f.Name] = p.medians[j]
		}
	}
	return out
}

func (p *Pipeline) encode(records []models.Record) *mat.Dense {
	x := mat.NewDense(len(records), len(p.names), nil)
	for i := range records {
		r := &records[i]
		col := 0
		for j, f := range models.NumericFeatures {
			v := f.Get(r)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = p.medians[j]
			}
			x.Set(i, col, v)
			col++
		}
		for j, f := range models.CategoricalFeatures {
			v := f.Get(r)
			hit := -1
			for k, level := range p.levels[j] {
				if level == v {
					hit = k
					break
				}
			}
			if hit < 0 {
				hit = len(p.levels[j])
			}
			x.Set(i, col+hit, 1)
			col += len(p.levels[j]) + 1
		}
	}
	return x
}

// topLevels orders by count descending then name, keeping at most k.
func topLevels(counts map[string]int, k int) []string {
	levels := make([]string, 0, len(counts))
	for level := range counts {
		if level == OtherLevel {
			continue
		}
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		if counts[levels[i]] != counts[levels[j]] {
			return counts[levels[i]] > counts[levels[j]]
		}
		return levels[i] < levels[j]
	})
	if k > 0 && len(levels) > k {
		levels = levels[:k]
	}
	return levels
}

// Median averages the two middle values for even counts; an empty input
// yields 0 so an all-missing column imputes to zero.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
