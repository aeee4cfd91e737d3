package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type GBTConfig struct {
	NEstimators    int
	LearningRate   float64
	MaxDepth       int
	MinChildWeight float64 // minimum hessian sum per leaf
	Lambda         float64 // L2 penalty on leaf values
	Gamma          float64 // minimum gain to split
	Subsample      float64 // fraction of rows sampled per tree
	MaxBins        int
	Seed           int64
}

func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinChildWeight: 1,
		Lambda:         1,
		Gamma:          0,
		Subsample:      1,
		MaxBins:        64,
		Seed:           42,
	}
}

// GBT is a gradient-boosted ensemble of binary regression trees on
// log-loss, using second-order leaf values and histogram split search.
type GBT struct {
	cfg        GBTConfig
	base       float64
	trees      []tree
	nFeatures  int
	importance []float64
	fitted     bool
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	bin       int
	threshold float64
	left      int
	right     int
}

type tree struct {
	nodes []treeNode
}

func NewGBT(cfg GBTConfig) (*GBT, error) {
	switch {
	case cfg.NEstimators <= 0:
		return nil, fmt.Errorf("%w: n_estimators must be positive", ErrInvalidHyperparams)
	case cfg.LearningRate <= 0:
		return nil, fmt.Errorf("%w: learning_rate must be positive", ErrInvalidHyperparams)
	case cfg.MaxDepth <= 0:
		return nil, fmt.Errorf("%w: max_depth must be positive", ErrInvalidHyperparams)
	case cfg.Subsample <= 0 || cfg.Subsample > 1:
		return nil, fmt.Errorf("%w: subsample must be in (0, 1]", ErrInvalidHyperparams)
	case cfg.Lambda < 0 || cfg.MinChildWeight < 0 || cfg.Gamma < 0:
		return nil, fmt.Errorf("%w: lambda, min_child_weight and gamma must be non-negative", ErrInvalidHyperparams)
	}
	if cfg.MaxBins < 2 {
		cfg.MaxBins = DefaultGBTConfig().MaxBins
	}
	if cfg.MaxBins > math.MaxUint16 {
		cfg.MaxBins = math.MaxUint16
	}
	return &GBT{cfg: cfg}, nil
}

func (m *GBT) Name() string {
	return "gradient_boosting"
}

func (m *GBT) Config() GBTConfig {
	return m.cfg
}

func (m *GBT) Fit(x mat.Matrix, y []float64) error {
	n, d, err := checkTraining(x, y)
	if err != nil {
		return err
	}

	thresholds, binned := binColumns(x, m.cfg.MaxBins)
	rng := rand.New(rand.NewSource(m.cfg.Seed))

	m.base = logit(floats.Sum(y) / float64(n))
	m.nFeatures = d
	m.importance = make([]float64, d)
	m.trees = m.trees[:0]

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = m.base
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	sampleSize := int(math.Round(m.cfg.Subsample * float64(n)))
	if sampleSize < 1 {
		sampleSize = 1
	}

	b := &builder{cfg: m.cfg, thresholds: thresholds, binned: binned, grad: grad, hess: hess, importance: m.importance}
	for round := 0; round < m.cfg.NEstimators; round++ {
		for i := range raw {
			p := sigmoid(raw[i])
			grad[i] = p - y[i]
			hess[i] = math.Max(p*(1-p), 1e-16)
		}

		rows := all
		if sampleSize < n {
			rows = rng.Perm(n)[:sampleSize]
			sort.Ints(rows)
		}

		t := b.build(rows)
		for i := range raw {
			raw[i] += m.cfg.LearningRate * t.predictBinned(binned, i)
		}
		m.trees = append(m.trees, t)
	}

	m.fitted = true
	return nil
}

func (m *GBT) PredictProba(x mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	n, d := x.Dims()
	if d != m.nFeatures {
		return nil, fmt.Errorf("%w: model has %d features, input has %d", ErrDimensionMismatch, m.nFeatures, d)
	}
	probs := make([]float64, n)
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		score := m.base
		for _, t := range m.trees {
			score += m.cfg.LearningRate * t.predict(row)
		}
		probs[i] = sigmoid(score)
	}
	return probs, nil
}

// FeatureImportance is the total split gain per column, normalized to sum
// to one. All zeros when no split was ever made.
func (m *GBT) FeatureImportance() []float64 {
	out := append([]float64(nil), m.importance...)
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}

func (m *GBT) NumTrees() int {
	return len(m.trees)
}

func (t tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.value
		}
		// NaN compares false and goes right, matching its top bin in training
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

func (t tree) predictBinned(binned [][]uint16, row int) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.value
		}
		if int(binned[n.feature][row]) <= n.bin {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// binColumns computes per-column cut points and the bin of every value.
// A value v lands in bin b when thresholds[b-1] < v <= thresholds[b], so
// "bin <= b" on training data matches "v <= thresholds[b]" on raw data.
func binColumns(x mat.Matrix, maxBins int) ([][]float64, [][]uint16) {
	n, d := x.Dims()
	thresholds := make([][]float64, d)
	binned := make([][]uint16, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = x.At(i, j)
		}
		thresholds[j] = cutPoints(col, maxBins)
		bins := make([]uint16, n)
		for i, v := range col {
			bins[i] = uint16(sort.SearchFloat64s(thresholds[j], v))
		}
		binned[j] = bins
	}
	return thresholds, binned
}

func cutPoints(values []float64, maxBins int) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	unique := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			unique = append(unique, v)
		}
	}
	if len(unique) <= 1 {
		return nil
	}

	var cuts []float64
	if len(unique) <= maxBins {
		// one bin per distinct value; every unique value except the last is a cut
		cuts = append(cuts, unique[:len(unique)-1]...)
		return cuts
	}
	for k := 1; k < maxBins; k++ {
		q := stat.Quantile(float64(k)/float64(maxBins), stat.Empirical, sorted, nil)
		if q >= unique[len(unique)-1] {
			break
		}
		if len(cuts) == 0 || q > cuts[len(cuts)-1] {
			cuts = append(cuts, q)
		}
	}
	return cuts
}

type builder struct {
	cfg        GBTConfig
	thresholds [][]float64
	binned     [][]uint16
	grad       []float64
	hess       []float64
	importance []float64
	nodes      []treeNode
}

type split struct {
	gain    float64
	feature int
	bin     int
}

func (b *builder) build(rows []int) tree {
	b.nodes = nil
	b.grow(rows, 0)
	return tree{nodes: b.nodes}
}

func (b *builder) leafValue(g, h float64) float64 {
	return -g / (h + b.cfg.Lambda)
}

func (b *builder) score(g, h float64) float64 {
	return g * g / (h + b.cfg.Lambda)
}

// grow appends the subtree for rows and returns its node index.
func (b *builder) grow(rows []int, depth int) int {
	var g, h float64
	for _, i := range rows {
		g += b.grad[i]
		h += b.hess[i]
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{leaf: true, value: b.leafValue(g, h)})

	if depth >= b.cfg.MaxDepth || len(rows) < 2 || h < 2*b.cfg.MinChildWeight {
		return idx
	}

	best := b.bestSplit(rows, g, h)
	if best.feature < 0 {
		return idx
	}

	bins := b.binned[best.feature]
	var left, right []int
	for _, i := range rows {
		if int(bins[i]) <= best.bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.importance[best.feature] += best.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = treeNode{
		feature:   best.feature,
		bin:       best.bin,
		threshold: b.thresholds[best.feature][best.bin],
		left:      l,
		right:     r,
	}
	return idx
}

func (b *builder) bestSplit(rows []int, g, h float64) split {
	best := split{feature: -1}
	parent := b.score(g, h)

	for f, cuts := range b.thresholds {
		if len(cuts) == 0 {
			continue
		}
		nb := len(cuts) + 1
		hg := make([]float64, nb)
		hh := make([]float64, nb)
		bins := b.binned[f]
		for _, i := range rows {
			hg[bins[i]] += b.grad[i]
			hh[bins[i]] += b.hess[i]
		}

		var gl, hl float64
		// the last bin cannot be a left side: there is no cut after it
		for k := 0; k < nb-1; k++ {
			gl += hg[k]
			hl += hh[k]
			gr, hr := g-gl, h-hl
			if hl < b.cfg.MinChildWeight || hr < b.cfg.MinChildWeight {
				continue
			}
			gain := b.score(gl, hl) + b.score(gr, hr) - parent
			if gain > b.cfg.Gamma && gain > best.gain {
				best = split{gain: gain, feature: f, bin: k}
			}
		}
	}
	return best
}
