package preprocess

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var ErrInsufficientSamples = errors.New("not enough samples per class")

type Fold struct {
	Train      []int
	Validation []int
}

// classIndices groups row indices by label and shuffles each group with rng.
// Groups are returned in ascending label order.
func classIndices(labels []float64, rng *rand.Rand) [][]int {
	byClass := make(map[float64][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Float64s(classes)

	groups := make([][]int, len(classes))
	for k, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		groups[k] = idx
	}
	return groups
}

// StratifiedSplit holds out testSize of every class.
func StratifiedSplit(labels []float64, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be in (0, 1)", testSize)
	}
	rng := rand.New(rand.NewSource(seed))
	for _, idx := range classIndices(labels, rng) {
		if len(idx) < 2 {
			return nil, nil, fmt.Errorf("stratified split: %w", ErrInsufficientSamples)
		}
		n := int(math.Round(float64(len(idx)) * testSize))
		if n < 1 {
			n = 1
		}
		if n >= len(idx) {
			n = len(idx) - 1
		}
		test = append(test, idx[:n]...)
		train = append(train, idx[n:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// StratifiedKFold deals each shuffled class round-robin across k folds, so
// fold sizes differ by at most one and class ratios are preserved.
func StratifiedKFold(labels []float64, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 folds, got %d", k)
	}
	rng := rand.New(rand.NewSource(seed))
	assigned := make([][]int, k)
	next := 0
	for _, idx := range classIndices(labels, rng) {
		if len(idx) < k {
			return nil, fmt.Errorf("%d-fold split: %w", k, ErrInsufficientSamples)
		}
		for _, i := range idx {
			assigned[next] = append(assigned[next], i)
			next = (next + 1) % k
		}
	}

	folds := make([]Fold, k)
	for f := 0; f < k; f++ {
		validation := append([]int(nil), assigned[f]...)
		sort.Ints(validation)
		var train []int
		for g := 0; g < k; g++ {
			if g != f {
				train = append(train, assigned[g]...)
			}
		}
		sort.Ints(train)
		folds[f] = Fold{Train: train, Validation: validation}
	}
	return folds, nil
}
