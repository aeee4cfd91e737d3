package tuning

import (
	"errors"
	"math/rand"

	"github.com/chrisdamba/reviewclf/internal/classifier"
)

var ErrEmptyGrid = errors.New("parameter grid is empty")

// Axis is one hyperparameter and the values to try.
type Axis struct {
	Name   string
	Values []any
}

// Grid keeps axes in declaration order so expansion is deterministic.
type Grid []Axis

func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}
	size := 1
	for _, a := range g {
		size *= len(a.Values)
	}
	return size
}

// Expand returns the cartesian product; the last axis varies fastest.
func (g Grid) Expand() []classifier.Params {
	size := g.Size()
	if size == 0 {
		return nil
	}
	combos := make([]classifier.Params, size)
	for i := range combos {
		combos[i] = make(classifier.Params, len(g))
		rem := i
		for a := len(g) - 1; a >= 0; a-- {
			axis := g[a]
			combos[i][axis.Name] = axis.Values[rem%len(axis.Values)]
			rem /= len(axis.Values)
		}
	}
	return combos
}

// Sample draws n distinct combinations without replacement, keeping their
// grid order. n >= Size returns the full grid.
func (g Grid) Sample(n int, seed int64) []classifier.Params {
	all := g.Expand()
	if n >= len(all) {
		return all
	}
	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(all))[:n]
	keep := make([]bool, len(all))
	for _, i := range picked {
		keep[i] = true
	}
	out := make([]classifier.Params, 0, n)
	for i, p := range all {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func Floats(values ...float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func Ints(values ...int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func Strings(values ...string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
