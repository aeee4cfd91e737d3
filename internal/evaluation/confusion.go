package evaluation

import (
	"errors"
	"fmt"
)

var (
	ErrSingleClass    = errors.New("labels contain a single class")
	ErrLengthMismatch = errors.New("labels and scores differ in length")
	ErrEmpty          = errors.New("no samples")
)

// Classify labels a row 1 when its probability reaches threshold.
func Classify(probs []float64, threshold float64) []float64 {
	out := make([]float64, len(probs))
	for i, p := range probs {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

// Confusion counts outcomes with label 1 (a negative review) as the
// positive class.
type Confusion struct {
	Threshold float64 `json:"threshold"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	TN        int     `json:"tn"`
	FN        int     `json:"fn"`
}

func NewConfusion(y, probs []float64, threshold float64) (Confusion, error) {
	if err := checkInputs(y, probs); err != nil {
		return Confusion{}, err
	}
	c := Confusion{Threshold: threshold}
	for i, p := range probs {
		predicted := p >= threshold
		actual := y[i] == 1
		switch {
		case predicted && actual:
			c.TP++
		case predicted && !actual:
			c.FP++
		case !predicted && actual:
			c.FN++
		default:
			c.TN++
		}
	}
	return c, nil
}

func (c Confusion) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

func (c Confusion) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.Total())
}

func (c Confusion) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

func (c Confusion) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

func (c Confusion) Specificity() float64 {
	return ratio(c.TN, c.TN+c.FP)
}

func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

type ThresholdMetrics struct {
	Confusion
	Accuracy    float64 `json:"accuracy"`
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	Specificity float64 `json:"specificity"`
	F1          float64 `json:"f1"`
}

func (c Confusion) Metrics() ThresholdMetrics {
	return ThresholdMetrics{
		Confusion:   c,
		Accuracy:    c.Accuracy(),
		Precision:   c.Precision(),
		Recall:      c.Recall(),
		Specificity: c.Specificity(),
		F1:          c.F1(),
	}
}

// ratio is 0 when the denominator is empty.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func checkInputs(y, probs []float64) error {
	if len(y) != len(probs) {
		return fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(y), len(probs))
	}
	if len(y) == 0 {
		return ErrEmpty
	}
	return nil
}
