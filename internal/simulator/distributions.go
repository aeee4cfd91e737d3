package simulator

import (
	"math"
)

// ScoreModel holds the weights that turn an order's experience into a
// latent satisfaction, later rounded to a 1-5 review score.
type ScoreModel struct {
	Base            float64
	QualityWeight   float64 // per unit of product quality in [-1, 1]
	LatePerDay      float64 // penalty per day delivered after the estimate
	EarlyPerDay     float64 // bonus per day delivered before the estimate, capped
	EarlyCap        float64
	Undelivered     float64
	FreightRatio    float64 // penalty per unit of freight/price above FreightFree
	FreightFree     float64
	MultiSeller     float64
	Noise           float64
	ResponseOutlier float64 // share of reviews answered after the survey window
}

var DefaultScoreModel = ScoreModel{
	Base:            4.35,
	QualityWeight:   0.7,
	LatePerDay:      0.35,
	EarlyPerDay:     0.04,
	EarlyCap:        0.4,
	Undelivered:     2.6,
	FreightRatio:    1.5,
	FreightFree:     0.25,
	MultiSeller:     0.5,
	Noise:           0.9,
	ResponseOutlier: 0.03,
}

// orderExperience is what the customer saw; it drives the review.
type orderExperience struct {
	delivered    bool
	lateDays     float64 // negative when early
	freightRatio float64
	quality      float64
	sellers      int
}

func (m ScoreModel) latent(e orderExperience) float64 {
	score := m.Base + m.QualityWeight*e.quality
	if !e.delivered {
		score -= m.Undelivered
	} else if e.lateDays > 0 {
		score -= m.LatePerDay * e.lateDays
	} else {
		score += math.Min(m.EarlyCap, -e.lateDays*m.EarlyPerDay)
	}
	if e.freightRatio > m.FreightFree {
		score -= m.FreightRatio * (e.freightRatio - m.FreightFree)
	}
	if e.sellers > 1 {
		score -= m.MultiSeller
	}
	return score
}

func (s *Simulator) normal(mean, std float64) float64 {
	return s.Rng.NormFloat64()*std + mean
}

func (s *Simulator) generateNormalizedValue(mean, std, min, max float64) float64 {
	return math.Max(min, math.Min(max, s.normal(mean, std)))
}

func (s *Simulator) exponential(mean float64) float64 {
	return s.Rng.ExpFloat64() * mean
}

// reviewScore rounds a noisy latent satisfaction to 1-5.
func (s *Simulator) reviewScore(e orderExperience) int {
	v := s.generateNormalizedValue(s.ScoreModel.latent(e), s.ScoreModel.Noise, 1, 5)
	return int(math.Round(v))
}

// pick returns an index drawn with probability proportional to weights.
func (s *Simulator) pick(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := s.Rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return i
		}
	}
	return len(weights) - 1
}
