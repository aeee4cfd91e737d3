package evaluation

import (
	"fmt"

	"github.com/chrisdamba/reviewclf/internal/models"
)

// Summary is the held-out evaluation of one fitted model.
type Summary struct {
	ROCAUC     float64            `json:"roc_auc"`
	PRAUC      float64            `json:"pr_auc"`
	LogLoss    float64            `json:"log_loss"`
	Brier      float64            `json:"brier"`
	Prevalence float64            `json:"prevalence"`
	Thresholds []ThresholdMetrics `json:"thresholds"`
	ROC        []ROCPoint         `json:"-"`
	PR         []PRPoint          `json:"-"`
}

// Evaluate computes every metric, with one confusion matrix per threshold.
func Evaluate(y, probs []float64, thresholds []float64) (Summary, error) {
	var s Summary
	var err error
	if s.ROC, err = ROCCurve(y, probs); err != nil {
		return s, fmt.Errorf("roc curve: %w", err)
	}
	if s.ROCAUC, err = ROCAUC(y, probs); err != nil {
		return s, err
	}
	if s.PR, err = PRCurve(y, probs); err != nil {
		return s, fmt.Errorf("pr curve: %w", err)
	}
	if s.PRAUC, err = AveragePrecision(y, probs); err != nil {
		return s, err
	}
	if s.LogLoss, err = LogLoss(y, probs); err != nil {
		return s, err
	}
	if s.Brier, err = Brier(y, probs); err != nil {
		return s, err
	}
	var pos int
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	s.Prevalence = float64(pos) / float64(len(y))

	for _, t := range thresholds {
		c, err := NewConfusion(y, probs, t)
		if err != nil {
			return s, err
		}
		s.Thresholds = append(s.Thresholds, c.Metrics())
	}
	return s, nil
}

// At returns the metrics for threshold t, if it was evaluated.
func (s Summary) At(t float64) (ThresholdMetrics, bool) {
	for _, m := range s.Thresholds {
		if m.Threshold == t {
			return m, true
		}
	}
	return ThresholdMetrics{}, false
}

// Score evaluates one named metric where larger is better.
func Score(metric string, y, probs []float64) (float64, error) {
	switch metric {
	case models.ScoringROCAUC:
		return ROCAUC(y, probs)
	case models.ScoringPRAUC:
		return AveragePrecision(y, probs)
	case models.ScoringAccuracy:
		c, err := NewConfusion(y, probs, 0.5)
		if err != nil {
			return 0, err
		}
		return c.Accuracy(), nil
	case models.ScoringNegLogLoss:
		loss, err := LogLoss(y, probs)
		return -loss, err
	default:
		return 0, fmt.Errorf("unknown scoring metric %q", metric)
	}
}
