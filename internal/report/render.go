package report

import (
	"context"
	"fmt"

	"github.com/chrisdamba/reviewclf/internal/output"
	log "github.com/sirupsen/logrus"
)

const (
	MarkdownFile = "report.md"
	ResultsFile  = "results.json"
)

type artifact struct {
	name   string
	render func() ([]byte, error)
}

// Render writes the plots, the markdown report and results.json to store
// and returns the stored names in write order.
func Render(ctx context.Context, r *Report, store output.ArtifactStore) ([]string, error) {
	logger := log.WithField("component", "report")

	plots := r.plotArtifacts()
	r.Plots = r.Plots[:0]
	for _, a := range plots {
		r.Plots = append(r.Plots, a.name)
	}

	artifacts := append(plots,
		artifact{MarkdownFile, r.Markdown},
		artifact{ResultsFile, r.JSON},
	)

	var written []string
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := a.render()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", a.name, err)
		}
		if err := store.Put(ctx, a.name, data); err != nil {
			return written, fmt.Errorf("store %s: %w", a.name, err)
		}
		written = append(written, a.name)
		logger.WithField("artifact", store.Location(a.name)).Debug("artifact written")
	}

	logger.WithFields(log.Fields{
		"run_id":    r.RunID,
		"artifacts": len(written),
		"report":    store.Location(MarkdownFile),
	}).Info("report rendered")
	return written, nil
}

func (r *Report) plotArtifacts() []artifact {
	plots := []artifact{
		{"score_distribution.png", func() ([]byte, error) {
			return ScorePlot(r.EDA.ScoreCounts)
		}},
		{"delivery_days.png", func() ([]byte, error) {
			return ClassHistogram("Delivery time by review sentiment", "days from purchase to delivery", r.DeliveryDays, 40)
		}},
	}
	if len(r.Models) == 0 {
		return plots
	}

	plots = append(plots,
		artifact{"roc.png", func() ([]byte, error) {
			return CurvePlot("ROC curve (test set)", "false positive rate", "true positive rate", ROCCurves(r.Models), rocBaseline())
		}},
		artifact{"pr.png", func() ([]byte, error) {
			return CurvePlot("Precision-recall curve (test set)", "recall", "precision", PRCurves(r.Models), prBaseline(r.Models[0].Test))
		}},
	)
	for _, m := range r.Models {
		m := m
		if len(m.Coefficients) > 0 {
			plots = append(plots, artifact{"coefficients.png", func() ([]byte, error) {
				return WeightPlot("Logistic regression coefficients (standardized)", m.Coefficients)
			}})
		}
		if len(m.Importance) > 0 {
			plots = append(plots, artifact{"importance.png", func() ([]byte, error) {
				return WeightPlot("Gradient boosting feature importance", m.Importance)
			}})
		}
	}
	return plots
}
