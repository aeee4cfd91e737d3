package tuning

import (
	"fmt"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/preprocess"
	"gonum.org/v1/gonum/mat"
)

// FoldData is one cross-validation split, already preprocessed with
// statistics from its own training part. It is read-only once built.
type FoldData struct {
	XTrain *mat.Dense
	YTrain []float64
	XVal   *mat.Dense
	YVal   []float64
}

// PrepareFolds fits a fresh preprocessing pipeline per fold so validation
// rows never leak into imputation, encoding or scaling statistics.
func PrepareFolds(records []models.Record, labels []float64, folds []preprocess.Fold, opts preprocess.Options) ([]FoldData, error) {
	out := make([]FoldData, len(folds))
	for k, f := range folds {
		train := pick(records, f.Train)
		val := pick(records, f.Validation)

		p := preprocess.NewPipeline(opts)
		xTrain, err := p.FitTransform(train)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", k, err)
		}
		xVal, err := p.Transform(val)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", k, err)
		}
		out[k] = FoldData{
			XTrain: xTrain,
			YTrain: pickLabels(labels, f.Train),
			XVal:   xVal,
			YVal:   pickLabels(labels, f.Validation),
		}
	}
	return out, nil
}

func pick(records []models.Record, idx []int) []models.Record {
	out := make([]models.Record, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

func pickLabels(labels []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = labels[j]
	}
	return out
}
