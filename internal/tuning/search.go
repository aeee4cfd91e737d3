package tuning

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/chrisdamba/reviewclf/internal/classifier"
	"github.com/chrisdamba/reviewclf/internal/evaluation"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const DefaultWorkers = 12

// Search evaluates every combination on every fold. Each (combination,
// fold) fit is independent, so they run on a pool of Workers goroutines.
type Search struct {
	Name     string
	Factory  classifier.Factory
	Grid     Grid
	Scoring  string
	Workers  int
	Mode     string // grid or random
	NIter    int
	Seed     int64
	Progress bool
	Logger   *log.Entry
}

type Candidate struct {
	Params     classifier.Params `json:"params"`
	MeanScore  float64           `json:"mean_score"`
	StdScore   float64           `json:"std_score"`
	FoldScores []float64         `json:"fold_scores"`
	Rank       int               `json:"rank"`
}

type Result struct {
	Model      string        `json:"model"`
	Scoring    string        `json:"scoring"`
	Folds      int           `json:"folds"`
	Candidates []Candidate   `json:"candidates"`
	Best       Candidate     `json:"best"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

func (s *Search) combinations() ([]classifier.Params, error) {
	if s.Grid.Size() == 0 {
		return nil, ErrEmptyGrid
	}
	if s.Mode == models.SearchModeRandom {
		return s.Grid.Sample(s.NIter, s.Seed), nil
	}
	return s.Grid.Expand(), nil
}

func (s *Search) Run(ctx context.Context, folds []FoldData) (*Result, error) {
	if len(folds) == 0 {
		return nil, fmt.Errorf("search %s: no folds", s.Name)
	}
	combos, err := s.combinations()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.Name, err)
	}
	logger := s.Logger
	if logger == nil {
		logger = log.WithField("component", "tuning")
	}
	logger = logger.WithField("model", s.Name)
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	total := len(combos) * len(folds)
	logger.WithFields(log.Fields{
		"candidates": len(combos),
		"folds":      len(folds),
		"fits":       total,
		"workers":    workers,
	}).Info("starting cross-validated search")

	bar := s.newBar(total)
	start := time.Now()
	scores := make([][]float64, len(combos))
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := range combos {
		for f := range folds {
			c, f := c, f
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				score, err := s.fitAndScore(combos[c], folds[f])
				if err != nil {
					return fmt.Errorf("%s [%s] fold %d: %w", s.Name, combos[c], f, err)
				}
				scores[c][f] = score
				_ = bar.Add(1)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	result := &Result{
		Model:   s.Name,
		Scoring: s.Scoring,
		Folds:   len(folds),
		Elapsed: time.Since(start),
	}
	for c, params := range combos {
		mean, std := stat.PopMeanStdDev(scores[c], nil)
		result.Candidates = append(result.Candidates, Candidate{
			Params:     params,
			MeanScore:  mean,
			StdScore:   std,
			FoldScores: scores[c],
		})
	}
	rank(result.Candidates)
	for _, cand := range result.Candidates {
		if cand.Rank == 1 {
			result.Best = cand
			break
		}
	}

	logger.WithFields(log.Fields{
		"best_params": result.Best.Params.String(),
		"best_score":  result.Best.MeanScore,
		"elapsed":     result.Elapsed.Round(time.Millisecond),
	}).Info("search finished")
	return result, nil
}

func (s *Search) fitAndScore(params classifier.Params, fold FoldData) (float64, error) {
	model, err := s.Factory(params)
	if err != nil {
		return 0, err
	}
	if err := model.Fit(fold.XTrain, fold.YTrain); err != nil {
		return 0, err
	}
	probs, err := model.PredictProba(fold.XVal)
	if err != nil {
		return 0, err
	}
	return evaluation.Score(s.Scoring, fold.YVal, probs)
}

func (s *Search) newBar(total int) *progressbar.ProgressBar {
	var w io.Writer = io.Discard
	if s.Progress {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(s.Name),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

// rank assigns 1 to the highest mean score; ties keep grid order.
func rank(cands []Candidate) {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].MeanScore > cands[order[b]].MeanScore
	})
	for r, i := range order {
		cands[i].Rank = r + 1
	}
}

// Refit trains the chosen combination on the full training matrix.
func Refit(factory classifier.Factory, params classifier.Params, x mat.Matrix, y []float64) (classifier.Classifier, error) {
	model, err := factory(params)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(x, y); err != nil {
		return nil, fmt.Errorf("refit %s: %w", model.Name(), err)
	}
	return model, nil
}
