// Package pipeline runs the batch end to end: load, profile, build
// features, tune both model families, evaluate and render the report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/reviewclf/internal/classifier"
	"github.com/chrisdamba/reviewclf/internal/eda"
	"github.com/chrisdamba/reviewclf/internal/evaluation"
	"github.com/chrisdamba/reviewclf/internal/features"
	"github.com/chrisdamba/reviewclf/internal/loader"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/output"
	"github.com/chrisdamba/reviewclf/internal/preprocess"
	"github.com/chrisdamba/reviewclf/internal/report"
	"github.com/chrisdamba/reviewclf/internal/repositories"
	"github.com/chrisdamba/reviewclf/internal/tuning"
	"github.com/lucsky/cuid"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

type Runner struct {
	cfg       *models.Config
	store     output.ArtifactStore
	publisher output.RunPublisher
	runs      repositories.RunRepository
	logger    *log.Entry
	now       func() time.Time
}

func NewRunner(cfg *models.Config, store output.ArtifactStore) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		logger: log.WithField("component", "pipeline"),
		now:    time.Now,
	}
}

// WithPublisher announces each finished run, for example on Kafka.
func (r *Runner) WithPublisher(p output.RunPublisher) *Runner {
	r.publisher = p
	return r
}

// WithRunRepository records each finished run in the history store.
func (r *Runner) WithRunRepository(repo repositories.RunRepository) *Runner {
	r.runs = repo
	return r
}

// Prepare loads the source tables and builds the labelled order table.
func Prepare(ctx context.Context, cfg *models.Config) (*models.Dataset, *features.Table, features.BuildStats, error) {
	ds, err := loader.Load(ctx, cfg.DataDir, cfg.Files)
	if err != nil {
		return nil, nil, features.BuildStats{}, fmt.Errorf("load dataset: %w", err)
	}
	table, stats, err := features.Build(ds, features.Options{MaxResponseHours: cfg.MaxResponseHours})
	if err != nil {
		return ds, nil, stats, fmt.Errorf("build features: %w", err)
	}
	return ds, table, stats, nil
}

// Family is one model family with its factory and search space.
type Family struct {
	Name    string
	Factory classifier.Factory
	Grid    tuning.Grid
}

func Families(cfg *models.Config) []Family {
	lr := classifier.DefaultLogisticConfig()
	if cfg.Logistic.MaxIter > 0 {
		lr.MaxIter = cfg.Logistic.MaxIter
	}
	gbt := classifier.DefaultGBTConfig()
	gbt.Seed = cfg.Seed
	if cfg.GBT.MaxBins > 0 {
		gbt.MaxBins = cfg.GBT.MaxBins
	}

	return []Family{
		{
			Name:    "logistic_regression",
			Factory: classifier.LogisticFactory(lr),
			Grid: tuning.Grid{
				{Name: "c", Values: tuning.Floats(cfg.Logistic.C...)},
				{Name: "penalty", Values: tuning.Strings(cfg.Logistic.Penalty...)},
			},
		},
		{
			Name:    "gradient_boosting",
			Factory: classifier.GBTFactory(gbt),
			Grid: tuning.Grid{
				{Name: "n_estimators", Values: tuning.Ints(cfg.GBT.NEstimators...)},
				{Name: "max_depth", Values: tuning.Ints(cfg.GBT.MaxDepth...)},
				{Name: "learning_rate", Values: tuning.Floats(cfg.GBT.LearningRate...)},
				{Name: "subsample", Values: tuning.Floats(cfg.GBT.Subsample...)},
				{Name: "min_child_weight", Values: tuning.Floats(cfg.GBT.MinChildWeight...)},
			},
		},
	}
}

func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	cfg := r.cfg
	start := r.now()

	ds, table, stats, err := Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rep := &report.Report{
		RunID:        cuid.New(),
		CreatedAt:    start.UTC(),
		DataDir:      cfg.DataDir,
		Dataset:      ds.Counts(),
		Build:        stats,
		EDA:          eda.Analyze(ds.Reviews, table.Records, cfg.TopCategories),
		CVFolds:      cfg.CVFolds,
		Workers:      cfg.Workers,
		Thresholds:   cfg.Thresholds,
		DeliveryDays: report.SplitByClass(table.Records, func(rec *models.Record) float64 { return rec.DeliveryDays }),
	}
	logger := r.logger.WithField("run_id", rep.RunID)

	labels := table.Labels()
	trainIdx, testIdx, err := preprocess.StratifiedSplit(labels, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("train/test split: %w", err)
	}
	train, test := table.Subset(trainIdx), table.Subset(testIdx)
	yTrain, yTest := train.Labels(), test.Labels()
	rep.TrainRows, rep.TestRows = train.Len(), test.Len()

	folds, err := preprocess.StratifiedKFold(yTrain, cfg.CVFolds, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("cross-validation folds: %w", err)
	}
	opts := preprocess.Options{TopK: cfg.TopCategories, Scale: true}
	foldData, err := tuning.PrepareFolds(train.Records, yTrain, folds, opts)
	if err != nil {
		return nil, fmt.Errorf("prepare folds: %w", err)
	}

	pipe := preprocess.NewPipeline(opts)
	xTrain, err := pipe.FitTransform(train.Records)
	if err != nil {
		return nil, fmt.Errorf("fit preprocessing: %w", err)
	}
	xTest, err := pipe.Transform(test.Records)
	if err != nil {
		return nil, fmt.Errorf("transform test set: %w", err)
	}
	rep.Features = pipe.FeatureNames()
	rep.Medians = pipe.Medians()

	logger.WithFields(log.Fields{
		"train":    rep.TrainRows,
		"test":     rep.TestRows,
		"features": len(rep.Features),
		"folds":    len(foldData),
	}).Info("data prepared")

	for _, fam := range Families(cfg) {
		m, err := r.tune(ctx, fam, foldData, xTrain, yTrain, xTest, yTest, rep.Features)
		if err != nil {
			return nil, err
		}
		rep.Models = append(rep.Models, m)
	}

	if _, err := report.Render(ctx, rep, r.store); err != nil {
		return nil, err
	}
	r.record(ctx, logger, rep.Summary())

	logger.WithField("elapsed", r.now().Sub(start).Round(time.Millisecond)).Info("run finished")
	return rep, nil
}

func (r *Runner) tune(ctx context.Context, fam Family, folds []tuning.FoldData, xTrain *mat.Dense, yTrain []float64, xTest *mat.Dense, yTest []float64, names []string) (report.ModelReport, error) {
	search := &tuning.Search{
		Name:     fam.Name,
		Factory:  fam.Factory,
		Grid:     fam.Grid,
		Scoring:  r.cfg.Scoring,
		Workers:  r.cfg.Workers,
		Mode:     r.cfg.SearchMode,
		NIter:    r.cfg.SearchIterations,
		Seed:     r.cfg.Seed,
		Progress: r.cfg.Progress,
		Logger:   r.logger,
	}
	result, err := search.Run(ctx, folds)
	if err != nil {
		return report.ModelReport{}, err
	}

	model, err := tuning.Refit(fam.Factory, result.Best.Params, xTrain, yTrain)
	if err != nil {
		return report.ModelReport{}, err
	}
	probs, err := model.PredictProba(xTest)
	if err != nil {
		return report.ModelReport{}, fmt.Errorf("predict %s: %w", fam.Name, err)
	}
	summary, err := evaluation.Evaluate(yTest, probs, r.cfg.Thresholds)
	if err != nil {
		return report.ModelReport{}, fmt.Errorf("evaluate %s: %w", fam.Name, err)
	}

	out := report.ModelReport{Name: fam.Name, Search: result, Test: summary}
	switch m := model.(type) {
	case *classifier.Logistic:
		b := m.Intercept()
		out.Intercept = &b
		out.Coefficients = report.Weights(names, m.Coefficients())
	case *classifier.GBT:
		out.Importance = report.Weights(names, m.FeatureImportance())
	}

	fields := log.Fields{"model": fam.Name, "roc_auc": summary.ROCAUC, "pr_auc": summary.PRAUC}
	for _, t := range summary.Thresholds {
		fields[fmt.Sprintf("recall@%.2f", t.Threshold)] = t.Recall
	}
	r.logger.WithFields(fields).Info("model evaluated on test set")
	return out, nil
}

// record hands the summary to the optional sinks. Their failures never fail
// the run: the report is already written.
func (r *Runner) record(ctx context.Context, logger *log.Entry, summary models.RunSummary) {
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, summary); err != nil {
			logger.WithError(err).Warn("failed to publish run summary")
		}
	}
	if r.runs != nil {
		if err := r.runs.Save(ctx, summary); err != nil {
			logger.WithError(err).Warn("failed to store run summary")
		}
	}
}
