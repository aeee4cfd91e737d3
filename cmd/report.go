package cmd

import (
	"context"
	"fmt"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/chrisdamba/reviewclf/internal/output"
	"github.com/chrisdamba/reviewclf/internal/pipeline"
	"github.com/chrisdamba/reviewclf/internal/report"
	"github.com/chrisdamba/reviewclf/internal/repositories/postgres"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the full analysis and render the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		return runReport(ctx, cfg)
	},
}

func init() {
	flags := reportCmd.Flags()
	flags.Int("cv-folds", 5, "Cross-validation folds")
	flags.Float64("test-size", 0.2, "Held-out share of labelled orders")
	flags.String("scoring", models.ScoringROCAUC, "Search metric (roc_auc, pr_auc, accuracy, neg_log_loss)")
	flags.String("search-mode", models.SearchModeGrid, "Search mode (grid or random)")
	flags.Int("search-iterations", 10, "Combinations sampled in random mode")
	flags.StringSlice("thresholds", []string{"0.5", "0.2"}, "Decision thresholds to report")
	flags.Bool("kafka-enabled", false, "Publish the run summary to Kafka")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.Bool("db-enabled", false, "Store the run summary in Postgres")

	bindFlags(reportCmd, map[string]string{
		"cv_folds":          "cv-folds",
		"test_size":         "test-size",
		"scoring":           "scoring",
		"search_mode":       "search-mode",
		"search_iterations": "search-iterations",
		"thresholds":        "thresholds",
		"kafka_enabled":     "kafka-enabled",
		"kafka_broker_list": "kafka-broker-list",
		"database.enabled":  "db-enabled",
	})
}

// artifactStore writes locally and mirrors to object storage when the
// output destination is cloud.
func artifactStore(ctx context.Context, cfg *models.Config) (output.ArtifactStore, error) {
	local, err := output.NewLocalStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	factory, err := cloudFactory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return local, nil
	}
	return output.NewMultiStore(local, output.NewCloudStore(factory, cfg.CloudStorage.BucketName, cfg.CloudStorage.Prefix)), nil
}

func runReport(ctx context.Context, cfg *models.Config) error {
	store, err := artifactStore(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cfg, store)

	if cfg.KafkaEnabled {
		publisher, err := output.NewKafkaPublisher(cfg.KafkaBrokerList, cfg.KafkaTopic)
		if err != nil {
			log.WithError(err).Warn("kafka unavailable, run summary will not be published")
		} else {
			defer publisher.Close()
			runner.WithPublisher(publisher)
		}
	}

	if cfg.Database.Enabled {
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.WithError(err).Warn("database unavailable, run summary will not be stored")
		} else {
			defer pool.Close()
			repo := postgres.NewRunRepository(pool)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("failed to create run history table")
			} else {
				runner.WithRunRepository(repo)
			}
		}
	}

	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if best, ok := rep.Best(); ok {
		fmt.Printf("report written to %s (best model %s, ROC-AUC %.3f)\n",
			store.Location(report.MarkdownFile), best.Name, best.Test.ROCAUC)
	}
	return nil
}
