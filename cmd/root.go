package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/reviewclf/internal/cloudwriter"
	"github.com/chrisdamba/reviewclf/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "reviewclf",
	Short: "Predicts negative e-commerce reviews from order data",
	Long: `reviewclf loads the marketplace order tables, engineers order-level features,
tunes a logistic regression and a gradient-boosted tree model with cross-validated
grid search, and renders a report of how well each flags negative reviews.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return setupLogging(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./reviewclf.yaml)")

	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", "data", "Directory holding the eight source CSV files")
	flags.Int64("seed", 42, "Random seed for splits, folds and sampling")
	flags.Int("workers", 12, "Concurrent model fits during the search")
	flags.String("output-dir", "report", "Directory for the report and exported files")
	flags.Float64("max-response-hours", 240, "Drop reviews answered slower than this many hours")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.Bool("progress", true, "Show progress bars on stderr")

	bindFlags(rootCmd, map[string]string{
		"data_dir":           "data-dir",
		"seed":               "seed",
		"workers":            "workers",
		"output_dir":         "output-dir",
		"max_response_hours": "max-response-hours",
		"log_level":          "log-level",
		"log_format":         "log-format",
		"progress":           "progress",
	})

	rootCmd.AddCommand(reportCmd, featuresCmd, generateCmd, historyCmd)
}

// bindFlags ties config keys to the named flags of cmd.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		cobra.CheckErr(viper.BindPFlag(key, flag))
	}
}

func setupLogging(cfg *models.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if used := viper.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("using config file")
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM so searches stop early.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cloudFactory(ctx context.Context, cfg *models.Config) (cloudwriter.CloudWriterFactory, error) {
	if cfg.OutputDestination != "cloud" {
		return nil, nil
	}
	switch cfg.CloudStorage.Provider {
	case "s3":
		factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return factory, nil
	default:
		return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
