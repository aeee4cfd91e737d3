package cmd

import (
	"fmt"

	"github.com/chrisdamba/reviewclf/internal/output"
	"github.com/chrisdamba/reviewclf/internal/pipeline"
	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Build the order-level feature table and export it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		_, table, stats, err := pipeline.Prepare(ctx, cfg)
		if err != nil {
			return err
		}

		exporter := output.NewFeatureExporter(cfg.ExportFormat, cfg.OutputDir)
		factory, err := cloudFactory(ctx, cfg)
		if err != nil {
			return err
		}
		if factory != nil {
			exporter.WithCloud(factory, cfg.CloudStorage.BucketName, cfg.CloudStorage.Prefix)
		}

		path, err := exporter.Export(ctx, table.Records)
		if err != nil {
			return err
		}
		fmt.Printf("%d orders (%d negative) written to %s\n", stats.Kept, stats.Negatives, path)
		return nil
	},
}

func init() {
	featuresCmd.Flags().String("format", "csv", "Export format (csv, json or parquet)")
	bindFlags(featuresCmd, map[string]string{
		"export_format": "format",
	})
}
