package cmd

import (
	"fmt"

	"github.com/chrisdamba/reviewclf/internal/simulator"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic dataset with the source schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		sim := simulator.NewSimulator(cfg.Generator, cfg.Seed)
		sim.Progress = cfg.Progress
		ds, err := sim.Generate(ctx)
		if err != nil {
			return err
		}
		if err := simulator.NewCSVOutput(cfg.Generator.OutputDir, cfg.Files).Write(ctx, ds); err != nil {
			return err
		}
		fmt.Printf("%d orders and %d reviews written to %s\n", len(ds.Orders), len(ds.Reviews), cfg.Generator.OutputDir)
		return nil
	},
}

func init() {
	flags := generateCmd.Flags()
	flags.Int("orders", 5000, "Number of orders")
	flags.Int("customers", 3000, "Number of customers")
	flags.Int("sellers", 150, "Number of sellers")
	flags.Int("products", 800, "Number of products")
	flags.String("start-date", "2017-01-01T00:00:00Z", "First purchase timestamp (RFC3339)")
	flags.String("end-date", "2018-08-31T00:00:00Z", "Last purchase timestamp (RFC3339)")
	flags.String("out", "data", "Directory to write the CSV files to")

	bindFlags(generateCmd, map[string]string{
		"generator.orders":     "orders",
		"generator.customers":  "customers",
		"generator.sellers":    "sellers",
		"generator.products":   "products",
		"generator.start_date": "start-date",
		"generator.end_date":   "end-date",
		"generator.output_dir": "out",
	})
}
