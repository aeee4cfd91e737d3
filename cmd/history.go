package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/chrisdamba/reviewclf/internal/repositories"
	"github.com/chrisdamba/reviewclf/internal/repositories/postgres"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyPurge bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past report runs stored in Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := postgres.NewRunRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to create run history table: %w", err)
		}
		if historyPurge {
			return purgeHistory(ctx, os.Stdout, repo)
		}
		return showHistory(ctx, os.Stdout, repo, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of most recent runs to list")
	historyCmd.Flags().BoolVar(&historyPurge, "purge", false, "Delete every stored run instead of listing")
}

// showHistory prints one line per run with its best held-out model.
func showHistory(ctx context.Context, w io.Writer, repo repositories.RunRepository, limit int) error {
	if limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	runs, err := repo.Latest(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tROWS\tNEGATIVES\tBEST MODEL\tROC-AUC\tPR-AUC\tCV")
	for _, run := range runs {
		best, ok := run.Best()
		if !ok {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t-\t-\t-\t-\n",
				run.RunID, run.CreatedAt.UTC().Format("2006-01-02 15:04"), run.Rows, run.Negatives)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%.3f\t%.3f\t%.3f %s\n",
			run.RunID, run.CreatedAt.UTC().Format("2006-01-02 15:04"), run.Rows, run.Negatives,
			best.Model, best.ROCAUC, best.PRAUC, best.CVScore, best.Scoring)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "showing %d of %d runs\n", len(runs), total)
	return err
}

func purgeHistory(ctx context.Context, w io.Writer, repo repositories.RunRepository) error {
	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}
	if err := repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	_, err = fmt.Fprintf(w, "deleted %d runs\n", total)
	return err
}
