package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
    CREATE TABLE IF NOT EXISTS model_runs (
        run_id      TEXT NOT NULL,
        model       TEXT NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL,
        data_dir    TEXT NOT NULL,
        rows_total  INTEGER NOT NULL,
        negatives   INTEGER NOT NULL,
        train_rows  INTEGER NOT NULL,
        test_rows   INTEGER NOT NULL,
        params      JSONB NOT NULL,
        scoring     TEXT NOT NULL,
        cv_score    DOUBLE PRECISION,
        cv_std      DOUBLE PRECISION,
        roc_auc     DOUBLE PRECISION,
        pr_auc      DOUBLE PRECISION,
        threshold   DOUBLE PRECISION,
        accuracy    DOUBLE PRECISION,
        precision_score DOUBLE PRECISION,
        recall      DOUBLE PRECISION,
        f1          DOUBLE PRECISION,
        PRIMARY KEY (run_id, model)
    )`

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Connect opens a pool and checks the server is reachable.
func Connect(ctx context.Context, cfg models.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *RunRepository) Save(ctx context.Context, run models.RunSummary) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO model_runs (
            run_id, model, created_at, data_dir, rows_total, negatives,
            train_rows, test_rows, params, scoring, cv_score, cv_std,
            roc_auc, pr_auc, threshold, accuracy, precision_score, recall, f1
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
            $11, $12, $13, $14, $15, $16, $17, $18, $19
        )
        ON CONFLICT (run_id, model) DO NOTHING
    `

	for _, m := range run.Models {
		params, err := json.Marshal(m.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params of %s: %w", m.Model, err)
		}
		_, err = tx.Exec(ctx, query,
			run.RunID,
			m.Model,
			run.CreatedAt,
			run.DataDir,
			run.Rows,
			run.Negatives,
			run.TrainRows,
			run.TestRows,
			params,
			m.Scoring,
			m.CVScore,
			m.CVStd,
			m.ROCAUC,
			m.PRAUC,
			m.Threshold,
			m.Accuracy,
			m.Precision,
			m.Recall,
			m.F1,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Latest returns the most recent runs, newest first.
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]models.RunSummary, error) {
	query := `
        SELECT
            run_id, model, created_at, data_dir, rows_total, negatives,
            train_rows, test_rows, params, scoring, cv_score, cv_std,
            roc_auc, pr_auc, threshold, accuracy, precision_score, recall, f1
        FROM model_runs
        WHERE run_id IN (
            SELECT run_id FROM model_runs
            GROUP BY run_id
            ORDER BY MAX(created_at) DESC
            LIMIT $1
        )
        ORDER BY created_at DESC, run_id, model`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flat []runRow
	for rows.Next() {
		var row runRow
		var params []byte
		err := rows.Scan(
			&row.runID,
			&row.model.Model,
			&row.createdAt,
			&row.dataDir,
			&row.rows,
			&row.negatives,
			&row.trainRows,
			&row.testRows,
			&params,
			&row.model.Scoring,
			&row.model.CVScore,
			&row.model.CVStd,
			&row.model.ROCAUC,
			&row.model.PRAUC,
			&row.model.Threshold,
			&row.model.Accuracy,
			&row.model.Precision,
			&row.model.Recall,
			&row.model.F1,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(params, &row.model.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params of run %s: %w", row.runID, err)
		}
		flat = append(flat, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupRuns(flat), nil
}

func (r *RunRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT run_id) FROM model_runs").Scan(&count)
	return count, err
}

func (r *RunRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE model_runs")
	return err
}

type runRow struct {
	runID     string
	createdAt time.Time
	dataDir   string
	rows      int
	negatives int
	trainRows int
	testRows  int
	model     models.ModelRun
}

// groupRuns folds per-model rows back into summaries, keeping first-seen order.
func groupRuns(flat []runRow) []models.RunSummary {
	var runs []models.RunSummary
	index := make(map[string]int)
	for _, row := range flat {
		i, ok := index[row.runID]
		if !ok {
			i = len(runs)
			index[row.runID] = i
			runs = append(runs, models.RunSummary{
				RunID:     row.runID,
				CreatedAt: row.createdAt,
				DataDir:   row.dataDir,
				Rows:      row.rows,
				Negatives: row.negatives,
				TrainRows: row.trainRows,
				TestRows:  row.testRows,
			})
		}
		runs[i].Models = append(runs[i].Models, row.model)
	}
	return runs
}
