package postgres

import (
	"testing"
	"time"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRunsKeepsOrderAndModels(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)
	flat := []runRow{
		{runID: "b", createdAt: t1, rows: 10, model: models.ModelRun{Model: "gradient_boosting", ROCAUC: 0.8}},
		{runID: "b", createdAt: t1, rows: 10, model: models.ModelRun{Model: "logistic_regression", ROCAUC: 0.7}},
		{runID: "a", createdAt: t0, rows: 8, model: models.ModelRun{Model: "logistic_regression", ROCAUC: 0.6}},
	}

	runs := groupRuns(flat)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].RunID)
	assert.Equal(t, 10, runs[0].Rows)
	require.Len(t, runs[0].Models, 2)
	assert.Equal(t, "gradient_boosting", runs[0].Models[0].Model)

	assert.Equal(t, "a", runs[1].RunID)
	assert.Len(t, runs[1].Models, 1)

	best, ok := runs[0].Best()
	require.True(t, ok)
	assert.Equal(t, "gradient_boosting", best.Model)
}

func TestGroupRunsEmpty(t *testing.T) {
	assert.Empty(t, groupRuns(nil))
}
