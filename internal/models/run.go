package models

import "time"

// ModelRun is the compact outcome of one tuned model, as published to
// Kafka and stored in Postgres.
type ModelRun struct {
	Model     string         `json:"model"`
	Params    map[string]any `json:"params"`
	Scoring   string         `json:"scoring"`
	CVScore   float64        `json:"cv_score"`
	CVStd     float64        `json:"cv_std"`
	ROCAUC    float64        `json:"test_roc_auc"`
	PRAUC     float64        `json:"test_pr_auc"`
	Threshold float64        `json:"threshold"`
	Accuracy  float64        `json:"accuracy"`
	Precision float64        `json:"precision"`
	Recall    float64        `json:"recall"`
	F1        float64        `json:"f1"`
}

type RunSummary struct {
	RunID     string     `json:"run_id"`
	CreatedAt time.Time  `json:"created_at"`
	DataDir   string     `json:"data_dir"`
	Rows      int        `json:"rows"`
	Negatives int        `json:"negatives"`
	TrainRows int        `json:"train_rows"`
	TestRows  int        `json:"test_rows"`
	Models    []ModelRun `json:"models"`
}

// Best returns the model with the highest held-out ROC-AUC.
func (r RunSummary) Best() (ModelRun, bool) {
	if len(r.Models) == 0 {
		return ModelRun{}, false
	}
	best := r.Models[0]
	for _, m := range r.Models[1:] {
		if m.ROCAUC > best.ROCAUC {
			best = m
		}
	}
	return best, true
}
