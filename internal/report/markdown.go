package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/chrisdamba/reviewclf/internal/models"
)

var funcs = template.FuncMap{
	"f3":  func(v float64) string { return formatFixed(v, 3) },
	"f2":  func(v float64) string { return formatFixed(v, 2) },
	"num": func(v models.Number) string { return formatFixed(float64(v), 2) },
	"pct": func(v float64) string { return formatFixed(100*v, 1) + "%" },
	"top": func(n int, ws []Weight) []Weight {
		if len(ws) > n {
			return ws[:n]
		}
		return ws
	},
	"add":   func(a, b int) int { return a + b },
	"title": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
}

func formatFixed(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

var markdown = template.Must(template.New("report").Funcs(funcs).Parse(`# Review sentiment report

Run ` + "`{{.RunID}}`" + ` created {{.CreatedAt.Format "2006-01-02 15:04:05 MST"}} from ` + "`{{.DataDir}}`" + `.

## Data

| Table | Rows |
|---|---:|
| orders | {{.Dataset.Orders}} |
| order items | {{.Dataset.Items}} |
| reviews | {{.Dataset.Reviews}} |
| products | {{.Dataset.Products}} |
| sellers | {{.Dataset.Sellers}} |
| payments | {{.Dataset.Payments}} |
| customers | {{.Dataset.Customers}} |
| geolocation | {{.Dataset.Geolocation}} |

{{.Build.ReviewedOrders}} orders carry a review ({{.Build.DuplicateReviews}} duplicate reviews resolved to the latest answer).
Neutral scores of 3 removed {{.Build.NeutralDropped}} orders and {{.Build.ResponseFiltered}} more were dropped for a survey response slower than the cutoff.{{if .Build.InvalidScores}} {{.Build.InvalidScores}} orders had a missing or out-of-range score and were skipped.{{end}}
The modelling table keeps **{{.Build.Kept}}** orders, of which {{.Build.Negatives}} are negative ({{pct .EDA.NegativeRate}}).

![Review scores](score_distribution.png)

## Exploratory analysis

| Feature | Missing | Median (neg) | Median (pos) | Mean (neg) | Mean (pos) | Corr. with negative |
|---|---:|---:|---:|---:|---:|---:|
{{- range .EDA.Numeric}}
| {{.Name}} | {{.All.Missing}} | {{num .Negative.Median}} | {{num .Positive.Median}} | {{num .Negative.Mean}} | {{num .Positive.Mean}} | {{num .Correlation}} |
{{- end}}

![Delivery days by class](delivery_days.png)
{{range .EDA.Categorical}}
### {{title .Name}}

| Level | Orders | Negative rate |
|---|---:|---:|
{{- range .Levels}}
| {{.Level}} | {{.Count}} | {{pct .NegativeRate}} |
{{- end}}
{{end}}
## Modelling

Train/test split: {{.TrainRows}} / {{.TestRows}} rows, stratified on the label.
Hyperparameters were chosen by {{.CVFolds}}-fold stratified cross-validation on {{.Workers}} workers.
Missing numeric values are imputed with training medians; {{len .Features}} encoded columns feed the models.
{{range .Models}}
### {{title .Name}}
{{- with .Search}}

Best parameters ` + "`{{.Best.Params}}`" + ` scored {{f3 .Best.MeanScore}} ± {{f3 .Best.StdScore}} {{.Scoring}} over {{.Folds}} folds ({{len .Candidates}} candidates).
{{- end}}

Held-out ROC-AUC **{{f3 .Test.ROCAUC}}**, PR-AUC **{{f3 .Test.PRAUC}}**, log loss {{f3 .Test.LogLoss}}, Brier {{f3 .Test.Brier}}.

| Threshold | TP | FP | TN | FN | Accuracy | Precision | Recall | F1 |
|---:|---:|---:|---:|---:|---:|---:|---:|---:|
{{- range .Test.Thresholds}}
| {{f2 .Threshold}} | {{.TP}} | {{.FP}} | {{.TN}} | {{.FN}} | {{f3 .Accuracy}} | {{f3 .Precision}} | {{f3 .Recall}} | {{f3 .F1}} |
{{- end}}
{{- if .Coefficients}}

| Feature | Coefficient |
|---|---:|
{{- range top 15 .Coefficients}}
| {{.Feature}} | {{f3 .Value}} |
{{- end}}
{{- end}}
{{- if .Importance}}

| Feature | Importance |
|---|---:|
{{- range top 15 .Importance}}
| {{.Feature}} | {{f3 .Value}} |
{{- end}}
{{- end}}
{{end}}
![ROC curves](roc.png)
![Precision-recall curves](pr.png)
{{- range .Plots}}{{if eq . "coefficients.png"}}
![Logistic coefficients](coefficients.png){{end}}{{if eq . "importance.png"}}
![Feature importance](importance.png){{end}}{{end}}
{{with $best := .BestModel}}
## Conclusion

The best held-out model is {{title $best.Name}} with ROC-AUC {{f3 $best.Test.ROCAUC}}.
{{- range $best.Test.Thresholds}}
At threshold {{f2 .Threshold}} it flags {{.TP}} of {{add .TP .FN}} negative reviews (recall {{pct .Recall}}) at precision {{pct .Precision}}.
{{- end}}
Lowering the threshold trades precision for recall, catching more unhappy customers at the cost of more false alarms.
{{end}}`))

// BestModel is Best for templates.
func (r *Report) BestModel() *ModelReport {
	best, ok := r.Best()
	if !ok {
		return nil
	}
	return &best
}

func (r *Report) Markdown() ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
