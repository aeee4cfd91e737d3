package report

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"github.com/chrisdamba/reviewclf/internal/evaluation"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 7 * vg.Inch
	plotHeight = 4.5 * vg.Inch

	// bars shown in the coefficient and importance charts
	maxBars = 15
)

var (
	negativeColor = color.NRGBA{R: 214, G: 39, B: 40, A: 150}
	positiveColor = color.NRGBA{R: 31, G: 119, B: 180, A: 150}
)

func encodePNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ScorePlot is a bar chart of raw review scores 1-5.
func ScorePlot(counts map[int]int) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Review score distribution"
	p.X.Label.Text = "score"
	p.Y.Label.Text = "reviews"

	values := make(plotter.Values, 5)
	names := make([]string, 5)
	for s := 1; s <= 5; s++ {
		values[s-1] = float64(counts[s])
		names[s-1] = strconv.Itoa(s)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	return encodePNG(p, plotWidth, plotHeight)
}

// ClassHistogram overlays normalized histograms of one feature per class.
func ClassHistogram(title, xLabel string, values ClassValues, bins int) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "density"
	p.Legend.Top = true

	series := []struct {
		name   string
		values []float64
		fill   color.Color
	}{
		{"positive", values.Positive, positiveColor},
		{"negative", values.Negative, negativeColor},
	}
	for _, s := range series {
		if len(s.values) < 2 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(s.values), bins)
		if err != nil {
			return nil, fmt.Errorf("%s histogram: %w", s.name, err)
		}
		h.Normalize(1)
		h.FillColor = s.fill
		h.LineStyle.Width = 0
		p.Add(h)
		p.Legend.Add(s.name, h)
	}
	return encodePNG(p, plotWidth, plotHeight)
}

// Curve is one model's line on a shared chart.
type Curve struct {
	Name   string
	Points plotter.XYs
}

func ROCCurves(models []ModelReport) []Curve {
	var curves []Curve
	for _, m := range models {
		xys := make(plotter.XYs, len(m.Test.ROC))
		for i, pt := range m.Test.ROC {
			xys[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		curves = append(curves, Curve{Name: fmt.Sprintf("%s (AUC %.3f)", m.Name, m.Test.ROCAUC), Points: xys})
	}
	return curves
}

func PRCurves(models []ModelReport) []Curve {
	var curves []Curve
	for _, m := range models {
		xys := make(plotter.XYs, len(m.Test.PR))
		for i, pt := range m.Test.PR {
			xys[i] = plotter.XY{X: pt.Recall, Y: pt.Precision}
		}
		curves = append(curves, Curve{Name: fmt.Sprintf("%s (AP %.3f)", m.Name, m.Test.PRAUC), Points: xys})
	}
	return curves
}

// CurvePlot draws curves on the unit square. baseline, when set, is drawn
// dashed as the no-skill reference.
func CurvePlot(title, xLabel, yLabel string, curves []Curve, baseline plotter.XYs) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = true
	p.Legend.Left = false
	p.Add(plotter.NewGrid())

	if len(baseline) > 0 {
		ref, err := plotter.NewLine(baseline)
		if err != nil {
			return nil, err
		}
		ref.Color = color.Gray{Y: 150}
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(ref)
	}
	for i, c := range curves {
		if len(c.Points) == 0 {
			continue
		}
		line, err := plotter.NewLine(c.Points)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(c.Name, line)
	}
	return encodePNG(p, plotWidth, plotWidth*0.8)
}

// WeightPlot is a horizontal bar chart of the largest weights.
func WeightPlot(title string, weights []Weight) ([]byte, error) {
	if len(weights) > maxBars {
		weights = weights[:maxBars]
	}
	p := plot.New()
	p.Title.Text = title

	// the first weight is drawn at the top
	values := make(plotter.Values, len(weights))
	names := make([]string, len(weights))
	for i, w := range weights {
		j := len(weights) - 1 - i
		values[j] = w.Value
		names[j] = w.Feature
	}
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalY(names...)
	return encodePNG(p, plotWidth+2*vg.Inch, plotHeight)
}

func rocBaseline() plotter.XYs {
	return plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
}

func prBaseline(summary evaluation.Summary) plotter.XYs {
	return plotter.XYs{{X: 0, Y: summary.Prevalence}, {X: 1, Y: summary.Prevalence}}
}
