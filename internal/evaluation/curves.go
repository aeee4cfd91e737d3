package evaluation

import (
	"math"
	"sort"
)

type ROCPoint struct {
	Threshold float64 `json:"threshold"`
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
}

type PRPoint struct {
	Threshold float64 `json:"threshold"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
}

// cumulative walks scores from high to low and reports true/false positive
// counts after each distinct score, so tied scores move together.
func cumulative(y, probs []float64) (thresholds []float64, tps, fps []int, pos, neg int) {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}

	tp, fp := 0, 0
	for k, i := range order {
		if y[i] == 1 {
			tp++
		} else {
			fp++
		}
		if k == len(order)-1 || probs[order[k+1]] != probs[i] {
			thresholds = append(thresholds, probs[i])
			tps = append(tps, tp)
			fps = append(fps, fp)
		}
	}
	return thresholds, tps, fps, pos, neg
}

// ROCCurve starts at (0, 0) with an infinite threshold.
func ROCCurve(y, probs []float64) ([]ROCPoint, error) {
	if err := checkInputs(y, probs); err != nil {
		return nil, err
	}
	thresholds, tps, fps, pos, neg := cumulative(y, probs)
	if pos == 0 || neg == 0 {
		return nil, ErrSingleClass
	}
	points := make([]ROCPoint, 0, len(thresholds)+1)
	points = append(points, ROCPoint{Threshold: math.Inf(1)})
	for k, t := range thresholds {
		points = append(points, ROCPoint{
			Threshold: t,
			FPR:       float64(fps[k]) / float64(neg),
			TPR:       float64(tps[k]) / float64(pos),
		})
	}
	return points, nil
}

// ROCAUC integrates the ROC curve with the trapezoid rule.
func ROCAUC(y, probs []float64) (float64, error) {
	points, err := ROCCurve(y, probs)
	if err != nil {
		return 0, err
	}
	var area float64
	for k := 1; k < len(points); k++ {
		area += (points[k].FPR - points[k-1].FPR) * (points[k].TPR + points[k-1].TPR) / 2
	}
	return area, nil
}

// PRCurve is ordered by decreasing threshold, i.e. increasing recall.
func PRCurve(y, probs []float64) ([]PRPoint, error) {
	if err := checkInputs(y, probs); err != nil {
		return nil, err
	}
	thresholds, tps, fps, pos, neg := cumulative(y, probs)
	if pos == 0 || neg == 0 {
		return nil, ErrSingleClass
	}
	points := make([]PRPoint, len(thresholds))
	for k, t := range thresholds {
		points[k] = PRPoint{
			Threshold: t,
			Recall:    float64(tps[k]) / float64(pos),
			Precision: float64(tps[k]) / float64(tps[k]+fps[k]),
		}
	}
	return points, nil
}

// AveragePrecision is the step-wise area under the PR curve:
// sum over thresholds of (R_k - R_k-1) * P_k.
func AveragePrecision(y, probs []float64) (float64, error) {
	points, err := PRCurve(y, probs)
	if err != nil {
		return 0, err
	}
	var ap, prevRecall float64
	for _, p := range points {
		ap += (p.Recall - prevRecall) * p.Precision
		prevRecall = p.Recall
	}
	return ap, nil
}

// LogLoss clips probabilities to [eps, 1-eps].
func LogLoss(y, probs []float64) (float64, error) {
	if err := checkInputs(y, probs); err != nil {
		return 0, err
	}
	const eps = 1e-15
	var sum float64
	for i, p := range probs {
		p = math.Max(eps, math.Min(1-eps, p))
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(y)), nil
}

func Brier(y, probs []float64) (float64, error) {
	if err := checkInputs(y, probs); err != nil {
		return 0, err
	}
	var sum float64
	for i, p := range probs {
		d := p - y[i]
		sum += d * d
	}
	return sum / float64(len(y)), nil
}
