// Package metrics evaluates binary classifiers and exports the results.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the probability at or above which a row is predicted
// fraudulent.
const DefaultThreshold = 0.5

// Metric names used in exported reports.
const (
	Accuracy  = "accuracy"
	Precision = "precision"
	Recall    = "recall"
	F1        = "f1_score"
	ROCAUC    = "roc_auc"
	PRAUC     = "pr_auc"
)

// ErrLengthMismatch is returned when labels and predictions differ in length.
var ErrLengthMismatch = errors.New("labels and predictions have different lengths")

// Predictor returns the positive-class probability of each row.
type Predictor interface {
	PredictProba(x [][]float64) []float64
}

// Confusion is a binary confusion matrix.
type Confusion struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Total returns the number of counted rows.
func (c Confusion) Total() int { return c.TN + c.FP + c.FN + c.TP }

// NewConfusion counts outcomes of yPred against yTrue. Labels are 0 or 1.
func NewConfusion(yTrue, yPred []int) Confusion {
	var c Confusion
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			c.TP++
		case yTrue[i] == 1:
			c.FN++
		case yPred[i] == 1:
			c.FP++
		default:
			c.TN++
		}
	}
	return c
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Accuracy returns the share of correct predictions.
func (c Confusion) Accuracy() float64 { return ratio(c.TP+c.TN, c.Total()) }

// Precision returns TP / (TP + FP), or 0 when nothing was predicted positive.
func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }

// Recall returns TP / (TP + FN), or 0 when there are no positives.
func (c Confusion) Recall() float64 { return ratio(c.TP, c.TP+c.FN) }

// F1 returns the harmonic mean of precision and recall, or 0 when both are 0.
func (c Confusion) F1() float64 { return ratio(2*c.TP, 2*c.TP+c.FP+c.FN) }

// Report holds the evaluation of a classifier on one dataset.
type Report struct {
	Threshold float64   `json:"threshold"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1_score"`
	ROCAUC    float64   `json:"roc_auc"`
	PRAUC     float64   `json:"pr_auc"`
	Confusion Confusion `json:"confusion_matrix"`

	YTrue  []int     `json:"-"`
	YPred  []int     `json:"-"`
	Scores []float64 `json:"-"`
}

// Metrics returns the scalar metrics by name. Undefined AUCs are omitted.
func (r *Report) Metrics() map[string]float64 {
	m := map[string]float64{
		Accuracy:  r.Accuracy,
		Precision: r.Precision,
		Recall:    r.Recall,
		F1:        r.F1,
	}
	if !math.IsNaN(r.ROCAUC) {
		m[ROCAUC] = r.ROCAUC
	}
	if !math.IsNaN(r.PRAUC) {
		m[PRAUC] = r.PRAUC
	}
	return m
}

// Evaluate predicts x with p and scores the predictions against y.
func Evaluate(p Predictor, x [][]float64, y []float64, threshold float64) (*Report, error) {
	return FromScores(y, p.PredictProba(x), threshold)
}

// FromScores builds a report from true labels and predicted probabilities.
// A row is predicted positive when its score is at least threshold.
func FromScores(y, scores []float64, threshold float64) (*Report, error) {
	if len(y) != len(scores) {
		return nil, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(y), len(scores))
	}
	if len(y) == 0 {
		return nil, errors.New("nothing to evaluate")
	}

	yTrue := make([]int, len(y))
	yPred := make([]int, len(y))
	for i := range y {
		if y[i] == 1 {
			yTrue[i] = 1
		}
		if scores[i] >= threshold {
			yPred[i] = 1
		}
	}
	c := NewConfusion(yTrue, yPred)

	return &Report{
		Threshold: threshold,
		Accuracy:  c.Accuracy(),
		Precision: c.Precision(),
		Recall:    c.Recall(),
		F1:        c.F1(),
		ROCAUC:    AreaUnderROC(yTrue, scores),
		PRAUC:     AreaUnderPR(yTrue, scores),
		Confusion: c,
		YTrue:     yTrue,
		YPred:     yPred,
		Scores:    scores,
	}, nil
}

// classCounts returns the number of positive and negative labels.
func classCounts(yTrue []int) (pos, neg int) {
	for _, v := range yTrue {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}

// AreaUnderROC returns the ROC AUC of scores, or NaN if only one class is
// present.
func AreaUnderROC(yTrue []int, scores []float64) float64 {
	if pos, neg := classCounts(yTrue); pos == 0 || neg == 0 {
		return math.NaN()
	}
	y := slices.Clone(scores)
	classes := make([]bool, len(yTrue))
	for i, v := range yTrue {
		classes[i] = v == 1
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// AreaUnderPR returns the area under the precision-recall curve, or NaN when
// there are no positives. The curve starts at recall 0, precision 1 and
// stops at the first threshold reaching full recall.
func AreaUnderPR(yTrue []int, scores []float64) float64 {
	pos, _ := classCounts(yTrue)
	if pos == 0 {
		return math.NaN()
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return 0
	})

	recall := []float64{0}
	precision := []float64{1}
	tp, fp := 0, 0
	for i, idx := range order {
		if yTrue[idx] == 1 {
			tp++
		} else {
			fp++
		}
		// Only emit a point once all rows sharing this score are counted.
		if i+1 < len(order) && scores[order[i+1]] == scores[idx] {
			continue
		}
		recall = append(recall, float64(tp)/float64(pos))
		precision = append(precision, float64(tp)/float64(tp+fp))
		if tp == pos {
			break
		}
	}
	return integrate.Trapezoidal(recall, precision)
}
