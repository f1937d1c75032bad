package ml

import (
	"fmt"

	"github.com/pkg/errors"
)

// Confusion holds the counts of a two-class confusion matrix, PN being positive.
type Confusion struct {
	TP, TN, FP, FN int
}

// NewConfusion counts predictions against the actual labels, position by position.
func NewConfusion(actual, predicted []Label) (Confusion, error) {
	var c Confusion
	if len(actual) != len(predicted) {
		return c, mismatch("predicted labels", len(actual), len(predicted))
	}
	for i, a := range actual {
		p := predicted[i]
		if err := checkLabel(a); err != nil {
			return Confusion{}, errors.Wrapf(err, "actual label %d", i)
		}
		if err := checkLabel(p); err != nil {
			return Confusion{}, errors.Wrapf(err, "predicted label %d", i)
		}
		switch {
		case a == PN && p == PN:
			c.TP++
		case a == NN && p == NN:
			c.TN++
		case a == NN && p == PN:
			c.FP++
		case a == PN && p == NN:
			c.FN++
		}
	}
	return c, nil
}

func (c Confusion) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

func (c Confusion) Correct() int {
	return c.TP + c.TN
}

// Accuracy is (TP+TN)/total. It is undefined for zero predictions.
func (c Confusion) Accuracy() (float64, error) {
	if c.Total() == 0 {
		return 0, ErrEmptyDataSet
	}
	return float64(c.Correct()) / float64(c.Total()), nil
}

func (c Confusion) String() string {
	return fmt.Sprintf("TP=%d TN=%d FP=%d FN=%d", c.TP, c.TN, c.FP, c.FN)
}

// ComputeAccuracy returns the fraction of positions where predicted equals actual.
func ComputeAccuracy(actual, predicted []Label) (float64, error) {
	c, err := NewConfusion(actual, predicted)
	if err != nil {
		return 0, err
	}
	return c.Accuracy()
}
