package ml

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Label is a two-class label. The numeric values double as the sign used by the
// perceptron update rule.
type Label int

const (
	PN Label = 1
	NN Label = -1
)

func (l Label) String() string {
	switch l {
	case PN:
		return "+1"
	case NN:
		return "-1"
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// Valid reports whether l is PN or NN.
func (l Label) Valid() bool {
	return l == PN || l == NN
}

func checkLabel(l Label) error {
	if !l.Valid() {
		return errors.Wrapf(ErrBadLabel, "got %s", l)
	}
	return nil
}

// Float returns the label as ±1.0.
func (l Label) Float() float64 {
	return float64(l)
}

// LabelOf maps a numeric class value onto a Label. Only ±1 are accepted.
func LabelOf(v float64) (Label, bool) {
	switch v {
	case 1:
		return PN, true
	case -1:
		return NN, true
	}
	return NN, false
}

// Example is one feature vector, without the bias term.
type Example []float64

// DataSet is an ordered list of labelled examples of one arity.
type DataSet struct {
	examples []Example
	labels   []Label
	arity    int
}

// NewDataSet builds a data set from parallel slices.
func NewDataSet(examples []Example, labels []Label) (*DataSet, error) {
	if len(examples) != len(labels) {
		return nil, mismatch("labels", len(examples), len(labels))
	}
	ds := &DataSet{}
	for i := range examples {
		if err := ds.Add(examples[i], labels[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Add appends a copy of x. The first example fixes the arity of the set.
func (ds *DataSet) Add(x Example, y Label) error {
	if err := checkLabel(y); err != nil {
		return err
	}
	if len(x) == 0 {
		return mismatch("example", ds.arity, 0)
	}
	if len(ds.examples) > 0 && len(x) != ds.arity {
		return mismatch("example", ds.arity, len(x))
	}
	ds.arity = len(x)
	ds.examples = append(ds.examples, append(Example(nil), x...))
	ds.labels = append(ds.labels, y)
	return nil
}

func (ds *DataSet) Len() int {
	return len(ds.examples)
}

// Arity is the number of features per example, 0 for an empty set.
func (ds *DataSet) Arity() int {
	return ds.arity
}

func (ds *DataSet) Example(i int) Example {
	return ds.examples[i]
}

func (ds *DataSet) Label(i int) Label {
	return ds.labels[i]
}

// Labels returns a copy of the labels in data set order.
func (ds *DataSet) Labels() []Label {
	out := make([]Label, len(ds.labels))
	copy(out, ds.labels)
	return out
}

// Slice returns the examples in [from, to) as a new data set sharing the feature vectors.
func (ds *DataSet) Slice(from, to int) *DataSet {
	out := &DataSet{
		examples: ds.examples[from:to:to],
		labels:   ds.labels[from:to:to],
	}
	if to > from {
		out.arity = ds.arity
	}
	return out
}

// Split divides the set by position: the first floor(p*N) examples go to train, the rest
// to test. Nothing is shuffled.
func (ds *DataSet) Split(p float64) (train, test *DataSet, err error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, nil, ErrBadProportion
	}
	n := ds.Len()
	cut := int(p * float64(n))
	if cut > n {
		cut = n
	}
	return ds.Slice(0, cut), ds.Slice(cut, n), nil
}

func (ds *DataSet) String() string {
	var sb strings.Builder
	for i, x := range ds.examples {
		fmt.Fprintf(&sb, "Data: %v, label: %s\n", []float64(x), ds.labels[i])
	}
	return sb.String()
}
