package ml

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyDataSet is returned when training or evaluating on zero examples.
	// Accuracy of an empty test split is undefined.
	ErrEmptyDataSet = errors.New("data set is empty")
	// ErrBadProportion is returned for hold-out fractions outside [0, 1].
	ErrBadProportion = errors.New("proportion must be within [0, 1]")
	// ErrBadLabel is returned for a label other than PN or NN.
	ErrBadLabel = errors.New("label must be +1 or -1")
)

// DataFormatError reports a malformed record found while loading a data set.
type DataFormatError struct {
	File  string
	Line  int
	Token string
	Err   error
}

func (e *DataFormatError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s:%d: bad token %q: %s", e.File, e.Line, e.Token, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// ConvergenceError reports that the epoch budget ran out before the stopping rule held.
// It is an expected outcome on hard data, not a crash.
type ConvergenceError struct {
	Model  string
	Epochs int
	// Loss is the last epoch's summed squared error for bp and its update count for
	// the perceptron.
	Loss float64
}

func (e *ConvergenceError) Error() string {
	if e.Model == "perceptron" {
		return fmt.Sprintf("%s failed to converge after %d epochs (%d updates in the last epoch)", e.Model, e.Epochs, int(e.Loss))
	}
	return fmt.Sprintf("%s failed to converge after %d epochs (loss %.5f)", e.Model, e.Epochs, e.Loss)
}

// DimensionMismatchError reports a vector or matrix whose shape disagrees with the model.
type DimensionMismatchError struct {
	What string
	Want string
	Got  string
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: want %s, got %s", e.What, e.Want, e.Got)
}

func mismatch(what string, want, got int) error {
	return &DimensionMismatchError{What: what, Want: fmt.Sprint(want), Got: fmt.Sprint(got)}
}

func shapeMismatch(what string, wr, wc, gr, gc int) error {
	return &DimensionMismatchError{
		What: what,
		Want: fmt.Sprintf("%dx%d", wr, wc),
		Got:  fmt.Sprintf("%dx%d", gr, gc),
	}
}

// InvalidStateError reports an operation attempted in the wrong model state, such as
// classifying before training.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: model is %s", e.Op, e.State)
}

// IsConvergence reports whether err is, or wraps, a ConvergenceError.
func IsConvergence(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}
