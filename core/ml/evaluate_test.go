package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfusion(t *testing.T) {
	actual := []Label{PN, PN, NN, NN, PN}
	predicted := []Label{PN, NN, NN, PN, PN}
	c, err := NewConfusion(actual, predicted)
	require.NoError(t, err)
	assert.Equal(t, Confusion{TP: 2, TN: 1, FP: 1, FN: 1}, c)
	assert.Equal(t, 5, c.Total())

	acc, err := ComputeAccuracy(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, acc, 1e-12)
}

func TestAccuracyInvariantToRelabeling(t *testing.T) {
	swap := func(ls []Label) []Label {
		out := make([]Label, len(ls))
		for i, l := range ls {
			out[i] = -l
		}
		return out
	}
	actual := []Label{PN, NN, NN, PN, PN, NN, PN}
	predicted := []Label{PN, PN, NN, NN, PN, NN, NN}

	a, err := ComputeAccuracy(actual, predicted)
	require.NoError(t, err)
	b, err := ComputeAccuracy(swap(actual), swap(predicted))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, _ := NewConfusion(actual, predicted)
	d, _ := NewConfusion(swap(actual), swap(predicted))
	assert.Equal(t, c.TP, d.TN)
	assert.Equal(t, c.FP, d.FN)
}

func TestAccuracyEdgeCases(t *testing.T) {
	_, err := ComputeAccuracy(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDataSet)

	var de *DimensionMismatchError
	_, err = ComputeAccuracy([]Label{PN}, []Label{PN, NN})
	assert.ErrorAs(t, err, &de)

	acc, err := ComputeAccuracy([]Label{NN, NN}, []Label{NN, NN})
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestConfusionRejectsBadLabels(t *testing.T) {
	_, err := ComputeAccuracy([]Label{0}, []Label{0})
	assert.ErrorIs(t, err, ErrBadLabel)

	_, err = NewConfusion([]Label{PN, NN}, []Label{PN, 3})
	assert.ErrorIs(t, err, ErrBadLabel)
	assert.Contains(t, err.Error(), "predicted label 1")
}
