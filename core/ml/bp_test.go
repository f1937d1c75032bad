package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"learnkit/common"
	"learnkit/test/mock"
)

func newTestBP(hidden, outputs int, opts ...Option) *BP {
	conf := DefaultBPConfig()
	conf.Hidden = hidden
	conf.Outputs = outputs
	opts = append([]Option{WithLogger(mock.GetMockLogger("bp"))}, opts...)
	return NewBP(conf, opts...)
}

// trainWithRestarts retries from new seeds until one run converges, since a small
// network can get stuck in a local minimum of XOR.
func trainWithRestarts(t *testing.T, hidden, outputs int, ds *DataSet) (*BP, *mock.Recorder) {
	for seed := int64(1); seed <= 40; seed++ {
		rec := &mock.Recorder{}
		b := newTestBP(hidden, outputs, WithSeed(seed), WithBus(mock.NewRecordingBus(rec)))
		err := b.Train(ds)
		if err == nil {
			return b, rec
		}
		require.True(t, IsConvergence(err), "unexpected error %v", err)
	}
	t.Fatalf("no restart converged for J=%d K=%d", hidden, outputs)
	return nil, nil
}

func TestBPSolvesXOR(t *testing.T) {
	ds := xorSet(t)
	for _, outputs := range []int{1, 2} {
		for _, hidden := range []int{2, 3} {
			b, _ := trainWithRestarts(t, hidden, outputs, ds)
			assert.Equal(t, Trained, b.State())
			assert.Less(t, b.Loss(), DefaultEMin)

			acc, err := b.Accuracy(ds)
			require.NoError(t, err)
			assert.Equal(t, 1.0, acc, "J=%d K=%d", hidden, outputs)
		}
	}
}

func TestBPLossTrendsDown(t *testing.T) {
	b, rec := trainWithRestarts(t, 3, 1, xorSet(t))

	epochs := rec.Epochs(common.LocalTrainMsg_Epoch)
	require.Len(t, epochs, b.Epochs())
	first, last := epochs[0].Loss, epochs[len(epochs)-1].Loss
	assert.Less(t, last, first)
	assert.Less(t, last, DefaultEMin)
	assert.Equal(t, b.Loss(), last)

	n := len(epochs) / 10
	if n > 0 {
		assert.Less(t, meanLoss(epochs[len(epochs)-n:]), meanLoss(epochs[:n]))
	}
	assert.Len(t, rec.Epochs(common.LocalTrainMsg_Converged), 1)
}

func meanLoss(reps []common.EpochReport) float64 {
	sum := 0.0
	for _, r := range reps {
		sum += r.Loss
	}
	return sum / float64(len(reps))
}

func TestBPSeededIsReproducible(t *testing.T) {
	ds := xorSet(t)
	a := newTestBP(2, 1, WithSeed(42))
	b := newTestBP(2, 1, WithSeed(42))
	errA, errB := a.Train(ds), b.Train(ds)
	assert.Equal(t, errA == nil, errB == nil)
	assert.True(t, mat.Equal(a.V(), b.V()))
	assert.True(t, mat.Equal(a.W(), b.W()))
	assert.Equal(t, a.Epochs(), b.Epochs())
}

func TestBPInitialWeightsInRange(t *testing.T) {
	b := newTestBP(4, 2, WithSeed(3))
	b.initWeights(3, 4, 2)

	r, c := b.v.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	r, c = b.w.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 5, c)
	for _, m := range []*mat.Dense{b.v, b.w} {
		assert.LessOrEqual(t, mat.Max(m), 1.0)
		assert.GreaterOrEqual(t, mat.Min(m), -1.0)
	}
}

func TestBPStateMachine(t *testing.T) {
	b := newTestBP(0, 1)
	assert.Equal(t, Uninitialized, b.State())

	var se *InvalidStateError
	_, err := b.Classify(Example{0, 1})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "uninitialized", se.State)

	err = b.Train(xorSet(t))
	require.ErrorAs(t, err, &se, "hidden unit count is required")
	assert.Equal(t, Uninitialized, b.State())

	b.SetHidden(2)
	b.conf.MaxEpochs = 3
	err = b.Train(xorSet(t))
	require.True(t, IsConvergence(err))
	assert.Equal(t, Trained, b.State())
	assert.Equal(t, 3, b.Epochs())

	_, err = b.Classify(Example{0, 1})
	assert.NoError(t, err)
}

func TestBPRejectsBadOutputs(t *testing.T) {
	b := newTestBP(2, 3)
	var se *InvalidStateError
	assert.ErrorAs(t, b.Train(xorSet(t)), &se)
}

func TestBPTieBreaks(t *testing.T) {
	// zero output weights give every output unit exactly 0.5
	v := mat.NewDense(2, 3, []float64{1, -1, 0, 0.5, 0.5, 0})

	single := newTestBP(2, 1)
	require.NoError(t, single.SetWeights(v, mat.NewDense(1, 3, nil)))
	y, err := single.Classify(Example{1, 0})
	require.NoError(t, err)
	assert.Equal(t, NN, y, "K=1 ties are negative")

	dual := newTestBP(2, 2)
	require.NoError(t, dual.SetWeights(v, mat.NewDense(2, 3, nil)))
	y, err = dual.Classify(Example{1, 0})
	require.NoError(t, err)
	assert.Equal(t, PN, y, "K=2 ties go to the first unit")

	require.NoError(t, dual.SetWeights(v, mat.NewDense(2, 3, []float64{0, 0, -5, 0, 0, 5})))
	y, err = dual.Classify(Example{1, 0})
	require.NoError(t, err)
	assert.Equal(t, NN, y)
}

func TestBPSetWeightsShapes(t *testing.T) {
	b := newTestBP(2, 1)
	var de *DimensionMismatchError

	err := b.SetWeights(mat.NewDense(3, 3, nil), mat.NewDense(1, 3, nil))
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "V", de.What)

	err = b.SetWeights(mat.NewDense(2, 3, nil), mat.NewDense(1, 2, nil))
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "W", de.What)
	assert.Equal(t, "1x3", de.Want)
	assert.Equal(t, "1x2", de.Got)
	assert.Equal(t, Uninitialized, b.State())

	require.NoError(t, b.SetWeights(mat.NewDense(2, 3, nil), mat.NewDense(1, 3, nil)))
	err = b.SetWeights(mat.NewDense(2, 4, nil), mat.NewDense(1, 3, nil))
	assert.ErrorAs(t, err, &de)

	_, err = b.Classify(Example{1, 2, 3})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "example", de.What)
}

func TestBPForwardMatchesFormula(t *testing.T) {
	b := newTestBP(1, 1)
	v := mat.NewDense(1, 2, []float64{2, -1})
	w := mat.NewDense(1, 2, []float64{3, -1})
	require.NoError(t, b.SetWeights(v, w))

	o, err := b.Outputs(Example{1})
	require.NoError(t, err)
	h := b.sigmoid(2*1 - 1*1)
	assert.InDelta(t, b.sigmoid(3*h-1), o[0], 1e-12)
}

func TestBPHoldOut(t *testing.T) {
	rows := append(append([]Example{}, truthTable...), truthTable...)
	ds, err := NewDataSet(rows, []Label{NN, PN, PN, NN, NN, PN, PN, NN})
	require.NoError(t, err)

	for seed := int64(1); seed <= 40; seed++ {
		b := newTestBP(3, 2, WithSeed(seed))
		acc, err := b.HoldOut(0.5, ds)
		if IsConvergence(err) {
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, 1.0, acc)
		return
	}
	t.Fatal("no restart converged")
}

func TestBPString(t *testing.T) {
	b := newTestBP(2, 1)
	assert.Contains(t, b.String(), "uninitialized")

	require.NoError(t, b.SetWeights(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewDense(1, 3, []float64{5, 6, 7})))
	s := b.String()
	assert.Contains(t, s, "V = ")
	assert.Contains(t, s, "W = ")
	assert.Contains(t, s, "7.000")
}
