package ml

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"learnkit/common"
)

const (
	DefaultLambda = 1.0
	DefaultEMin   = 0.1
)

// BPState is the lifecycle of a network: Uninitialized -> Training -> Trained.
type BPState int

const (
	Uninitialized BPState = iota
	Training
	Trained
)

func (s BPState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Training:
		return "training"
	case Trained:
		return "trained"
	}
	return fmt.Sprintf("BPState(%d)", int(s))
}

type BPConfig struct {
	// Hidden is the number of computed hidden units J. It has no default.
	Hidden int
	// Outputs is 1 (single thresholded sigmoid) or 2 (one-hot, argmax decoding).
	Outputs int
	Eta     float64
	Lambda  float64
	// EMin stops training once an epoch's summed squared error falls below it.
	EMin float64
	// MaxEpochs bounds training; zero or less trains until convergence.
	MaxEpochs int
}

func DefaultBPConfig() BPConfig {
	return BPConfig{
		Outputs:   1,
		Eta:       DefaultEta,
		Lambda:    DefaultLambda,
		EMin:      DefaultEMin,
		MaxEpochs: DefaultMaxEpochs,
	}
}

func (c BPConfig) validate() error {
	if c.Hidden <= 0 {
		return &InvalidStateError{Op: "train", State: "missing hidden unit count"}
	}
	if c.Outputs != 1 && c.Outputs != 2 {
		return &InvalidStateError{Op: "train", State: fmt.Sprintf("configured with %d output units", c.Outputs)}
	}
	if c.Lambda <= 0 {
		return &InvalidStateError{Op: "train", State: fmt.Sprintf("configured with lambda %g", c.Lambda)}
	}
	return nil
}

// BP is a network with one sigmoid hidden layer trained by online backpropagation.
//
// V is J×I, I being the input arity plus a bias input. W is K×(J+1): the last column
// weights a constant hidden activation of 1.
type BP struct {
	classifierBase
	conf   BPConfig
	v      *mat.Dense
	w      *mat.Dense
	state  BPState
	epochs int
	loss   float64
}

func NewBP(conf BPConfig, opts ...Option) *BP {
	return &BP{
		classifierBase: newBase("bp", common.MODULE_BP, opts),
		conf:           conf,
	}
}

// SetHidden sets the hidden unit count used by the next Train.
func (b *BP) SetHidden(j int) {
	b.conf.Hidden = j
}

func (b *BP) Config() BPConfig {
	return b.conf
}

func (b *BP) State() BPState {
	return b.state
}

// Epochs is the number of epochs run by the last Train.
func (b *BP) Epochs() int {
	return b.epochs
}

// Loss is the summed squared error of the last completed epoch.
func (b *BP) Loss() float64 {
	return b.loss
}

func (b *BP) sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-b.conf.Lambda*z))
}

// encode maps a label onto the targets of the output units.
func (b *BP) encode(y Label, t []float64) {
	if len(t) == 1 {
		t[0] = 0
		if y == PN {
			t[0] = 1
		}
		return
	}
	// 第0个输出单元对应PN
	t[0], t[1] = 0, 1
	if y == PN {
		t[0], t[1] = 1, 0
	}
}

// forward fills h (length J+1, bias last) and o (length K) for the biased input x.
func (b *BP) forward(x, h, o []float64) {
	J := len(h) - 1
	for j := 0; j < J; j++ {
		h[j] = b.sigmoid(floats.Dot(b.v.RawRowView(j), x))
	}
	h[J] = 1.0
	for k := range o {
		o[k] = b.sigmoid(floats.Dot(b.w.RawRowView(k), h))
	}
}

func (b *BP) initWeights(I, J, K int) {
	uniform := func(_, _ int, _ float64) float64 {
		return -1 + 2*b.rng.Float64()
	}
	b.v = mat.NewDense(J, I, nil)
	b.v.Apply(uniform, b.v)
	b.w = mat.NewDense(K, J+1, nil)
	b.w.Apply(uniform, b.w)
}

// Train draws fresh weights from [-1, 1] and runs online backpropagation over ds in
// order until an epoch's error drops below EMin.
func (b *BP) Train(ds *DataSet) error {
	if err := b.conf.validate(); err != nil {
		return err
	}
	if err := checkTrainable(ds); err != nil {
		return err
	}

	I, J, K := ds.Arity()+1, b.conf.Hidden, b.conf.Outputs
	b.initWeights(I, J, K)
	b.state = Training
	b.epochs = 0
	b.loss = math.Inf(1)

	xs := make([][]float64, ds.Len())
	ts := make([][]float64, ds.Len())
	for m := range xs {
		xs[m] = withBias(ds.Example(m))
		ts[m] = make([]float64, K)
		b.encode(ds.Label(m), ts[m])
	}

	h := make([]float64, J+1)
	o := make([]float64, K)
	deltaOut := make([]float64, K)
	deltaHidden := make([]float64, J)
	eta := b.conf.Eta

	for b.conf.MaxEpochs <= 0 || b.epochs < b.conf.MaxEpochs {
		E := 0.0
		for m, x := range xs {
			t := ts[m]
			b.forward(x, h, o)

			for k := range o {
				diff := t[k] - o[k]
				E += 0.5 * diff * diff
				deltaOut[k] = diff * o[k] * (1 - o[k])
			}
			//隐藏层误差信号必须使用更新前的W
			for j := 0; j < J; j++ {
				sum := 0.0
				for k := range deltaOut {
					sum += deltaOut[k] * b.w.At(k, j)
				}
				deltaHidden[j] = h[j] * (1 - h[j]) * sum
			}

			for k := range deltaOut {
				floats.AddScaled(b.w.RawRowView(k), eta*deltaOut[k], h)
			}
			for j := range deltaHidden {
				floats.AddScaled(b.v.RawRowView(j), eta*deltaHidden[j], x)
			}
		}
		b.epochs++
		b.loss = E
		report := common.EpochReport{Model: b.name, Epoch: b.epochs, Loss: E}
		b.publish(common.LocalTrainMsg_Epoch, report)

		if E < b.conf.EMin {
			b.state = Trained
			b.log.Infof("bp converged after %d epochs, E=%.5f", b.epochs, E)
			b.publish(common.LocalTrainMsg_Converged, report)
			return nil
		}
	}

	// 未收敛时保留最后的权重
	b.state = Trained
	b.log.Warnf("bp did not converge in %d epochs, E=%.5f", b.epochs, b.loss)
	b.publish(common.LocalTrainMsg_NoConverge, common.EpochReport{Model: b.name, Epoch: b.epochs, Loss: b.loss})
	return &ConvergenceError{Model: b.name, Epochs: b.epochs, Loss: b.loss}
}

// Outputs returns the activations of the output units for x.
func (b *BP) Outputs(x Example) ([]float64, error) {
	if b.state != Trained {
		return nil, &InvalidStateError{Op: "classify", State: b.state.String()}
	}
	_, inputs := b.v.Dims()
	if len(x)+1 != inputs {
		return nil, mismatch("example", inputs-1, len(x))
	}
	rows, cols := b.w.Dims()
	o := make([]float64, rows)
	b.forward(withBias(x), make([]float64, cols), o)
	return o, nil
}

// Classify decodes the outputs: with one unit, a positive net input means PN; with two,
// the larger unit wins and a tie goes to unit 0 (PN).
func (b *BP) Classify(x Example) (Label, error) {
	o, err := b.Outputs(x)
	if err != nil {
		return NN, err
	}
	if len(o) == 1 {
		// sigmoid(z) > 0.5 等价于 z > 0
		if o[0] > 0.5 {
			return PN, nil
		}
		return NN, nil
	}
	if o[0] >= o[1] {
		return PN, nil
	}
	return NN, nil
}

func (b *BP) Accuracy(ds *DataSet) (float64, error) {
	return accuracy(b, ds)
}

func (b *BP) HoldOut(p float64, ds *DataSet) (float64, error) {
	return holdOut(b, p, ds)
}

// V returns a copy of the input-to-hidden weights, nil before training.
func (b *BP) V() *mat.Dense {
	if b.v == nil {
		return nil
	}
	return mat.DenseCopyOf(b.v)
}

// W returns a copy of the hidden-to-output weights, nil before training.
func (b *BP) W() *mat.Dense {
	if b.w == nil {
		return nil
	}
	return mat.DenseCopyOf(b.w)
}

// SetWeights installs V (J×I) and W (K×(J+1)) and marks the network trained. A network
// that has already seen data only accepts its own input arity.
func (b *BP) SetWeights(v, w mat.Matrix) error {
	if err := b.conf.validate(); err != nil {
		return err
	}
	J, K := b.conf.Hidden, b.conf.Outputs
	vr, vc := v.Dims()
	if vr != J || vc < 2 {
		return shapeMismatch("V", J, max(vc, 2), vr, vc)
	}
	if b.v != nil {
		if _, inputs := b.v.Dims(); vc != inputs {
			return shapeMismatch("V", J, inputs, vr, vc)
		}
	}
	if wr, wc := w.Dims(); wr != K || wc != J+1 {
		return shapeMismatch("W", K, J+1, wr, wc)
	}
	b.v = mat.DenseCopyOf(v)
	b.w = mat.DenseCopyOf(w)
	b.state = Trained
	return nil
}

func (b *BP) String() string {
	if b.v == nil || b.w == nil {
		return fmt.Sprintf("BP (%s, J=%d, K=%d)\n", b.state, b.conf.Hidden, b.conf.Outputs)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "V = %6.3f\n", mat.Formatted(b.v, mat.Prefix("    ")))
	fmt.Fprintf(&sb, "W = %6.3f\n", mat.Formatted(b.w, mat.Prefix("    ")))
	return sb.String()
}
