package ml

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"learnkit/common"
)

const (
	DefaultEta       = 0.9
	DefaultMaxEpochs = 50000
)

type PerceptronConfig struct {
	Eta float64
	// MaxEpochs bounds training; zero or less trains until convergence.
	MaxEpochs int
}

func DefaultPerceptronConfig() PerceptronConfig {
	return PerceptronConfig{Eta: DefaultEta, MaxEpochs: DefaultMaxEpochs}
}

// Perceptron is a linear threshold unit trained with the mistake-driven rule. The bias
// is the last weight, applied to a constant input of 1.
type Perceptron struct {
	classifierBase
	conf    PerceptronConfig
	weights []float64
	epochs  int
	vaild   bool
}

func NewPerceptron(conf PerceptronConfig, opts ...Option) *Perceptron {
	return &Perceptron{
		classifierBase: newBase("perceptron", common.MODULE_PERCEPTRON, opts),
		conf:           conf,
	}
}

// Train starts from zero weights and sweeps ds in order until an epoch makes no update.
func (p *Perceptron) Train(ds *DataSet) error {
	if err := checkTrainable(ds); err != nil {
		return err
	}
	p.weights = make([]float64, ds.Arity()+1)
	p.vaild = true
	p.epochs = 0
	updates := 0

	xs := make([][]float64, ds.Len())
	for i := range xs {
		xs[i] = withBias(ds.Example(i))
	}

	for p.conf.MaxEpochs <= 0 || p.epochs < p.conf.MaxEpochs {
		updates = 0
		for i, x := range xs {
			y := ds.Label(i).Float()
			//误分类或正好落在边界上时更新
			if y*floats.Dot(p.weights, x) <= 0 {
				floats.AddScaled(p.weights, p.conf.Eta*y, x)
				updates++
			}
		}
		p.epochs++
		report := common.EpochReport{Model: p.name, Epoch: p.epochs, Updates: updates, Loss: float64(updates)}
		p.publish(common.LocalTrainMsg_Epoch, report)

		if updates == 0 {
			p.log.Infof("perceptron converged after %d epochs", p.epochs)
			p.publish(common.LocalTrainMsg_Converged, report)
			return nil
		}
	}

	p.log.Warnf("perceptron did not converge in %d epochs", p.epochs)
	p.publish(common.LocalTrainMsg_NoConverge, common.EpochReport{Model: p.name, Epoch: p.epochs, Updates: updates, Loss: float64(updates)})
	return &ConvergenceError{Model: p.name, Epochs: p.epochs, Loss: float64(updates)}
}

func (p *Perceptron) Classify(x Example) (Label, error) {
	if !p.vaild {
		return NN, &InvalidStateError{Op: "classify", State: "untrained"}
	}
	if len(x)+1 != len(p.weights) {
		return NN, mismatch("example", len(p.weights)-1, len(x))
	}
	if floats.Dot(p.weights, withBias(x)) > 0 {
		return PN, nil
	}
	return NN, nil
}

func (p *Perceptron) Accuracy(ds *DataSet) (float64, error) {
	return accuracy(p, ds)
}

func (p *Perceptron) HoldOut(prop float64, ds *DataSet) (float64, error) {
	return holdOut(p, prop, ds)
}

// Epochs is the number of epochs run by the last Train.
func (p *Perceptron) Epochs() int {
	return p.epochs
}

// Weights returns a copy of the weights, bias last.
func (p *Perceptron) Weights() []float64 {
	out := make([]float64, len(p.weights))
	copy(out, p.weights)
	return out
}

// SetWeights installs w, bias last. A trained perceptron only accepts its own arity.
func (p *Perceptron) SetWeights(w []float64) error {
	if len(w) < 2 {
		return mismatch("weights", max(len(p.weights), 2), len(w))
	}
	if p.vaild && len(w) != len(p.weights) {
		return mismatch("weights", len(p.weights), len(w))
	}
	p.weights = append([]float64(nil), w...)
	p.vaild = true
	return nil
}

func (p *Perceptron) String() string {
	var sb strings.Builder
	for i, w := range p.weights {
		if i == len(p.weights)-1 {
			fmt.Fprintf(&sb, "Bias: %.3f\n", w)
			break
		}
		fmt.Fprintf(&sb, "Weight %d: %.3f\n", i, w)
	}
	return sb.String()
}
