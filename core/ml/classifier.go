package ml

import (
	"math/rand"
	"time"

	"learnkit/common"
	"learnkit/core/msgbus"
)

// Classifier is implemented by exactly two models, *Perceptron and *BP.
type Classifier interface {
	// Train fits the model to ds, replacing any previous parameters.
	Train(ds *DataSet) error
	// Classify predicts the label of one example without changing the model.
	Classify(x Example) (Label, error)
	// Accuracy classifies every example of ds and returns the fraction predicted correctly.
	Accuracy(ds *DataSet) (float64, error)
	// HoldOut trains on the first floor(p*N) examples of ds and returns the accuracy on
	// the remaining ones.
	HoldOut(p float64, ds *DataSet) (float64, error)
	// String renders the current parameters.
	String() string
	Name() string

	base() *classifierBase
}

// Option configures the ambient collaborators shared by both classifiers.
type Option func(*classifierBase)

// WithLogger replaces the module logger.
func WithLogger(l common.Logger) Option {
	return func(b *classifierBase) { b.log = l }
}

// WithBus makes the classifier publish an EpochReport after every epoch.
func WithBus(bus msgbus.MessageBus) Option {
	return func(b *classifierBase) { b.bus = bus }
}

// WithSeed gives the classifier a reproducible generator.
func WithSeed(seed int64) Option {
	return func(b *classifierBase) { b.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand hands the classifier a generator it then owns.
func WithRand(r *rand.Rand) Option {
	return func(b *classifierBase) { b.rng = r }
}

type classifierBase struct {
	name string
	log  common.Logger
	bus  msgbus.MessageBus
	rng  *rand.Rand
}

func newBase(name, module string, opts []Option) classifierBase {
	b := classifierBase{name: name}
	for _, opt := range opts {
		opt(&b)
	}
	if b.log == nil {
		b.log = common.GetLogger(module)
	}
	if b.bus == nil {
		b.bus = msgbus.Nop
	}
	if b.rng == nil {
		// 不设种子, 每次训练随机重启
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b
}

func (b *classifierBase) base() *classifierBase { return b }

func (b *classifierBase) Name() string { return b.name }

func (b *classifierBase) publish(topic common.LocalMsgType, report interface{}) {
	if err := b.bus.Publish(b.name, topic, report); err != nil {
		b.log.Warnf("subscriber rejected %s report: %s", b.name, err)
	}
}

// accuracy classifies every example of ds with c.
func accuracy(c Classifier, ds *DataSet) (float64, error) {
	if ds.Len() == 0 {
		return 0, ErrEmptyDataSet
	}
	predicted := make([]Label, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		y, err := c.Classify(ds.Example(i))
		if err != nil {
			return 0, err
		}
		predicted[i] = y
	}
	conf, err := NewConfusion(ds.Labels(), predicted)
	if err != nil {
		return 0, err
	}
	acc, err := conf.Accuracy()
	if err != nil {
		return 0, err
	}
	b := c.base()
	b.log.Debugf("%s evaluated %d examples: %s", b.name, conf.Total(), conf)
	b.publish(common.LocalEvalMsg_Accuracy, common.AccuracyReport{
		Model:    b.name,
		Correct:  conf.Correct(),
		Total:    conf.Total(),
		Accuracy: acc,
	})
	return acc, nil
}

// holdOut splits ds by position, trains c on the prefix and evaluates on the suffix.
func holdOut(c Classifier, p float64, ds *DataSet) (float64, error) {
	train, test, err := ds.Split(p)
	if err != nil {
		return 0, err
	}
	c.base().log.Infof("hold-out p=%.3f: training on %d, testing on %d", p, train.Len(), test.Len())
	if err := c.Train(train); err != nil {
		return 0, err
	}
	return c.Accuracy(test)
}

// withBias returns x with the constant bias input appended.
func withBias(x Example) []float64 {
	xb := make([]float64, len(x)+1)
	copy(xb, x)
	xb[len(x)] = 1.0
	return xb
}

func checkTrainable(ds *DataSet) error {
	if ds == nil || ds.Len() == 0 {
		return ErrEmptyDataSet
	}
	return nil
}
