package runner

import (
	"fmt"

	"github.com/pkg/errors"

	"learnkit/common"
	"learnkit/core/config"
	"learnkit/core/ml"
	"learnkit/core/msgbus"
)

// Mode is the evaluation performed after training.
type Mode int

const (
	// SameData trains and evaluates on the training file.
	SameData Mode = iota
	// TestFile trains on the training file and evaluates on a separate test file.
	TestFile
	// HoldOut trains on a prefix of the training file and evaluates on the rest.
	HoldOut
)

func (m Mode) String() string {
	switch m {
	case SameData:
		return "same-data"
	case TestFile:
		return "test-file"
	case HoldOut:
		return "hold-out"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Job describes one train-and-evaluate run.
type Job struct {
	TrainFile  string
	TestFile   string
	Proportion float64
	// HasProportion is set when a hold-out proportion was given.
	HasProportion bool
}

// Mode picks the evaluation: a test file wins over a proportion.
func (j Job) Mode() Mode {
	switch {
	case j.TestFile != "":
		return TestFile
	case j.HasProportion:
		return HoldOut
	default:
		return SameData
	}
}

type Result struct {
	Mode        Mode
	Accuracy    float64
	Description string
}

// Runner wires config, logging and the training bus around one classifier.
type Runner struct {
	conf *config.LocalConfig
	log  common.Logger
	bus  msgbus.MessageBus
}

// Init applies the log config and sets up the bus before any classifier is built.
func (r *Runner) Init(c *config.LocalConfig) error {
	r.conf = c

	logConfig, err := c.LogConfig()
	if err != nil {
		return fmt.Errorf("get log config err: %s", err)
	}
	if err := common.SetLogConfig(logConfig); err != nil {
		return fmt.Errorf("set log config err: %s", err)
	}
	r.log = common.GetLogger(common.MODULE_RUNNER)
	if c.File != "" {
		r.log.Infof("using config %s", c.File)
	}

	//在其它模块初始化之前，初始化messagebus
	r.bus = msgbus.NewMessageBus()
	if c.Report.Every > 0 {
		pr := &progressReporter{every: c.Report.Every, log: r.log}
		r.bus.Register(common.LocalTrainMsg, pr)
	}
	return nil
}

func (r *Runner) options(seed int64) []ml.Option {
	opts := []ml.Option{ml.WithBus(r.bus)}
	if seed != 0 {
		opts = append(opts, ml.WithSeed(seed))
	}
	return opts
}

func (r *Runner) NewPerceptron() *ml.Perceptron {
	return ml.NewPerceptron(r.conf.PerceptronConfig(), r.options(0)...)
}

func (r *Runner) NewBP() *ml.BP {
	return ml.NewBP(r.conf.BPConfig(), r.options(r.conf.BP.Seed)...)
}

// Bus exposes the runner's bus so callers can subscribe to training reports.
func (r *Runner) Bus() msgbus.MessageBus {
	return r.bus
}

// Run loads the data of job, trains c and evaluates it. A *ml.ConvergenceError is
// returned as is so the caller can report it separately.
func (r *Runner) Run(c ml.Classifier, job Job) (*Result, error) {
	if job.TrainFile == "" {
		return nil, errors.New("a training file is required")
	}
	train, err := ml.Load(job.TrainFile)
	if err != nil {
		return nil, err
	}
	r.log.Infof("loaded %d examples with %d features from %s", train.Len(), train.Arity(), job.TrainFile)

	res := &Result{Mode: job.Mode()}
	switch res.Mode {
	case TestFile:
		if job.HasProportion {
			r.log.Warnf("test file %s given, ignoring proportion %.3f", job.TestFile, job.Proportion)
		}
		var test *ml.DataSet
		test, err = ml.Load(job.TestFile)
		if err != nil {
			return nil, err
		}
		if test.Arity() != train.Arity() {
			return nil, &ml.DimensionMismatchError{
				What: "test file features",
				Want: fmt.Sprint(train.Arity()),
				Got:  fmt.Sprint(test.Arity()),
			}
		}
		if err := c.Train(train); err != nil {
			return nil, err
		}
		res.Accuracy, err = c.Accuracy(test)
	case HoldOut:
		res.Accuracy, err = c.HoldOut(job.Proportion, train)
	default:
		if err := c.Train(train); err != nil {
			return nil, err
		}
		res.Accuracy, err = c.Accuracy(train)
	}
	if err != nil {
		return nil, err
	}

	res.Description = c.String()
	r.log.Infof("%s %s accuracy %.3f", c.Name(), res.Mode, res.Accuracy)
	return res, nil
}

type progressReporter struct {
	every int
	log   common.Logger
}

func (p *progressReporter) HandleMsgFromMsgBus(msg *msgbus.BusMessage) error {
	rep, ok := msg.Msg.(common.EpochReport)
	if !ok {
		return errors.Errorf("unexpected payload %T on topic %d", msg.Msg, msg.MsgType)
	}
	switch msg.MsgType {
	case common.LocalTrainMsg_Epoch:
		if rep.Epoch%p.every == 0 {
			p.log.Infof("%s epoch %d loss %.5f", rep.Model, rep.Epoch, rep.Loss)
		}
	case common.LocalTrainMsg_Converged:
		p.log.Infof("%s converged at epoch %d", rep.Model, rep.Epoch)
	}
	return nil
}
