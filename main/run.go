package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"learnkit/common"
	"learnkit/core/config"
	"learnkit/core/ml"
	"learnkit/runner"
)

var commonFlags = []string{"config", "train", "test", "proportion", "report-every"}

var commonBinds = []config.Bind{
	{Key: "report.every", Flag: "report-every"},
}

// checkMaxEpochs rejects an unbounded epoch budget; on inseparable data training would
// never stop.
func checkMaxEpochs(n int) error {
	if n <= 0 {
		return errors.Errorf("max epochs must be positive, got %d", n)
	}
	return nil
}

func jobOf(cmd *cobra.Command) runner.Job {
	return runner.Job{
		TrainFile:     trainFileFlag,
		TestFile:      testFileFlag,
		Proportion:    proportionFlag,
		HasProportion: cmd.Flags().Changed("proportion"),
	}
}

// run trains the classifier built by newClassifier and prints its description and
// accuracy. A run that does not converge is reported on stdout and is not an error.
func run(cmd *cobra.Command, binds []config.Bind,
	newClassifier func(*runner.Runner, *config.LocalConfig) (ml.Classifier, error)) error {
	if trainFileFlag == "" {
		return errors.New("a training file is required, use -t")
	}

	lc, err := config.InitLocalConfig(cmd, append(binds, commonBinds...)...)
	if err != nil {
		return err
	}

	r := &runner.Runner{}
	if err := r.Init(lc); err != nil {
		return err
	}
	log := common.GetLogger(common.MODULE_CLI)

	c, err := newClassifier(r, lc)
	if err != nil {
		return err
	}

	res, err := r.Run(c, jobOf(cmd))
	out := cmd.OutOrStdout()
	if err != nil {
		var ce *ml.ConvergenceError
		if errors.As(err, &ce) {
			log.Warnf("%s", ce)
			fmt.Fprintln(out, "Failed to converge!")
			return nil
		}
		return err
	}

	fmt.Fprint(out, res.Description)
	fmt.Fprintf(out, "Accuracy: %.3f\n", res.Accuracy)
	return nil
}
