package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"learnkit/core/config"
	"learnkit/core/ml"
	"learnkit/runner"
)

func bpCMD() *cobra.Command {
	bpCmd := &cobra.Command{
		Use:   "bp",
		Short: "train a backpropagation network",
		Long: `train a network with one hidden layer by backpropagation and report its accuracy

example: learnkit bp -t data/xor.dta -J 2
         learnkit bp -t data/xor.dta -J 3 -K 2 --seed 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			binds := []config.Bind{
				{Key: "bp.hidden", Flag: "hidden"},
				{Key: "bp.outputs", Flag: "outputs"},
				{Key: "bp.seed", Flag: "seed"},
				{Key: "bp.eta", Flag: "eta"},
				{Key: "bp.max_epochs", Flag: "max-epochs"},
			}
			return run(cmd, binds, func(r *runner.Runner, lc *config.LocalConfig) (ml.Classifier, error) {
				if lc.BP.Hidden <= 0 {
					return nil, errors.New("the number of hidden units is required, use -J")
				}
				if err := checkMaxEpochs(lc.BP.MaxEpochs); err != nil {
					return nil, err
				}
				return r.NewBP(), nil
			})
		},
	}
	attachFlags(bpCmd, append(commonFlags, "hidden", "outputs", "seed", "eta", "max-epochs"))
	return bpCmd
}
