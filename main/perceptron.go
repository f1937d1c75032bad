package main

import (
	"github.com/spf13/cobra"

	"learnkit/core/config"
	"learnkit/core/ml"
	"learnkit/runner"
)

func perceptronCMD() *cobra.Command {
	perceptronCmd := &cobra.Command{
		Use:   "perceptron",
		Short: "train a perceptron",
		Long: `train a single-layer perceptron and report its accuracy

example: learnkit perceptron -t data/and.dta
         learnkit perceptron -t data/xor.dta --max-epochs 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			binds := []config.Bind{
				{Key: "perceptron.eta", Flag: "eta"},
				{Key: "perceptron.max_epochs", Flag: "max-epochs"},
			}
			return run(cmd, binds, func(r *runner.Runner, lc *config.LocalConfig) (ml.Classifier, error) {
				if err := checkMaxEpochs(lc.Perceptron.MaxEpochs); err != nil {
					return nil, err
				}
				return r.NewPerceptron(), nil
			})
		},
	}
	attachFlags(perceptronCmd, append(commonFlags, "eta", "max-epochs"))
	return perceptronCmd
}
