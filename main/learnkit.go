package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var flags *pflag.FlagSet

var (
	cfgPathFlag    string
	trainFileFlag  string
	testFileFlag   string
	proportionFlag float64
	etaFlag        float64
	maxEpochsFlag  int
	hiddenFlag     int
	outputsFlag    int
	seedFlag       int64
	reportFlag     int
)

func init() {
	resetFlags()
}

// Explicitly define a method to facilitate tests
func resetFlags() {
	flags = &pflag.FlagSet{}

	flags.StringVarP(&cfgPathFlag, "config", "c", "",
		"config file, default learnkit_config.yaml under $LEARNKIT_CFG_PATH or .")
	flags.StringVarP(&trainFileFlag, "train", "t", "", "training data file (required)")
	flags.StringVarP(&testFileFlag, "test", "T", "", "testing data file")
	flags.Float64VarP(&proportionFlag, "proportion", "p", 0,
		"hold-out: proportion of examples used for training")
	flags.Float64Var(&etaFlag, "eta", 0, "learning rate")
	flags.IntVar(&maxEpochsFlag, "max-epochs", 0, "maximum number of epochs, must be positive")
	flags.IntVarP(&hiddenFlag, "hidden", "J", 0, "number of hidden units (required)")
	flags.IntVarP(&outputsFlag, "outputs", "K", 0, "number of output units, 1 or 2")
	flags.Int64Var(&seedFlag, "seed", 0, "seed for weight initialization, 0 for random restarts")
	flags.IntVar(&reportFlag, "report-every", 0, "log progress every N epochs")
}

func attachFlags(cmd *cobra.Command, names []string) {
	cmdFlags := cmd.Flags()
	for _, name := range names {
		if flag := flags.Lookup(name); flag != nil {
			cmdFlags.AddFlag(flag)
		} else {
			panic(fmt.Errorf("Could not find flag '%s' to attach to command '%s'", name, cmd.Name()))
		}
	}
}

func newMainCmd() *cobra.Command {
	mainCmd := &cobra.Command{
		Use:           "learnkit",
		Short:         "train and evaluate perceptron and backpropagation classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	mainCmd.AddCommand(perceptronCMD())
	mainCmd.AddCommand(bpCMD())
	return mainCmd
}

func main() {
	mainCmd := newMainCmd()
	if err := mainCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
