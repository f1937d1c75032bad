package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"learnkit/common"
	"learnkit/core/ml"
)

const (
	EnvPrefix  = "learnkit"
	EnvCfgPath = "LEARNKIT_CFG_PATH"
	ConfigName = "learnkit_config"
	ConfigFlag = "config"
)

type LogSettings struct {
	Mode           string            `mapstructure:"mode"`
	Level          string            `mapstructure:"level"`
	Modules        map[string]string `mapstructure:"modules"`
	Path           string            `mapstructure:"path"`
	RotationMaxAge int               `mapstructure:"rotation_max_age"`
	RotationTime   int               `mapstructure:"rotation_time"`
	ShowLine       bool              `mapstructure:"show_line"`
	Console        bool              `mapstructure:"console"`
}

type PerceptronSettings struct {
	Eta       float64 `mapstructure:"eta"`
	MaxEpochs int     `mapstructure:"max_epochs"`
}

type BPSettings struct {
	Hidden    int     `mapstructure:"hidden"`
	Outputs   int     `mapstructure:"outputs"`
	Eta       float64 `mapstructure:"eta"`
	Lambda    float64 `mapstructure:"lambda"`
	EMin      float64 `mapstructure:"e_min"`
	MaxEpochs int     `mapstructure:"max_epochs"`
	Seed      int64   `mapstructure:"seed"`
}

type ReportSettings struct {
	// Every logs training progress every N epochs; 0 disables it.
	Every int `mapstructure:"every"`
}

type LocalConfig struct {
	Log        LogSettings        `mapstructure:"log"`
	Perceptron PerceptronSettings `mapstructure:"perceptron"`
	BP         BPSettings         `mapstructure:"bp"`
	Report     ReportSettings     `mapstructure:"report"`

	// File is the config file that was read, empty if none was found.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	dev := common.DefaultLogConfig(true)
	v.SetDefault("log.mode", "")
	v.SetDefault("log.level", common.LOG_LEVEL_Name[dev.LogLevel])
	v.SetDefault("log.path", dev.LogPath)
	v.SetDefault("log.rotation_max_age", dev.RotationMaxAge)
	v.SetDefault("log.rotation_time", dev.RotationTime)
	v.SetDefault("log.show_line", dev.ShowLine)
	v.SetDefault("log.console", dev.LogInConsole)

	pc := ml.DefaultPerceptronConfig()
	v.SetDefault("perceptron.eta", pc.Eta)
	v.SetDefault("perceptron.max_epochs", pc.MaxEpochs)

	bc := ml.DefaultBPConfig()
	v.SetDefault("bp.hidden", bc.Hidden)
	v.SetDefault("bp.outputs", bc.Outputs)
	v.SetDefault("bp.eta", bc.Eta)
	v.SetDefault("bp.lambda", bc.Lambda)
	v.SetDefault("bp.e_min", bc.EMin)
	v.SetDefault("bp.max_epochs", bc.MaxEpochs)
	v.SetDefault("bp.seed", 0)

	v.SetDefault("report.every", 0)
}

// Bind maps a config key onto a command flag. A bound flag only wins over file and env
// values when it was set on the command line.
type Bind struct {
	Key  string
	Flag string
}

// InitLocalConfig reads learnkit_config.(yaml|json|toml) and LEARNKIT_* env vars, then
// applies any bound flags of cmd.
//
// 若命令行设置了配置文件，则直接使用
// 若未设置，则在LEARNKIT_CFG_PATH下寻找learnkit_config, 找不到时使用默认值
func InitLocalConfig(cmd *cobra.Command, binds ...Bind) (*LocalConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	altPath := os.Getenv(EnvCfgPath)
	if altPath == "" {
		altPath = "."
	}
	v.AddConfigPath(altPath)
	v.SetConfigName(ConfigName)

	cmdSetConfigFile := ""
	if flag := cmd.Flags().Lookup(ConfigFlag); flag != nil {
		cmdSetConfigFile = flag.Value.String()
	}
	if cmdSetConfigFile != "" {
		v.SetConfigFile(cmdSetConfigFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cmdSetConfigFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	for _, b := range binds {
		if err := bindFlag(v, cmd.Flags(), b); err != nil {
			return nil, err
		}
	}

	lc := &LocalConfig{}
	if err := v.Unmarshal(lc); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	lc.File = v.ConfigFileUsed()
	return lc, nil
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, b Bind) error {
	flag := flags.Lookup(b.Flag)
	if flag == nil {
		return errors.Errorf("cmd has no flag %q for config key %s", b.Flag, b.Key)
	}
	return errors.Wrapf(v.BindPFlag(b.Key, flag), "bind flag %s", b.Flag)
}

// LogConfig converts the log section into the logger's configuration.
func (c *LocalConfig) LogConfig() (*common.LogConfig, error) {
	lvl, err := common.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	lc := &common.LogConfig{
		BriefMode:      strings.ToUpper(c.Log.Mode),
		LogPath:        c.Log.Path,
		LogLevel:       lvl,
		RotationMaxAge: c.Log.RotationMaxAge,
		RotationTime:   c.Log.RotationTime,
		ShowLine:       c.Log.ShowLine,
		LogInConsole:   c.Log.Console,
	}
	if len(c.Log.Modules) > 0 {
		lc.ModuleSpecialLevel = make(map[string]common.LOG_LEVEL, len(c.Log.Modules))
		for module, name := range c.Log.Modules {
			key, ok := common.ModuleName(module)
			if !ok {
				return nil, errors.Errorf("unknown log module %q", module)
			}
			l, err := common.ParseLevel(name)
			if err != nil {
				return nil, errors.Wrapf(err, "log level of module %s", module)
			}
			lc.ModuleSpecialLevel[key] = l
		}
	}
	return lc, nil
}

func (c *LocalConfig) PerceptronConfig() ml.PerceptronConfig {
	return ml.PerceptronConfig{Eta: c.Perceptron.Eta, MaxEpochs: c.Perceptron.MaxEpochs}
}

func (c *LocalConfig) BPConfig() ml.BPConfig {
	return ml.BPConfig{
		Hidden:    c.BP.Hidden,
		Outputs:   c.BP.Outputs,
		Eta:       c.BP.Eta,
		Lambda:    c.BP.Lambda,
		EMin:      c.BP.EMin,
		MaxEpochs: c.BP.MaxEpochs,
	}
}
