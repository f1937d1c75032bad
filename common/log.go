package common

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 日志级别，内部接口使用常量
type LOG_LEVEL int

const (
	LEVEL_DEBUG LOG_LEVEL = iota
	LEVEL_INFO
	LEVEL_WARN
	LEVEL_ERROR
)

var (
	LOG_LEVEL_Name = map[LOG_LEVEL]string{
		LEVEL_DEBUG: "DEBUG",
		LEVEL_INFO:  "INFO",
		LEVEL_WARN:  "WARN",
		LEVEL_ERROR: "ERROR",
	}
	LOG_LEVEL_Value = map[string]LOG_LEVEL{
		"DEBUG": LEVEL_DEBUG,
		"INFO":  LEVEL_INFO,
		"WARN":  LEVEL_WARN,
		"ERROR": LEVEL_ERROR,
	}
)

const (
	LOG_MODE_DEV  = "DEV"
	LOG_MODE_PROD = "PROD"
)

// ParseLevel maps a level name such as "debug" or "WARN" onto a LOG_LEVEL.
func ParseLevel(name string) (LOG_LEVEL, error) {
	lvl, ok := LOG_LEVEL_Value[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return LEVEL_INFO, errors.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

type LogConfig struct {
	BriefMode          string
	ModuleSpecialLevel map[string]LOG_LEVEL // 模块特别指定的日志级别

	LogPath        string // 为空时不写文件
	LogLevel       LOG_LEVEL
	RotationMaxAge int // 日志的保存期限, 天
	RotationTime   int // 日志rotation的间隔, 小时
	ShowLine       bool
	LogInConsole   bool
}

// 若未设置配置，则按照DEV模式设置
func DefaultLogConfig(isDEV bool) *LogConfig {
	if isDEV {
		return defaultBriefLogConfigForDEV()
	}

	return defaultBriefLogConfigForPROD()
}

func defaultBriefLogConfigForDEV() *LogConfig {
	return &LogConfig{
		LogLevel:       LEVEL_INFO,
		RotationMaxAge: 1,
		RotationTime:   1,
		ShowLine:       false,
		LogInConsole:   true,
	}
}

func defaultBriefLogConfigForPROD() *LogConfig {
	return &LogConfig{
		LogPath:        "./learnkit.log",
		LogLevel:       LEVEL_INFO,
		RotationMaxAge: 7,
		RotationTime:   24,
		ShowLine:       true,
		LogInConsole:   false,
	}
}

func adjustLogConfig(name string, lc *LogConfig) *LogConfig {
	if lc.BriefMode != "" {
		return DefaultLogConfig(lc.BriefMode != LOG_MODE_PROD)
	}

	newC := *lc
	newC.ModuleSpecialLevel = nil
	if lvl, ok := lc.ModuleSpecialLevel[name]; ok {
		newC.LogLevel = lvl
	}
	return &newC
}

func zapLevelOf(lvl LOG_LEVEL) zapcore.Level {
	switch lvl {
	case LEVEL_DEBUG:
		return zap.DebugLevel
	case LEVEL_INFO:
		return zap.InfoLevel
	case LEVEL_WARN:
		return zap.WarnLevel
	case LEVEL_ERROR:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// console is where console output goes. Stdout carries the CLI's results, so logs
// stay on stderr.
var console io.Writer = os.Stderr

func newSyncer(lc *LogConfig) (zapcore.WriteSyncer, error) {
	var syncers []zapcore.WriteSyncer
	if lc.LogInConsole {
		syncers = append(syncers, zapcore.AddSync(console))
	}
	if lc.LogPath != "" {
		rotationWriter, err := rotatelogs.New(
			lc.LogPath+".%Y%m%d%H",
			rotatelogs.WithRotationTime(time.Duration(lc.RotationTime)*time.Hour),
			rotatelogs.WithMaxAge(time.Hour*24*time.Duration(lc.RotationMaxAge)),
		)
		if err != nil {
			return nil, errors.Wrap(err, "new rotation log")
		}
		syncers = append(syncers, zapcore.AddSync(rotationWriter))
	}
	if len(syncers) == 0 {
		return zapcore.AddSync(io.Discard), nil
	}
	return zapcore.NewMultiWriteSyncer(syncers...), nil
}

func NewSugaredLogger(name string, lc *LogConfig) (*zap.SugaredLogger, error) {
	lcc := adjustLogConfig(name, lc)

	zapLevel := zapLevelOf(lcc.LogLevel)
	priorityLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapLevel
	})

	syncer, err := newSyncer(lcc)
	if err != nil {
		return nil, err
	}

	customLevelEncoder := func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + level.CapitalString() + "]")
	}
	customTimeEncoder := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "line",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), syncer, priorityLevel)

	var opts []zap.Option
	if lcc.ShowLine {
		opts = append(opts, zap.AddCaller())
	}
	// 装载到LKLogger中使用，跳过1层调用
	opts = append(opts, zap.AddCallerSkip(1))
	logger := zap.New(core, opts...).Named(name)

	return logger.Sugar(), nil
}

const (
	MODULE_PERCEPTRON = "[Perceptron]"
	MODULE_BP         = "[BP]"
	MODULE_RUNNER     = "[Runner]"
	MODULE_CLI        = "[CLI]"
)

// ModuleName resolves a bare, case-insensitive module name such as "bp" to its
// logger name.
func ModuleName(name string) (string, bool) {
	for _, m := range []string{MODULE_PERCEPTRON, MODULE_BP, MODULE_RUNNER, MODULE_CLI} {
		if strings.EqualFold(m, name) || strings.EqualFold(m, "["+name+"]") {
			return m, true
		}
	}
	return "", false
}

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

// LKLogger is a module logger whose backend can be swapped by SetLogConfig.
type LKLogger struct {
	zlog  *zap.SugaredLogger
	name  string
	mutex sync.RWMutex
}

func (l *LKLogger) Logger() *zap.SugaredLogger {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.zlog
}

func (l *LKLogger) Debug(args ...interface{}) {
	l.Logger().Debug(args...)
}

func (l *LKLogger) Debugf(format string, args ...interface{}) {
	l.Logger().Debugf(format, args...)
}

func (l *LKLogger) Info(args ...interface{}) {
	l.Logger().Info(args...)
}

func (l *LKLogger) Infof(format string, args ...interface{}) {
	l.Logger().Infof(format, args...)
}

func (l *LKLogger) Warn(args ...interface{}) {
	l.Logger().Warn(args...)
}

func (l *LKLogger) Warnf(format string, args ...interface{}) {
	l.Logger().Warnf(format, args...)
}

func (l *LKLogger) Error(args ...interface{}) {
	l.Logger().Error(args...)
}

func (l *LKLogger) Errorf(format string, args ...interface{}) {
	l.Logger().Errorf(format, args...)
}

func (l *LKLogger) Sync() error {
	return l.Logger().Sync()
}

func (l *LKLogger) SetLogger(logger *zap.SugaredLogger) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.zlog = logger
}

var (
	lkLoggersMap = make(map[string]*LKLogger)
	loggerMutex  sync.Mutex
	lkLogConfig  *LogConfig
)

// GetLogger returns the cached logger of a module, creating it from the current
// LogConfig on first use.
func GetLogger(name string) *LKLogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if logger, ok := lkLoggersMap[name]; ok {
		return logger
	}

	if lkLogConfig == nil {
		lkLogConfig = DefaultLogConfig(true)
	}

	zlog, err := NewSugaredLogger(name, lkLogConfig)
	if err != nil {
		// 文件日志不可用时退回到仅控制台
		fallback := *lkLogConfig
		fallback.LogPath = ""
		fallback.LogInConsole = true
		zlog, _ = NewSugaredLogger(name, &fallback)
		zlog.Warnf("file logging disabled: %s", err)
	}
	logger := &LKLogger{
		name: name,
		zlog: zlog,
	}
	lkLoggersMap[name] = logger

	return logger
}

// SetLogConfig replaces the logging config and rebuilds every logger handed out so far.
// 在获取日志对象之前进行配置设置，若未设置，则使用DEV配置
func SetLogConfig(config *LogConfig) error {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	rebuilt := make(map[*LKLogger]*zap.SugaredLogger, len(lkLoggersMap))
	for _, logger := range lkLoggersMap {
		zlog, err := NewSugaredLogger(logger.name, config)
		if err != nil {
			return err
		}
		rebuilt[logger] = zlog
	}

	lkLogConfig = config
	for logger, zlog := range rebuilt {
		logger.SetLogger(zlog)
	}
	return nil
}
