package log

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields so callers do not need to import logrus
type Fields = logrus.Fields

type Level = logrus.Level

const (
	PanicLogLevel = logrus.PanicLevel
	FatalLogLevel = logrus.FatalLevel
	ErrorLogLevel = logrus.ErrorLevel
	WarnLogLevel  = logrus.WarnLevel
	InfoLogLevel  = logrus.InfoLevel
	DebugLogLevel = logrus.DebugLevel
	TraceLogLevel = logrus.TraceLevel
)

const (
	// default log level
	defaultLogLevel = logrus.InfoLevel

	// log file name
	globalLogFileName = "global.log"
	// default log directory
	logDir = "nodelogs"
	// default log file params
	defaultLogMaxSize    = 100  // maximum file size before rotation, in MB
	defaultLogMaxBackups = 3    // maximum number of old log files to keep
	defaultLogMaxAge     = 28   // maximum number of days to retain old log files
	defaultLogCompress   = true // whether to compress the rotated log files using gzip
)

var (
	// Global is the logger instance used by the application
	Global *logrus.Logger

	// default logfile path
	defaultLogFilePath = "./" + logDir + "/" + globalLogFileName
)

func init() {
	Global = createStandardLogger(defaultLogFilePath, defaultLogLevel.String(), true)
}

// SetGlobalLogger redirects the global logger to the given file (and stdout)
// and changes its level. An empty filename keeps the default path.
func SetGlobalLogger(logFilename string, logLevel string) {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	Global.SetOutput(io.MultiWriter(newRotatingFile(logFilename), os.Stdout))

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = defaultLogLevel
	}
	Global.SetLevel(level)
}

// NewLogger returns an independent logger writing only to the given file
func NewLogger(logFilename string, logLevel string) *logrus.Logger {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	logger := createStandardLogger(logFilename, logLevel, false)
	logger.WithFields(Fields{
		"path":  logFilename,
		"level": logLevel,
	}).Info("Logger started")
	return logger
}

// ConfigureLogger applies the given options to the global logger
func ConfigureLogger(opts ...Options) {
	for _, opt := range opts {
		opt(Global)
	}
}

func newRotatingFile(logFilename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilename,
		MaxSize:    defaultLogMaxSize,
		MaxBackups: defaultLogMaxBackups,
		MaxAge:     defaultLogMaxAge,
		Compress:   defaultLogCompress,
	}
}

func createStandardLogger(logFilename string, logLevel string, stdOut bool) *logrus.Logger {
	logger := logrus.New()
	output := newRotatingFile(logFilename)

	if stdOut {
		logger.SetOutput(io.MultiWriter(output, os.Stdout))
	} else {
		logger.SetOutput(output)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		PadLevelText:    true,
		FullTimestamp:   true,
		TimestampFormat: "01-02|15:04:05.000",
	})
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = defaultLogLevel
	}
	logger.SetLevel(level)
	return logger
}

func WithField(key string, val interface{}) *logrus.Entry {
	return Global.WithField(key, val)
}

func WithFields(fields Fields) *logrus.Entry {
	return Global.WithFields(fields)
}
