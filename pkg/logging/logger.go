package logging

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/DeRuina/timberjack"
	"github.com/sirupsen/logrus"
)

// LogSettings holds the logging options of the yaml config file.
type LogSettings struct {
	LogFile    string  `yaml:"log_file"`
	MaxSize    int     `yaml:"max_size"`
	MaxBackups int     `yaml:"max_backups"`
	MaxAge     int     `yaml:"max_age"`
	LogLevel   *string `yaml:"log_level"`
}

// NewLogger creates and configures a new logrus.Logger based on the provided settings.
func NewLogger(cfg *LogSettings) (*logrus.Logger, error) {
	logger := logrus.New()

	logLevel := logrus.InfoLevel
	if cfg.LogLevel != nil && *cfg.LogLevel != "" {
		if lv, err := logrus.ParseLevel(strings.ToLower(*cfg.LogLevel)); err == nil {
			logLevel = lv
		}
	}
	logger.SetLevel(logLevel)

	// By default, log to standard output only.
	var output io.Writer = os.Stdout

	// If a log file was configured, write to both stdout and the rotated file.
	if cfg.LogFile != "" {
		fileLogger := &timberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		output = io.MultiWriter(os.Stdout, fileLogger)
	}
	logger.SetOutput(output)

	textFormatter := &logrus.TextFormatter{
		FullTimestamp: true,
		// Disable the default caller prettyfier to let our custom one take over.
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", ""
		},
		ForceColors: true,
	}

	logger.SetFormatter(&SourceFormatter{
		Underlying: textFormatter,
		AddSpace:   true,
	})
	logger.SetReportCaller(true)

	return logger, nil
}
