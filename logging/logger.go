package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultFileName = "ds-builder.log"

var (
	writersLock sync.Mutex
	fileWriters = make(map[string]io.Writer) // log file path -> rotating writer

	defaultLoggerLock sync.Mutex
	defaultLogger     *logrus.Logger
)

// levelHook writes every entry at or above level to out.
type levelHook struct {
	level     logrus.Level
	out       io.Writer
	formatter logrus.Formatter
	lock      sync.Mutex
}

func (h *levelHook) Levels() []logrus.Level {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		if level <= h.level {
			levels = append(levels, level)
		}
	}
	return levels
}

func (h *levelHook) Fire(entry *logrus.Entry) error {
	data, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	_, err = h.out.Write(data)
	return err
}

func fileWriter(config *Config) io.Writer {
	name := config.FileName
	if len(name) == 0 {
		name = defaultFileName
	}
	path := filepath.Join(config.FileDir, name)

	writersLock.Lock()
	defer writersLock.Unlock()

	if w, ok := fileWriters[path]; ok {
		return w
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
	}
	fileWriters[path] = w
	return w
}

/*
NewLoggerWithConfig 按 config 创建 logger：控制台与文件两路输出各自按级别过滤。
*/
func NewLoggerWithConfig(config *Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	level := logrus.PanicLevel

	if !config.DisableConsole {
		logger.AddHook(&levelHook{
			level:     config.ConsoleLevel,
			out:       os.Stdout,
			formatter: &logrus.TextFormatter{FullTimestamp: true},
		})
		if config.ConsoleLevel > level {
			level = config.ConsoleLevel
		}
	}

	if !config.DisableFile && len(config.FileDir) != 0 {
		logger.AddHook(&levelHook{
			level:     config.FileLevel,
			out:       fileWriter(config),
			formatter: &logrus.JSONFormatter{},
		})
		if config.FileLevel > level {
			level = config.FileLevel
		}
	}

	logger.SetLevel(level)
	return logger
}

func NewLogger() *logrus.Logger {
	config := getDefaultConfig()
	return NewLoggerWithConfig(&config)
}

/*
Default 返回共享的默认 logger，SetDefaultConfig 之后会重新创建。
*/
func Default() *logrus.Logger {
	defaultLoggerLock.Lock()
	defer defaultLoggerLock.Unlock()

	if defaultLogger == nil {
		defaultLogger = NewLogger()
	}
	return defaultLogger
}
