package logging

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

type Config struct {
	FileLevel      logrus.Level
	ConsoleLevel   logrus.Level
	FileDir        string
	FileName       string
	MaxSizeMB      int
	MaxBackups     int
	DisableConsole bool
	DisableFile    bool
}

var (
	defaultConfigLock sync.RWMutex
	defaultConfig     = Config{
		FileLevel:    logrus.DebugLevel,
		ConsoleLevel: logrus.InfoLevel,
		FileDir:      "logs",
		DisableFile:  true,
	}
)

func SetDefaultConfig(config *Config) {
	defaultConfigLock.Lock()
	defaultConfig = *config
	defaultConfigLock.Unlock()

	defaultLoggerLock.Lock()
	defaultLogger = nil
	defaultLoggerLock.Unlock()
}

func getDefaultConfig() Config {
	defaultConfigLock.RLock()
	defer defaultConfigLock.RUnlock()

	return defaultConfig
}

/*
GenerateTestConfig 测试用配置：日志写入 t 的临时目录，控制台输出 Debug 级别。
*/
func GenerateTestConfig(t testing.TB) *Config {
	return &Config{
		FileLevel:    logrus.DebugLevel,
		ConsoleLevel: logrus.DebugLevel,
		FileDir:      t.TempDir(),
	}
}
