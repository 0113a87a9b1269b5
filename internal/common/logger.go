package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	// Double-check after acquiring write lock
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}
	return globalLogger
}

// SetupLogger builds the run logger: an appending text file (test-cdr-admin.log
// by default) plus the console when the run is verbose.
func SetupLogger(config *TestConfig) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	logger := arbor.NewLogger()

	if config.Logging.File != "" {
		if dir := filepath.Dir(config.Logging.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fmt.Printf("Warning: Failed to create log directory: %v\n", err)
			}
		}
		logger = logger.WithFileWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeFile,
			FileName:         config.Logging.File,
			TimeFormat:       "2006-01-02 15:04:05",
			MaxSize:          100 * 1024 * 1024, // 100 MB
			MaxBackups:       3,
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	if config.Verbose || config.Logging.File == "" {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	level := config.Logging.Level
	if level == "" {
		level = "info"
	}
	logger = logger.WithLevelFromString(level)

	globalLogger = logger
	return logger
}

// GetLogFilePath returns the configured log file path from the logger
func GetLogFilePath(logger arbor.ILogger) string {
	if logger != nil {
		if logFilePath := logger.GetLogFilePath(); logFilePath != "" {
			return logFilePath
		}
	}
	return ""
}
