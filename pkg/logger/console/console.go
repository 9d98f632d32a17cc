package console

import (
	"os"

	"github.com/charmbracelet/log"
)

// ConsoleLogger writes through charmbracelet/log to stderr. It is the backend
// that owns process termination: Fatal exits, so it must be the last backend
// registered.
type ConsoleLogger struct {
	logger *log.Logger
}

type ConsoleLoggerParams struct {
	Debug bool
}

func NewConsoleLogger(params ConsoleLoggerParams) *ConsoleLogger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	return &ConsoleLogger{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		}),
	}
}

func (c *ConsoleLogger) Log(message string, keyvals ...any) { c.logger.Print(message, keyvals...) }

func (c *ConsoleLogger) Debug(message string, keyvals ...any) { c.logger.Debug(message, keyvals...) }

func (c *ConsoleLogger) Info(message string, keyvals ...any) { c.logger.Info(message, keyvals...) }

func (c *ConsoleLogger) Warn(message string, keyvals ...any) { c.logger.Warn(message, keyvals...) }

func (c *ConsoleLogger) Error(message string, keyvals ...any) { c.logger.Error(message, keyvals...) }

// Fatal logs and terminates the process.
func (c *ConsoleLogger) Fatal(message string, keyvals ...any) { c.logger.Fatal(message, keyvals...) }
