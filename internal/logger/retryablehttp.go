package logger

import "github.com/hashicorp/go-retryablehttp"

// leveledLogger adapts our Logger to retryablehttp's leveled logging interface
type leveledLogger struct {
	logger *Logger
}

// GetRetryableHTTPLogger returns a retryablehttp-compatible logger
func (l *Logger) GetRetryableHTTPLogger() retryablehttp.LeveledLogger {
	return &leveledLogger{logger: l}
}

func (r *leveledLogger) Debug(msg string, keyvals ...interface{}) {
	r.logger.Debugw(msg, keyvals...)
}

func (r *leveledLogger) Info(msg string, keyvals ...interface{}) {
	r.logger.Debugw(msg, keyvals...)
}

func (r *leveledLogger) Warn(msg string, keyvals ...interface{}) {
	r.logger.Warnw(msg, keyvals...)
}

func (r *leveledLogger) Error(msg string, keyvals ...interface{}) {
	r.logger.Errorw(msg, keyvals...)
}
