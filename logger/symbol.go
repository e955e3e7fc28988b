package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/smolassistant/sym"
)

// AddSymbol returns a child logger that tags every line with the glyph as a
// structured field, keeping messages themselves free of decoration.
func AddSymbol(log *zap.SugaredLogger, glyph string) *zap.SugaredLogger {
	if log == nil {
		log = Logger
	}
	return log.With(FieldSymbol, glyph)
}

// AddRemindSymbol tags a logger with the reminder scheduler glyph (⏰)
func AddRemindSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return AddSymbol(log, sym.Remind)
}

// RemindInfow logs an info message with the reminder glyph (⏰)
func RemindInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Remind}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// RemindOpenInfow logs an info message with the startup glyph (✿)
// Used when the reminder service starts and reloads persisted reminders
func RemindOpenInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.RemindOpen}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// RemindCloseInfow logs an info message with the shutdown glyph (❀)
func RemindCloseInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.RemindClose}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
