package logger

import (
	"go.uber.org/zap"
)

// Standard field names for structured logging.
// Use these constants instead of raw strings so log queries stay stable.
const (
	FieldReminderID = "reminder_id"
	FieldKind       = "kind"
	FieldInterval   = "interval"
	FieldTimeSpec   = "time_spec"
	FieldNextFireAt = "next_fire_at"
	FieldDueAt      = "due_at"

	FieldComponent  = "component"
	FieldTool       = "tool"
	FieldPath       = "path"
	FieldDurationMS = "duration_ms"
	FieldCount      = "count"
	FieldError      = "error"
	FieldState      = "state"

	FieldSymbol = "symbol" // glyph from package sym
)

// ComponentLogger returns a named child of the global logger.
// This is the preferred way to get a logger for dependency injection.
//
//	svc := remind.NewService(store, deliver, cfg, logger.ComponentLogger("remind"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
