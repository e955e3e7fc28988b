// Package sym defines the glyphs smolassistant uses as markers in delivered
// reminder text and as a structured field in logs.
package sym

// Delivery markers. These prefix the text handed to the delivery callback
// so the agent can tell a one-time reminder from a recurring one.
const (
	Reminder  = "🔔" // one-time reminder fired
	Recurring = "🔁" // recurring reminder fired
)

// System markers, logged under the "symbol" field.
const (
	Remind      = "⏰" // reminder service and scheduler loop
	RemindOpen  = "✿" // service start and reload
	RemindClose = "❀" // service stop
	DB          = "⊔" // database/storage layer
	AM          = "≡" // configuration
	Tool        = "⚒" // agent tool calls
)

// Describe returns a short description for a glyph, or "" if unknown.
func Describe(glyph string) string {
	return descriptions[glyph]
}

var descriptions = map[string]string{
	Reminder:    "One-time reminder delivery",
	Recurring:   "Recurring reminder delivery",
	Remind:      "Reminder scheduler",
	RemindOpen:  "Reminder service startup and reload",
	RemindClose: "Reminder service shutdown",
	DB:          "Database/storage layer",
	AM:          "Configuration",
	Tool:        "Agent tool call",
}
