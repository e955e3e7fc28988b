package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/smolassistant/cmd/smolassistant/commands"
	"github.com/teranos/smolassistant/logger"
)

var rootCmd = &cobra.Command{
	Use:   "smolassistant",
	Short: "smolassistant - reminders for a small personal assistant",
	Long: `smolassistant - reminders for a small personal assistant.

Runs the reminder service behind an MCP server so an agent can set, list and
cancel one-time and recurring reminders. Fired reminders are pushed back to
the agent as notifications and recorded in the message history.

Available commands:
  serve   - Serve the reminder tools over MCP on stdio
  remind  - Inspect stored reminders
  am      - Manage configuration ("I am")
  version - Show version information

Examples:
  smolassistant serve -v            # Serve with info logging on stderr
  smolassistant remind ls           # List stored reminders
  smolassistant am show             # Show current configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs to stderr as JSON")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.RemindCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
