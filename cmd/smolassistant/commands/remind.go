package commands

import (
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
	"github.com/teranos/smolassistant/remind"
	"github.com/teranos/smolassistant/sym"
)

// RemindCmd groups commands that inspect stored reminders
var RemindCmd = &cobra.Command{
	Use:   "remind",
	Short: sym.Reminder + " Inspect stored reminders",
}

var remindLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored reminders",
	Long: `List the reminders persisted in the reminder database.

Reads the database directly, so it works whether or not a server is running.
Recurring reminders show their pattern; their next fire time is only known to
a running service.`,
	RunE: runRemindLs,
}

var remindLsDBPath string

func init() {
	remindLsCmd.Flags().StringVar(&remindLsDBPath, "db-path", "", "Reminder database path (overrides reminders.db_path)")
	RemindCmd.AddCommand(remindLsCmd)
}

func runRemindLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return errors.Wrap(err, "reminders.timezone")
	}

	database, _, err := openDatabase(cfg, remindLsDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	store := remind.NewStore(database, logger.ComponentLogger("store"))
	ctx := cmd.Context()

	oneTime, err := store.ListOneTime(ctx)
	if err != nil {
		return err
	}
	recurring, err := store.ListRecurring(ctx)
	if err != nil {
		return err
	}

	if len(oneTime)+len(recurring) == 0 {
		pterm.Info.Println("No reminders set.")
		return nil
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithData(reminderTable(oneTime, recurring, loc)).
		Render()
}

// reminderTable lays out one-time reminders by due time, then recurring ones
// in creation order
func reminderTable(oneTime []remind.OneTimeReminder, recurring []remind.RecurringReminder, loc *time.Location) pterm.TableData {
	const layout = "2006-01-02 15:04 MST"

	sort.SliceStable(oneTime, func(i, j int) bool {
		return oneTime[i].DueAt.Before(oneTime[j].DueAt)
	})

	data := pterm.TableData{{"ID", "Kind", "When", "Message"}}
	for _, r := range oneTime {
		data = append(data, []string{r.ID, "one-time", r.DueAt.In(loc).Format(layout), r.Message})
	}
	for _, r := range recurring {
		data = append(data, []string{r.ID, "recurring", "every " + r.Pattern(), r.Message})
	}
	return data
}
