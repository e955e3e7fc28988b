package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/smolassistant/am"
	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/history"
	"github.com/teranos/smolassistant/logger"
	"github.com/teranos/smolassistant/remind"
	"github.com/teranos/smolassistant/sym"
	"github.com/teranos/smolassistant/tools"
)

// ServeCmd runs the reminder service behind an MCP server on stdio
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: sym.Remind + " Serve the reminder tools over MCP on stdio",
	Long: `Start the reminder service and serve its tools over the Model Context
Protocol on stdin/stdout.

Persisted reminders are reloaded on start. Each fired reminder is added to the
message history and sent to the connected client as a notifications/message
log notification. The server runs until stdin closes or it receives
SIGINT/SIGTERM. Logs go to stderr.`,
	RunE: runServe,
}

var serveDBPath string

func init() {
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Reminder database path (overrides reminders.db_path)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.ComponentLogger("serve")

	if path, created, err := am.EnsureUserConfig(); err != nil {
		log.Warnw("Could not write default config", logger.FieldError, err)
	} else if created {
		log.Infow("Created default config", logger.FieldPath, path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return errors.Wrap(err, "reminders.timezone")
	}

	database, dbPath, err := openDatabase(cfg, serveDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	hist := history.New(cfg.MessageHistory.MaxSize)

	var notify func(string)
	consumer := newDeliveryConsumer(hist, func(text string) {
		if notify != nil {
			notify(text)
		}
	}, logger.ComponentLogger("delivery"))
	consumer.Start()

	store := remind.NewStore(database, logger.ComponentLogger("store"))
	svc := remind.NewService(store, consumer.Deliver, remind.Config{
		TickInterval: cfg.TickInterval(),
		StopTimeout:  cfg.StopTimeout(),
		Location:     loc,
	}, logger.ComponentLogger("remind"))

	mcpServer := tools.NewMCPServer(
		tools.NewReminders(svc, logger.ComponentLogger("tools")),
		tools.NewHistory(hist),
		logger.ComponentLogger("mcp"),
	)
	notify = mcpServer.Notify

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		consumer.Close()
		return errors.Wrap(err, "failed to start reminder service")
	}

	log.Infow("Reminder service ready",
		logger.FieldPath, dbPath,
		"timezone", loc.String(),
		"tick", cfg.TickInterval().String())

	if watcher := watchConfig(cfg, hist, log); watcher != nil {
		defer func() {
			am.SetGlobalWatcher(nil)
			_ = watcher.Stop()
		}()
	}

	serveErr := mcpServer.Serve(ctx, os.Stdin, os.Stdout)

	svc.Stop()
	consumer.Close()

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return errors.Wrap(serveErr, "MCP server stopped")
	}
	log.Infow("Shut down cleanly")
	return nil
}

// watchConfig resizes the message history when the user config changes.
// Reminder settings are read once at start and need a restart.
func watchConfig(initial *am.Config, hist *history.MessageHistory, log *zap.SugaredLogger) *am.ConfigWatcher {
	path, err := am.UserConfigPath()
	if err != nil {
		log.Warnw("Config watcher disabled", logger.FieldError, err)
		return nil
	}

	watcher, err := am.NewConfigWatcher(path)
	if err != nil {
		log.Warnw("Config watcher disabled", logger.FieldPath, path, logger.FieldError, err)
		return nil
	}

	watcher.OnReload(func(cfg *am.Config) error {
		if size := cfg.MessageHistory.MaxSize; size != hist.MaxSize() {
			hist.SetMaxSize(size)
			log.Infow("Message history resized", "max_size", size)
		}
		if cfg.Reminders != initial.Reminders {
			log.Warnw("Reminder settings changed, restart to apply them")
		}
		return nil
	})

	am.SetGlobalWatcher(watcher)
	watcher.Start()
	return watcher
}
