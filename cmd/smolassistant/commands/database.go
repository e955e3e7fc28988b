package commands

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/teranos/smolassistant/am"
	"github.com/teranos/smolassistant/db"
	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
)

// openDatabase opens and migrates the reminder database. An empty dbPath
// uses reminders.db_path from the loaded config.
func openDatabase(cfg *am.Config, dbPath string) (*sql.DB, string, error) {
	if dbPath == "" {
		path, err := cfg.DatabasePath()
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to get database path")
		}
		dbPath = path
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), am.DefaultDirPermissions); err != nil {
			return nil, "", errors.Wrapf(err, "failed to create directory for %s", dbPath)
		}
	}

	database, err := db.OpenWithMigrations(dbPath, logger.ComponentLogger("db"))
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	return database, dbPath, nil
}

// loadConfig loads and validates the configuration
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	for path, loadErr := range am.LoadErrors() {
		logger.Warnw("Ignoring unreadable config file", logger.FieldPath, path, logger.FieldError, loadErr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}
