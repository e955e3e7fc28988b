package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/smolassistant/am"
	"github.com/teranos/smolassistant/am/timezone"
	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage smolassistant configuration",
	Long: sym.AM + ` am - Manage smolassistant configuration ("I am")

Display and manage configuration settings.

Configuration sources (later overrides earlier):
1. Default values
2. User config ($XDG_CONFIG_HOME/smolassistant/config.toml)
3. Project config (smolassistant.toml, searched upward from the working directory)
4. Environment variables (SMOLASSISTANT_* prefix, ANTHROPIC_API_KEY for api_key)

Examples:
  smolassistant am show                          # Show current configuration
  smolassistant am show --format json            # Show configuration in JSON format
  smolassistant am get reminders.timezone        # Get a specific value
  smolassistant am set reminders.timezone Berlin # Store a value in the user config
  smolassistant am validate                      # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged configuration from all sources. Secrets are redacted.",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., reminders.db_path, message_history.max_size)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a configuration value in the user config",
	Long: `Store a value in the user config file. The previous file is kept as a
rotating backup (.back1 to .back3). A running server picks up
message_history.max_size immediately; other settings apply on restart.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which source set each value.

Lists the files that were checked, whether they exist, and every setting
grouped by the source that won.`,
	RunE: runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default user config if none exists",
	RunE:  runAmInit,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data, err := renderSettings(am.EffectiveSettings(), configFormat)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// renderSettings marshals settings in one of the supported formats
func renderSettings(settings map[string]interface{}, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to JSON")
		}
		return append(data, '\n'), nil

	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to YAML")
		}
		return append([]byte("# smolassistant configuration\n"), data...), nil

	case "toml":
		data, err := toml.Marshal(settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to TOML")
		}
		return append([]byte("# smolassistant configuration\n"), data...), nil

	default:
		return nil, errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}

	value := v.Get(key)
	if settings := am.EffectiveSettings(); isRedacted(settings, key) {
		value = am.Redacted
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func isRedacted(settings map[string]interface{}, key string) bool {
	var current interface{} = settings
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return false
		}
		current = m[part]
	}
	return current == am.Redacted
}

func runAmSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if key == "reminders.timezone" {
		if _, err := timezone.Resolve(value); err != nil {
			return err
		}
	}

	if err := am.SetUserValue(key, value); err != nil {
		return err
	}

	path, _ := am.UserConfigPath()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s (%s)\n", key, value, path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if failed := am.LoadErrors(); len(failed) > 0 {
		paths := make([]string, 0, len(failed))
		for path := range failed {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		return errors.Wrapf(failed[paths[0]], "config file %s could not be read", paths[0])
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	writeWhere(cmd.OutOrStdout(), intro)
	return nil
}

func writeWhere(out io.Writer, intro *am.ConfigIntrospection) {
	exists := func(path string) string {
		if path == "" {
			return "not found"
		}
		if _, err := os.Stat(path); err != nil {
			return path + " (missing)"
		}
		return path
	}

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintf(out, "  2. [USER]     %s\n", exists(intro.UserFile))
	fmt.Fprintf(out, "  3. [PROJECT]  %s\n", exists(intro.ProjectFile))
	fmt.Fprintf(out, "  4. [ENV]      %s_* environment variables\n", am.EnvPrefix)
	fmt.Fprintln(out)

	bySource := make(map[am.ConfigSource][]am.SettingInfo)
	for _, setting := range intro.Settings {
		bySource[setting.Source] = append(bySource[setting.Source], setting)
	}

	order := []am.ConfigSource{am.SourceDefault, am.SourceUser, am.SourceProject, am.SourceEnvironment}

	fmt.Fprintln(out, "Active configuration:")
	for _, source := range order {
		settings := bySource[source]
		if len(settings) == 0 {
			continue
		}
		sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })

		fmt.Fprintf(out, "\n%s: %d settings\n", source, len(settings))
		for _, setting := range settings {
			valueStr := fmt.Sprintf("%v", setting.Value)
			if len(valueStr) > 50 {
				valueStr = valueStr[:47] + "..."
			}
			if source == am.SourceEnvironment || source == am.SourceUser || source == am.SourceProject {
				fmt.Fprintf(out, "  %s = %s  (%s)\n", setting.Key, valueStr, setting.SourcePath)
			} else {
				fmt.Fprintf(out, "  %s = %s\n", setting.Key, valueStr)
			}
		}
	}
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path, created, err := am.EnsureUserConfig()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote default config to %s\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
	}
	return nil
}
