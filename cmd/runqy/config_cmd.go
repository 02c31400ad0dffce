package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Publikey/runqy-go/internal/config"
	"github.com/Publikey/runqy-go/internal/observability"
)

// newConfigCommand creates the config subcommand
func newConfigCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Manage runqy configuration settings",
	}

	// config show
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration and where each value came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			fmt.Print(cli.formatConfig())
			return nil
		},
	})

	// config set
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a configuration value",
		Long: `Persist a configuration value to ~/.runqy/config.yaml.

Known keys: server_url, api_key, queue, request_timeout_seconds,
task_timeout_seconds, max_response_bytes, log_level, log_format, verbose.

Example:
  runqy config set server_url https://queue.internal:3000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			parsed, err := parseConfigValue(key, value)
			if err != nil {
				return err
			}
			var saveOpts []config.Option
			if cli.configPath != "" {
				saveOpts = append(saveOpts, config.WithConfigPath(cli.configPath))
			}
			path, err := config.Save(map[string]any{key: parsed}, saveOpts...)
			if err != nil {
				return err
			}
			fmt.Printf("%s Wrote %s to %s\n", green("✅"), bold(key), blue(path))
			return nil
		},
	})

	// config path
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.configPath != "" {
				fmt.Println(cli.configPath)
				return nil
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}
			fmt.Println(config.DefaultConfigPath(home))
			return nil
		},
	})

	return cmd
}

// parseConfigValue validates a key and coerces the value to the type the
// loader expects on the next read.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "server_url", "api_key", "queue", "log_level", "log_format":
		return value, nil
	case "request_timeout_seconds", "task_timeout_seconds", "max_response_bytes":
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s wants an integer: %w", key, err)
		}
		return parsed, nil
	case "verbose":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s wants a boolean: %w", key, err)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("unknown configuration key %q", key)
	}
}

// formatConfig renders the effective configuration with the source of each
// value. The API key is masked.
func (cli *CLI) formatConfig() string {
	cfg := cli.cfg
	out := fmt.Sprintf("\n%s Current configuration:\n", bold("⚙️"))
	out += cli.configLine("server_url", cfg.ServerURL)
	out += cli.configLine("api_key", observability.SanitizeAPIKey(cfg.APIKey))
	out += cli.configLine("queue", cfg.Queue)
	out += cli.configLine("request_timeout_seconds", strconv.Itoa(cfg.RequestTimeoutSecs))
	out += cli.configLine("task_timeout_seconds", strconv.Itoa(cfg.TaskTimeoutSecs))
	out += cli.configLine("max_response_bytes", strconv.Itoa(cfg.MaxResponseBytes))
	out += cli.configLine("log_level", cfg.LogLevel)
	out += cli.configLine("log_format", cfg.LogFormat)
	if file := viper.ConfigFileUsed(); file != "" {
		out += fmt.Sprintf("\n  %s: %s\n", bold("Config file"), gray(file))
	}
	if cli.verbose {
		out += fmt.Sprintf("  %s: %s\n", bold("Loaded at"), gray(cli.meta.LoadedAt().Format(time.RFC3339)))
	}
	return out
}

func (cli *CLI) configLine(key, value string) string {
	source := string(cli.meta.Source(key))
	return fmt.Sprintf("  %s: %s %s\n", bold(key), blue(value), gray("("+source+")"))
}
