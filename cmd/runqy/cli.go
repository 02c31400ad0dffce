package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	runqy "github.com/Publikey/runqy-go"
	"github.com/Publikey/runqy-go/internal/config"
	"github.com/Publikey/runqy-go/internal/logging"
	"github.com/Publikey/runqy-go/internal/observability"
)

// Color definitions shared by all subcommand output
var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// stdinIsPiped reports whether stdin carries piped data rather than a terminal.
func stdinIsPiped() bool {
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// CLI holds the resolved configuration and the shared client used by the
// subcommands.
type CLI struct {
	cfg    config.RuntimeConfig
	meta   config.Metadata
	client *runqy.Client
	logger *observability.Logger

	verbose    bool
	logFormat  string
	configPath string
}

// newRootCommand creates the root cobra command
func newRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "runqy",
		Short: "Task queue client for runqy servers",
		Long: fmt.Sprintf(`%s

Submit tasks to a runqy server, look up their state and wait for results.

%s
  runqy enqueue '{"to": "user@example.com"}' --queue emails
  cat payload.json | runqy enqueue
  runqy get 01890a5d-ac96-774b-bcce-b302099a8057
  runqy wait task-1 task-2 --interval 5s
  runqy config set api_key rq_live_xxx`,
			bold("runqy "+appVersion()),
			bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("server", "", "Server URL")
	rootCmd.PersistentFlags().String("api-key", "", "API key for bearer authentication")
	rootCmd.PersistentFlags().StringP("queue", "q", "", "Queue name")
	rootCmd.PersistentFlags().Int("request-timeout", 0, "Per-request timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&cli.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&cli.configPath, "config", "", "Config file (default ~/.runqy/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(newEnqueueCommand(cli))
	rootCmd.AddCommand(newGetCommand(cli))
	rootCmd.AddCommand(newWaitCommand(cli))
	rootCmd.AddCommand(newConfigCommand(cli))
	rootCmd.AddCommand(newVersionCommand())

	// Configure viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.runqy")
	viper.AddConfigPath(".")

	return rootCmd
}

// initialize resolves configuration and builds the shared client. Every
// subcommand that talks to the server calls this first.
func (cli *CLI) initialize(cmd *cobra.Command) error {
	if cli.configPath != "" {
		viper.SetConfigFile(cli.configPath)
	}
	if err := viper.ReadInConfig(); err != nil && cli.verbose {
		fmt.Fprintf(os.Stderr, "%s no config file found: %v\n", gray("note:"), err)
	}

	loadOpts := []config.Option{config.WithOverrides(cli.flagOverrides(cmd))}
	if cli.configPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(cli.configPath))
	}
	cfg, meta, err := config.Load(loadOpts...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cli.cfg = cfg
	cli.meta = meta

	level := cfg.LogLevel
	if cli.verbose || cfg.Verbose {
		level = "debug"
	}
	format := cfg.LogFormat
	if cli.logFormat != "" {
		format = cli.logFormat
	}
	cli.logger = observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})

	opts := []runqy.Option{
		runqy.WithTimeout(cfg.RequestTimeout()),
		runqy.WithMaxResponseBytes(int64(cfg.MaxResponseBytes)),
	}
	if cli.verbose || cfg.Verbose {
		opts = append(opts, runqy.WithLogger(logging.FromObservability(cli.logger, "client")))
	}
	cli.client = runqy.New(cfg.ServerURL, cfg.APIKey, opts...)
	return nil
}

// flagOverrides lifts explicitly set global flags into loader overrides, so
// flags beat both the config file and the environment.
func (cli *CLI) flagOverrides(cmd *cobra.Command) config.Overrides {
	overrides := config.Overrides{}
	flags := cmd.Flags()

	if flags.Changed("server") {
		v, _ := flags.GetString("server")
		overrides.ServerURL = &v
	}
	if flags.Changed("api-key") {
		v, _ := flags.GetString("api-key")
		overrides.APIKey = &v
	}
	if flags.Changed("queue") {
		v, _ := flags.GetString("queue")
		overrides.Queue = &v
	}
	if flags.Changed("request-timeout") {
		v, _ := flags.GetInt("request-timeout")
		overrides.RequestTimeoutSecs = &v
	}
	return overrides
}

// newVersionCommand creates the version subcommand
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("runqy %s\n", appVersion())
		},
	}
}
