// Package cli implements the vis2table command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vis2table/internal/config"
	"vis2table/internal/domain"
	"vis2table/internal/engine"
	"vis2table/internal/pipeline"
	"vis2table/internal/table"
)

var (
	version = "dev"
	commit  = "none"
)

// settings are the global options after flag > env > profile > default
// resolution.
type settings struct {
	DataDir      string
	Engine       string
	Output       string
	CSVDialect   string
	Profile      string
	LogLevel     string
	Timeout      time.Duration
	PollInterval time.Duration
	Timezone     string

	dialect  table.CSVDialect
	location *time.Location
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, errorObject(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorObject describes err for -o json, naming its domain kind.
func errorObject(err error) map[string]interface{} {
	obj := map[string]interface{}{"error": err.Error()}
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var engineLoad *domain.EngineLoadError
	var neverReady *domain.DataNeverReadyError
	switch {
	case errors.As(err, &notFound):
		obj["kind"] = "not_found"
	case errors.As(err, &validation):
		obj["kind"] = "validation"
	case errors.As(err, &engineLoad):
		obj["kind"] = "engine_load"
	case errors.As(err, &neverReady):
		obj["kind"] = "data_never_ready"
	}
	return obj
}

func newRootCmd() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:           "vis2table",
		Short:         "Reconstruct data tables from chart specifications",
		Long:          "Command-line interface that recovers the table behind a declarative chart specification.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.resolve(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.DataDir, "data-dir", "./data", "Specification root directory or base URL")
	flags.StringVar(&s.Engine, "engine", engine.KindDuckDB, "Engine (duckdb, snapshot)")
	flags.StringVarP(&s.Output, "output", "o", "table", "Output format (table, json, csv, html)")
	flags.StringVar(&s.CSVDialect, "csv-dialect", string(table.DialectRFC4180), "CSV dialect (rfc4180, legacy)")
	flags.StringVarP(&s.Profile, "profile", "p", "", "Config profile to use")
	flags.StringVar(&s.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.DurationVar(&s.Timeout, "timeout", pipeline.DefaultReadyTimeout, "How long to wait for chart data")
	flags.DurationVar(&s.PollInterval, "poll-interval", pipeline.DefaultPollInterval, "How often to check for chart data")
	flags.StringVar(&s.Timezone, "timezone", "UTC", "IANA timezone for temporal fields")

	rootCmd.AddCommand(newExtractCmd(s))
	rootCmd.AddCommand(newMappingCmd(s))
	rootCmd.AddCommand(newListCmd(s))
	rootCmd.AddCommand(newBatchCmd(s))

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve applies precedence flag > env > profile > default and validates
// the result.
func (s *settings) resolve(cmd *cobra.Command) error {
	cfg, err := LoadUserConfig()
	if err != nil {
		// Config file is optional
		cfg = emptyUserConfig()
	}
	p, err := cfg.ActiveProfile(s.Profile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	pick := func(flag, env, profile string, dst *string) {
		if flags.Changed(flag) {
			return
		}
		if v := os.Getenv(env); v != "" {
			*dst = v
		} else if profile != "" {
			*dst = profile
		}
	}
	pick("data-dir", "VIS2TABLE_DATA_DIR", p.DataDir, &s.DataDir)
	pick("engine", "VIS2TABLE_ENGINE", p.Engine, &s.Engine)
	pick("output", "VIS2TABLE_OUTPUT", p.Output, &s.Output)
	pick("csv-dialect", "VIS2TABLE_CSV_DIALECT", p.CSVDialect, &s.CSVDialect)
	pick("timezone", "VIS2TABLE_TIMEZONE", p.Timezone, &s.Timezone)
	pick("log-level", "VIS2TABLE_LOG_LEVEL", "", &s.LogLevel)

	if !flags.Changed("timeout") {
		raw := os.Getenv("VIS2TABLE_TIMEOUT")
		if raw == "" {
			raw = p.Timeout
		}
		if raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid timeout %q: %w", raw, err)
			}
			s.Timeout = d
		}
	}

	if err := validateOutputFormat(s.Output); err != nil {
		return err
	}
	if s.dialect, err = table.ParseCSVDialect(s.CSVDialect); err != nil {
		return err
	}
	if s.location, err = config.LoadLocation(s.Timezone); err != nil {
		return err
	}
	return nil
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
