package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vis2table/internal/config"
	"vis2table/internal/engine"
	"vis2table/internal/table"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigViewCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

func newConfigViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "view",
		Aliases: []string{"show"},
		Short:   "Display current configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No configuration found at %s\n", ConfigPath())
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		name    string
		p       Profile
		current bool
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if err := validateProfile(p); err != nil {
				return err
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = emptyUserConfig()
			}

			existing := cfg.Profiles[name]
			flags := cmd.Flags()
			if flags.Changed("data-dir") {
				existing.DataDir = p.DataDir
			}
			if flags.Changed("engine") {
				existing.Engine = p.Engine
			}
			if flags.Changed("output") {
				existing.Output = p.Output
			}
			if flags.Changed("csv-dialect") {
				existing.CSVDialect = p.CSVDialect
			}
			if flags.Changed("timezone") {
				existing.Timezone = p.Timezone
			}
			if flags.Changed("timeout") {
				existing.Timeout = p.Timeout
			}
			cfg.Profiles[name] = existing
			if current {
				cfg.CurrentProfile = name
			}

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"status":  "ok",
					"profile": name,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&p.DataDir, "data-dir", "", "Specification root directory or base URL")
	cmd.Flags().StringVar(&p.Engine, "engine", "", "Engine (duckdb, snapshot)")
	cmd.Flags().StringVar(&p.Output, "output", "", "Default output format")
	cmd.Flags().StringVar(&p.CSVDialect, "csv-dialect", "", "CSV dialect (rfc4180, legacy)")
	cmd.Flags().StringVar(&p.Timezone, "timezone", "", "IANA timezone for temporal fields")
	cmd.Flags().StringVar(&p.Timeout, "timeout", "", "Dataset ready timeout, e.g. 30s")
	cmd.Flags().BoolVar(&current, "use", false, "Also make this the active profile")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"status":         "ok",
					"active_profile": name,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active profile set to %q\n", name)
			return nil
		},
	}
}

// validateProfile rejects values the root command would refuse later.
func validateProfile(p Profile) error {
	if err := validateOutputFormat(p.Output); err != nil {
		return err
	}
	if p.Engine != "" && p.Engine != engine.KindDuckDB && p.Engine != engine.KindSnapshot {
		return fmt.Errorf("unsupported engine %q: use %q or %q", p.Engine, engine.KindDuckDB, engine.KindSnapshot)
	}
	if _, err := table.ParseCSVDialect(p.CSVDialect); err != nil {
		return err
	}
	if p.Timezone != "" {
		if _, err := config.LoadLocation(p.Timezone); err != nil {
			return err
		}
	}
	if p.Timeout != "" {
		if _, err := time.ParseDuration(p.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
		}
	}
	return nil
}
