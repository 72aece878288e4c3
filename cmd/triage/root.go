package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage runs medical self-triage questionnaires",
	Long: `Triage walks a patient through a questionnaire of yes/no, numeric and choice
questions, keeps the highest severity seen and routes the result to an emergency
call, a priority callback or a scheduled consultation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("dir", "", "Directory of module definitions (YAML/JSON files or a loam repository)")
	pf.Bool("no-builtin", false, "Do not serve the built-in modules")
	pf.String("store", "", "Session store backend: memory, file or redis")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("dir") {
		cfg.Modules.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("no-builtin") {
		noBuiltin, _ := flags.GetBool("no-builtin")
		cfg.Modules.Builtin = !noBuiltin
	}
	if flags.Changed("store") {
		cfg.Store.Backend, _ = flags.GetString("store")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the application for a command. Callers must Close it.
func openApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(ctx, cfg)
}
