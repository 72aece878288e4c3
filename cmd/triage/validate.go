package main

import (
	"fmt"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/validator"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/modules"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check module graphs for consistency",
	Long: `Parses every module in dir (the built-in modules when omitted) and reports
dangling references, missing entries, unreachable questions and malformed
constraints. Warnings do not fail the command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			mods []*domain.Module
			err  error
		)
		if len(args) > 0 {
			mods, err = triage.LoadDir(cmd.Context(), args[0])
		} else {
			mods, err = modules.Load()
		}
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, m := range mods {
			issues := validator.Check(m)
			errs := 0
			for _, issue := range issues {
				if !issue.Warning {
					errs++
				}
			}
			if errs > 0 {
				failed++
				fmt.Fprintf(out, "✗ %s\n", m.ID)
			} else {
				fmt.Fprintf(out, "✓ %s (%d questions)\n", m.ID, len(m.Nodes))
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "    %s\n", issue)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d modules are invalid", failed, len(mods))
		}
		fmt.Fprintln(out, "All modules are valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
