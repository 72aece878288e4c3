package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/triage/pkg/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Write a PDF hand-off summary of a stored session",
	Long: `Renders the answers, severity and outcome of a stored session as a PDF that
can be handed to a clinician.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Manager.Get(ctx, args[0])
		if err != nil {
			return err
		}
		m, err := app.Catalog.GetModule(ctx, s.ModuleID)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		var w io.Writer = cmd.OutOrStdout()
		if path != "-" {
			if path == "" {
				path = fmt.Sprintf("triage-%s.pdf", s.ID)
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if err := report.New(m, s, time.Now()).WritePDF(w); err != nil {
			return fmt.Errorf("error writing report: %w", err)
		}
		if path != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("output", "o", "", "Output file, '-' for stdout (default triage-<session>.pdf)")
}
