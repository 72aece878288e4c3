package main

import (
	"errors"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <module>",
	Short: "Run a questionnaire in the terminal",
	Long: `Asks the questions of a module one by one and prints the outcome.

With --session the answers are stored under that id, so a questionnaire left with
"quit" or Ctrl+C resumes where it stopped. --watch reloads the module directory on
every change and resumes the same session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts := cli.RunOptions{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
		}
		opts.SessionID, _ = flags.GetString("session")
		opts.Entry, _ = flags.GetString("entry")
		opts.PatientData, _ = flags.GetString("data")
		opts.Fresh, _ = flags.GetBool("fresh")
		opts.Watch, _ = flags.GetBool("watch")
		opts.MaxRetries, _ = flags.GetInt("max-retries")
		if len(args) > 0 {
			opts.ModuleID = args[0]
		}

		jsonMode, _ := flags.GetBool("json")
		tuiMode, _ := flags.GetBool("tui")
		switch {
		case jsonMode && tuiMode:
			return errors.New("--json and --tui cannot be used together")
		case jsonMode:
			opts.Mode = cli.ModeJSON
		case tuiMode:
			opts.Mode = cli.ModeTUI
		default:
			opts.Mode = cli.ModeText
		}
		if opts.ModuleID == "" && opts.SessionID == "" {
			return errors.New("a module id or --session is required")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := openApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if opts.Mode == cli.ModeText {
			title := "Triage"
			if m, err := app.Catalog.GetModule(sigCtx, opts.ModuleID); err == nil {
				title = m.Title
				if title == "" {
					title = m.ID
				}
			}
			tui.PrintBanner(opts.Out, title)
		}
		return cli.Execute(sigCtx, app, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringP("session", "s", "", "Session id to store answers under and resume")
	f.String("entry", "", "Entry node or named entry (e.g. postpartum)")
	f.String("data", "", `Patient data as a JSON object, e.g. '{"ageMonths": 2}'`)
	f.Bool("fresh", false, "Discard the stored session before starting")
	f.Bool("watch", false, "Reload the module directory on change")
	f.Bool("json", false, "Read answers and write views as JSON lines")
	f.Bool("tui", false, "Use the full-screen interactive questionnaire")
	f.Int("max-retries", 0, "Give up after this many invalid answers in a row (0 = unlimited)")
}
