package main

import (
	"fmt"

	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <module>",
	Short: "Export the module graph as a Mermaid diagram",
	Long: `Prints a Mermaid flowchart of the module. With --session the questions the
session answered and its current question are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		m, err := app.Catalog.GetModule(ctx, args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			s, err := app.Manager.Get(ctx, id)
			if err != nil {
				return err
			}
			overlay = graph.OverlayOf(s)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(m, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of a stored session")
}
