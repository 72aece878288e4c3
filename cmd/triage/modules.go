package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the available questionnaires",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		infos, err := app.Catalog.ListModules(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tQUESTIONS\tENTRIES\tREQUIRES")
		for _, m := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				m.ID, m.Title, m.Questions, strings.Join(slices.Sorted(maps.Keys(m.Entries)), ","), strings.Join(m.RequiredData, ","))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
	modulesCmd.Flags().Bool("json", false, "Print the list as JSON")
}
