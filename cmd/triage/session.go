package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect and remove sessions kept by the configured store (see store.backend).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ids, err := app.Manager.List(ctx)
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No stored sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Stored Sessions:")
		for _, id := range ids {
			s, err := app.Manager.Get(ctx, id)
			if err != nil {
				fmt.Fprintf(out, "- %s (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Fprintf(out, "- %s  %s  %s  severity %s\n", id, s.ModuleID, s.Status, s.MaxSeverity)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a stored session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Manager.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id...]",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("pass session ids or --all")
		}

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ids := args
		if all {
			if ids, err = app.Manager.List(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, id := range ids {
			if err := app.Manager.Delete(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}
