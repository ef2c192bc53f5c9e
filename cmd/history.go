package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded generation sessions",
	}

	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
		newHistoryDeleteCmd(app),
		newHistoryClearCmd(app),
	)

	return cmd
}

func newHistoryListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.history.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(sessions)
			}

			if len(sessions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Session", "Created", "Prompts", "Images", "Failures"})
			for _, session := range sessions {
				images, failures := 0, 0
				for _, outcome := range session.Outcomes {
					images += len(outcome.Images)
					if outcome.Error != "" {
						failures++
					}
				}
				tw.AppendRow(table.Row{
					session.ID,
					session.CreatedAt.Local().Format(time.DateTime),
					len(session.Outcomes),
					images,
					failures,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

func newHistoryShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.history.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(session)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session: %s (%s)\n",
				session.ID, session.CreatedAt.Local().Format(time.DateTime))
			for i, outcome := range session.Outcomes {
				if outcome.Succeeded() {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d) %s: %d image(s)\n", i+1, outcome.Prompt, len(outcome.Images))
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d) %s: %s\n", i+1, outcome.Prompt, outcome.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")

	return cmd
}

func newHistoryDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.history.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session deleted")
			return nil
		},
	}
}

func newHistoryClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.history.Clear(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		},
	}
}
