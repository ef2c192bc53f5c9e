package cmd

import (
	"fmt"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newKeyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key pool",
	}

	cmd.AddCommand(
		newKeyAddCmd(app),
		newKeyListCmd(app),
		newKeyRemoveCmd(app),
		newKeyActivateCmd(app),
		newKeyResetCmd(app),
	)

	return cmd
}

func newKeyAddCmd(app *app) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "add <key>",
		Short: "Add an API key to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credential := domain.Credential{
				Key:      args[0],
				Provider: domain.Provider(provider),
				Status:   domain.CredentialActive,
			}

			if err := app.pool.Add(cmd.Context(), credential); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s key %s\n", credential.Provider, credential.Redacted())
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", string(domain.ProviderOpenAI), "Provider the key belongs to")

	return cmd
}

func newKeyListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pool members and their status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := app.pool.Load(cmd.Context())
			if err != nil {
				return err
			}

			if len(pool.Credentials) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no keys in pool")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Key", "Provider", "Status"})
			for _, credential := range pool.Credentials {
				tw.AppendRow(table.Row{credential.Redacted(), credential.Provider, credential.Status})
			}
			tw.Render()
			return nil
		},
	}
}

func newKeyRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove an API key from the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.pool.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Removed key")
			return nil
		},
	}
}

func newKeyActivateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <key>",
		Short: "Reactivate one degraded key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.pool.MarkActive(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Key reactivated")
			return nil
		},
	}
}

func newKeyResetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reactivate all degraded keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.pool.ResetDegraded(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All degraded keys reactivated")
			return nil
		},
	}
}
