package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bulkimg",
		Short:         "Bulk image generation across a pool of provider API keys",
		Long:          "bulkimg submits a batch of text prompts to an image-generation provider, rotating requests across a pool of API keys to survive per-key rate limits, and records every run in a local history.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(app),
		newKeyCmd(app),
		newHistoryCmd(app),
	)

	return rootCmd
}
