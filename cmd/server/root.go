package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Thumbnail editor backend",
		Long: `Serves the thumbnail editor API: projects, prompt driven edits and
their history, and the one-time code sign in.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		// Running the binary without a subcommand serves the API.
		RunE: serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCmd())

	return cmd
}
