// Package cli wires configuration, storage and the HTTP server behind a
// cobra command tree.
package cli

import "github.com/spf13/cobra"

// NewRootCommand builds the qnadonate command. Running it without a
// subcommand serves HTTP.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "qnadonate",
		Short:         "Question, answer and donation API",
		Long:          "Serves the question, answer and donation store over HTTP. Configuration is read from APP_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}
