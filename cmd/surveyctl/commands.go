package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"surveyassist/internal/config"
	"surveyassist/internal/logging"
)

type rootOptions struct {
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "surveyctl",
		Short: "Operate survey definitions and the Survey Assist classification gateway",
		Long: `surveyctl validates survey definition files, runs a survey in the terminal
and calls the classification gateway directly.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.cfg = config.Load()
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(
		newValidateCmd(),
		newRunCmd(opts),
		newGatewayCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), o.logLevel, "text")
}
