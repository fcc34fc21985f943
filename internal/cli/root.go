package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the server CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mbti-quiz",
		Short:         "MBTI quiz API: questionnaire, scoring, statistics and sessions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// envName mirrors the ENV default used by config.Load
func envName() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}
