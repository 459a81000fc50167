package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run unit tests, or integration tests against attached hardware",
		RunE: func(cmd *cobra.Command, args []string) error {
			integration, _ := cmd.Flags().GetBool("integration")
			run, kind := test.Test, "tests"
			if integration {
				run, kind = test.Integ, "integration tests"
			}
			if err := run(); err != nil {
				return fmt.Errorf("failed to run %s: %w", kind, err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("integration", false, "run integration tests")
	return cmd
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
}
