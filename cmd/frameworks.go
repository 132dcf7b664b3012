package cmd

import (
	"fmt"

	"auditai/pkg/frameworks"

	"github.com/spf13/cobra"
)

func newFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks [id]",
		Short: "Browse the regulatory frameworks reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				frameworks.PrintIndex(cmd.OutOrStdout())
				return nil
			}
			f, ok := frameworks.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown framework %q", args[0])
			}
			frameworks.PrintDetail(cmd.OutOrStdout(), f)
			return nil
		},
	}
}
