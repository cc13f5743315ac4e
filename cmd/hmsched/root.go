package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hmsched",
		Short:         "Hierarchical memory-aware operator scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSchedCmd())
	return root
}
