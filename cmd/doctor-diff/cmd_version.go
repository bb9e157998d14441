package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"doctor-diff/internal/meta"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			fmt.Fprintln(c.OutOrStdout(), meta.Detect())
			return nil
		},
	}
}
