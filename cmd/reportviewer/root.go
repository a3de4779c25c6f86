package main

import (
	"github.com/spf13/cobra"

	"github.com/izzyreal/reportviewer/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reportviewer",
		Short: "Browse and compare hierarchical test-run reports",
		Long: "reportviewer serves a browser UI over a tree of test reports\n" +
			"(component / test type / version / build) and compares backend results side by side.",
		Version:       version.Current(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	}
}
