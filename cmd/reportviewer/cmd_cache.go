package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/izzyreal/reportviewer/internal/store"
)

func newCacheCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or purge the persistent document cache",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "cache-db", "", "sqlite cache file (required)")

	open := func() (*store.Store, error) {
		if dbPath == "" {
			return nil, errors.New("--cache-db is required")
		}
		return store.Open(dbPath)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached backend result documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			docs, err := st.ListDocuments()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tBYTES\tFETCHED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Path, d.SizeBytes, d.FetchedUTC.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.PurgeDocuments()
			if err != nil {
				return err
			}
			cmd.Printf("purged %d documents\n", n)
			return nil
		},
	})
	return cmd
}
