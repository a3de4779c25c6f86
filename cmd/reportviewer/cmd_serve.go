package main

import (
	"github.com/spf13/cobra"

	"github.com/izzyreal/reportviewer/internal/server"
)

func newServeCmd() *cobra.Command {
	settings := server.SettingsFromEnv()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the report viewer HTTP server",
		Long: `Runs the HTTP server. Flags default to the REPORTVIEWER_ADDR, REPORTVIEWER_CONFIG,
REPORTVIEWER_SOURCE and REPORTVIEWER_CACHE_DB environment variables; --source and
--cache-db override the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.Run(cmd.Context(), settings)
		},
	}
	f := cmd.Flags()
	f.StringVar(&settings.Addr, "addr", settings.Addr, "listen address")
	f.StringVar(&settings.ConfigPath, "config", settings.ConfigPath, "path to a YAML config file")
	f.StringVar(&settings.Source, "source", settings.Source, "report root: http(s) base URL or local directory")
	f.StringVar(&settings.CacheDB, "cache-db", settings.CacheDB, "sqlite file for the persistent document cache")
	return cmd
}
