package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"kyklos/internal/config"
	"kyklos/internal/server"
	"kyklos/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the kyklos API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			template, err := cfg.WeekTemplate()
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath, "auto_migrate", cfg.AutoMigrate)
			st, err := store.Open(cfg.DBPath, store.Options{AutoMigrate: cfg.AutoMigrate})
			if err != nil {
				return err
			}
			defer st.Close()

			sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
			srv := server.New(addr, st, cfg.DBPath, template, sessionTTL, logger)
			return srv.ListenAndServe()
		},
	}
}
