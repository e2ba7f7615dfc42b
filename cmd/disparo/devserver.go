package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/app"
	"github.com/foxzi/disparo/internal/config"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local campaign service for development",
	Long: `Run a self-contained implementation of the campaign service REST API
backed by a local bbolt file. Campaigns are "sent" by a background
processor that only counts deliveries against the daily quota.`,
	RunE: runDevServer,
}

func init() {
	rootCmd.AddCommand(devserverCmd)
}

func runDevServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := app.OpenLogger(cfg.Logging, false)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting devserver",
		"version", version,
		"listen_addr", cfg.DevServer.ListenAddr,
		"db_path", cfg.DevServer.DBPath,
	)

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}
