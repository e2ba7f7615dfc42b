package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/config"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "disparo",
	Short: "Disparo - email campaign console",
	Long: `Disparo manages recipient lists, message templates and send campaigns
against the campaign service REST API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is not an error
		_ = godotenv.Load()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file and environment",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("disparo version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (DISPARO_* variables override it)")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd, versionCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  API:        %s\n", cfg.API.BaseURL)
	fmt.Printf("  Token:      %s\n", maskToken(cfg.API.Token))
	fmt.Printf("  Polling:    dashboard=%s campaigns=%s campaign=%s lists=%s list=%s\n",
		cfg.Polling.Dashboard, cfg.Polling.Campaigns, cfg.Polling.CampaignDetail,
		cfg.Polling.Lists, cfg.Polling.ListDetail)
	fmt.Printf("  Page size:  %d\n", cfg.Contacts.PageSize)
	fmt.Printf("  Quota:      %d\n", cfg.Quota.DailyLimit)
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics:    %s%s\n", cfg.Metrics.ListenAddr, cfg.Metrics.Path)
	}
	fmt.Printf("  Dev server: %s (%s)\n", cfg.DevServer.ListenAddr, cfg.DevServer.DBPath)

	return nil
}

func maskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) <= 8:
		return "********"
	default:
		return token[:4] + "..." + token[len(token)-4:]
	}
}
