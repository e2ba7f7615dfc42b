package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/notify"
	"github.com/foxzi/disparo/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive console",
	Long: `Open the full screen console: dashboard, campaigns, lists and templates,
refreshed in the background while each view is open.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the console, so logs only go to logging.file
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := tui.New(s.client, tui.Config{
		Intervals: tui.Intervals{
			Dashboard:      s.cfg.Polling.Dashboard,
			Campaigns:      s.cfg.Polling.Campaigns,
			CampaignDetail: s.cfg.Polling.CampaignDetail,
			Lists:          s.cfg.Polling.Lists,
			ListDetail:     s.cfg.Polling.ListDetail,
		},
		PageSize:   s.cfg.Contacts.PageSize,
		QuotaLimit: s.cfg.Quota.DailyLimit,
	},
		tui.WithLogger(s.logger),
		tui.WithMetrics(s.metrics),
		tui.WithNotifier(notify.NewLogNotifier(s.logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}
