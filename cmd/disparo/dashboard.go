package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/models"
)

var dashboardWatch bool

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show campaign, list and quota statistics",
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().BoolVarP(&dashboardWatch, "watch", "w", false, "Refresh on the dashboard interval until interrupted")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	render := func(stats *models.DashboardStats) {
		printDashboard(os.Stdout, stats, s.cfg.Quota.DailyLimit)
	}

	if dashboardWatch {
		return watch(s, "dashboard", s.cfg.Polling.Dashboard, "dashboard", "Falha ao carregar painel",
			func(ctx context.Context, _ string) (*models.DashboardStats, error) {
				return s.client.DashboardStats(ctx)
			}, render, nil)
	}

	ctx, cancel := interruptContext()
	defer cancel()

	stats, err := s.client.DashboardStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	render(stats)
	return nil
}

func printDashboard(out io.Writer, stats *models.DashboardStats, fallbackQuota int) {
	sent, limit, pct := display.TodayQuota(stats.TodayQuota, fallbackQuota)

	fmt.Fprintf(out, "Campaigns:  %d (%d active)\n", stats.Campaigns.Total, stats.Campaigns.Active)
	fmt.Fprintf(out, "Lists:      %d (%d contacts)\n", stats.Lists.Total, stats.Lists.TotalContacts)
	fmt.Fprintf(out, "Templates:  %d\n", stats.Templates.Total)
	fmt.Fprintf(out, "Quota:      %d / %d (%s%%)\n", sent, limit, display.FormatPercent(pct))

	if len(stats.RecentSends) > 0 {
		fmt.Fprintln(out, "\nRecent sends:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, d := range stats.RecentSends {
			fmt.Fprintf(w, "  %s\t%d\n", d.Date, d.EmailsSent)
		}
		w.Flush()
	}

	if len(stats.RecentCampaigns) > 0 {
		fmt.Fprintln(out, "\nRecent campaigns:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, c := range stats.RecentCampaigns {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s%%\n",
				c.ID, truncate(c.Name, 40), c.Status,
				display.FormatPercent(display.CampaignProgress(c)))
		}
		w.Flush()
	}
}
