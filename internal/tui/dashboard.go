package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/poll"
)

const sendsBarWidth = 30

type dashboardScreen struct {
	m      *Model
	handle *poll.Handle
	stats  *models.DashboardStats
	quota  progress.Model
}

func newDashboardScreen(m *Model) *dashboardScreen {
	return &dashboardScreen{
		m:     m,
		quota: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (s *dashboardScreen) mount() tea.Cmd {
	s.handle = s.m.dashboard.Attach(viewDashboard)
	return nil
}

func (s *dashboardScreen) unmount() {
	detach(s.handle)
}

func (s *dashboardScreen) editing() bool { return false }

func (s *dashboardScreen) help() []key.Binding {
	return []key.Binding{s.m.keys.Campaigns, s.m.keys.Lists, s.m.keys.Templates, s.m.keys.Refresh}
}

func (s *dashboardScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case snapshotMsg[*models.DashboardStats]:
		if current(s.handle, msg.snap.Key, msg.snap.Generation) {
			s.stats = msg.snap.Value
		}
	case tea.KeyMsg:
		if key.Matches(msg, s.m.keys.Refresh) {
			s.handle.Refresh()
		}
	}
	return nil
}

// todayQuota returns today's sends, the effective limit and the percentage used
func (s *dashboardScreen) todayQuota() (sent, limit int, pct float64) {
	return display.TodayQuota(s.stats.TodayQuota, s.m.cfg.QuotaLimit)
}

func (s *dashboardScreen) view() string {
	st := s.m.styles
	if s.stats == nil {
		return st.Muted.Render("Carregando...")
	}

	var b strings.Builder
	b.WriteString(st.Header.Render("Painel"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s   %s %s\n",
		st.Label.Render("Campanhas:"), st.Value.Render(fmt.Sprint(s.stats.Campaigns.Total)),
		st.Label.Render("Ativas:"), st.Value.Render(fmt.Sprint(s.stats.Campaigns.Active)))
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		st.Label.Render("Listas:"), st.Value.Render(fmt.Sprint(s.stats.Lists.Total)),
		st.Label.Render("Contatos:"), st.Value.Render(fmt.Sprint(s.stats.Lists.TotalContacts)))
	fmt.Fprintf(&b, "%s %s\n\n",
		st.Label.Render("Templates:"), st.Value.Render(fmt.Sprint(s.stats.Templates.Total)))

	sent, limit, pct := s.todayQuota()
	fmt.Fprintf(&b, "%s %d / %d (%s%%)\n", st.Label.Render("Cota de hoje:"), sent, limit, display.FormatPercent(pct))
	b.WriteString(s.quota.ViewAs(min(pct, 100) / 100))
	b.WriteString("\n\n")

	b.WriteString(st.Label.Render("Envios recentes"))
	b.WriteString("\n")
	if len(s.stats.RecentSends) == 0 {
		b.WriteString(st.Muted.Render("Nenhum envio"))
		b.WriteString("\n")
	}
	peak := 0
	for _, d := range s.stats.RecentSends {
		peak = max(peak, d.EmailsSent)
	}
	for _, d := range s.stats.RecentSends {
		bar := 0
		if peak > 0 {
			bar = d.EmailsSent * sendsBarWidth / peak
		}
		fmt.Fprintf(&b, "%-10s %s %d\n", d.Date, strings.Repeat("█", bar), d.EmailsSent)
	}
	b.WriteString("\n")

	b.WriteString(st.Label.Render("Campanhas recentes"))
	b.WriteString("\n")
	if len(s.stats.RecentCampaigns) == 0 {
		b.WriteString(st.Muted.Render("Nenhuma campanha"))
		b.WriteString("\n")
	}
	for _, c := range s.stats.RecentCampaigns {
		fmt.Fprintf(&b, "%-30s %s %s%%\n",
			truncate(c.Name, 30), st.Badge(display.CampaignBadge(c.Status)),
			display.FormatPercent(display.CampaignProgress(c)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
