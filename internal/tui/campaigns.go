package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/poll"
)

// newTable builds a focused table that only reacts to arrow and page keys,
// leaving letters free for actions.
func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.KeyMap = table.KeyMap{
		LineUp:     key.NewBinding(key.WithKeys("up", "k")),
		LineDown:   key.NewBinding(key.WithKeys("down", "j")),
		PageUp:     key.NewBinding(key.WithKeys("pgup")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown")),
		GotoTop:    key.NewBinding(key.WithKeys("home")),
		GotoBottom: key.NewBinding(key.WithKeys("end")),
	}
	return t
}

// campaignAction maps an action key to its campaign action
func (m *Model) campaignAction(msg tea.KeyMsg) (models.Action, bool) {
	switch {
	case key.Matches(msg, m.keys.Start):
		return models.ActionStart, true
	case key.Matches(msg, m.keys.Pause):
		return models.ActionPause, true
	case key.Matches(msg, m.keys.Resume):
		return models.ActionResume, true
	case key.Matches(msg, m.keys.Delete):
		return models.ActionDelete, true
	}
	return "", false
}

func (m *Model) campaignBindings(s models.CampaignStatus) []key.Binding {
	var out []key.Binding
	for _, a := range models.CampaignActions(s) {
		switch a {
		case models.ActionStart:
			out = append(out, m.keys.Start)
		case models.ActionPause:
			out = append(out, m.keys.Pause)
		case models.ActionResume:
			out = append(out, m.keys.Resume)
		case models.ActionDelete:
			out = append(out, m.keys.Delete)
		}
	}
	return out
}

type campaignsScreen struct {
	m         *Model
	handle    *poll.Handle
	campaigns []models.Campaign
	loaded    bool
	table     table.Model
}

func newCampaignsScreen(m *Model) *campaignsScreen {
	return &campaignsScreen{
		m: m,
		table: newTable([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Nome", Width: 28},
			{Title: "Status", Width: 10},
			{Title: "Lista", Width: 18},
			{Title: "Enviados", Width: 14},
			{Title: "Progresso", Width: 9},
		}),
	}
}

func (s *campaignsScreen) mount() tea.Cmd {
	s.handle = s.m.campaigns.Attach(viewCampaigns)
	return nil
}

func (s *campaignsScreen) unmount() {
	detach(s.handle)
}

func (s *campaignsScreen) editing() bool { return false }

func (s *campaignsScreen) selected() (models.Campaign, bool) {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.campaigns) {
		return models.Campaign{}, false
	}
	return s.campaigns[i], true
}

func (s *campaignsScreen) help() []key.Binding {
	out := []key.Binding{s.m.keys.Open, s.m.keys.New}
	if c, ok := s.selected(); ok {
		out = append(out, s.m.campaignBindings(c.Status)...)
	}
	return append(out, s.m.keys.Refresh)
}

func (s *campaignsScreen) setCampaigns(campaigns []models.Campaign) {
	s.campaigns = campaigns
	s.loaded = true
	rows := make([]table.Row, 0, len(campaigns))
	for _, c := range campaigns {
		rows = append(rows, table.Row{
			c.ID.String(),
			c.Name,
			string(c.Status),
			c.ListName,
			fmt.Sprintf("%d / %d", c.SentCount, c.TotalRecipients),
			display.FormatPercent(display.CampaignProgress(c)) + "%",
		})
	}
	s.table.SetRows(rows)
	if s.table.Cursor() >= len(rows) {
		s.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (s *campaignsScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case snapshotMsg[[]models.Campaign]:
		if current(s.handle, msg.snap.Key, msg.snap.Generation) {
			s.setCampaigns(msg.snap.Value)
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.m.keys.Refresh):
			s.handle.Refresh()
			return nil
		case key.Matches(msg, s.m.keys.New):
			return navigate(routeCampaignForm, "")
		case key.Matches(msg, s.m.keys.Open):
			if c, ok := s.selected(); ok {
				return navigate(routeCampaignDetail, c.ID)
			}
			return nil
		}
		if kind, ok := s.m.campaignAction(msg); ok {
			c, ok := s.selected()
			if !ok || !models.CampaignAllows(c.Status, kind) {
				return nil
			}
			return s.m.request(action.Request{
				Target:  action.TargetCampaign,
				Kind:    kind,
				ID:      c.ID,
				Refresh: refresher(s.handle),
			})
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *campaignsScreen) view() string {
	st := s.m.styles
	var b strings.Builder
	b.WriteString(st.Header.Render("Campanhas"))
	b.WriteString("\n")
	switch {
	case !s.loaded:
		b.WriteString(st.Muted.Render("Carregando..."))
	case len(s.campaigns) == 0:
		b.WriteString(st.Muted.Render("Nenhuma campanha. Pressione n para criar."))
	default:
		b.WriteString(s.table.View())
	}
	b.WriteString("\n")
	return b.String()
}

type campaignDetailScreen struct {
	m      *Model
	id     models.ID
	handle *poll.Handle
	detail *models.CampaignDetail
}

func newCampaignDetailScreen(m *Model, id models.ID) *campaignDetailScreen {
	return &campaignDetailScreen{m: m, id: id}
}

func (s *campaignDetailScreen) mount() tea.Cmd {
	s.handle = s.m.campaign.Attach(s.id.String())
	return nil
}

func (s *campaignDetailScreen) unmount() {
	detach(s.handle)
}

func (s *campaignDetailScreen) editing() bool { return false }

func (s *campaignDetailScreen) help() []key.Binding {
	var out []key.Binding
	if s.detail != nil {
		out = s.m.campaignBindings(s.detail.Campaign.Status)
	}
	return append(out, s.m.keys.Refresh)
}

func (s *campaignDetailScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case snapshotMsg[*models.CampaignDetail]:
		if current(s.handle, msg.snap.Key, msg.snap.Generation) {
			s.detail = msg.snap.Value
		}

	case fetchErrMsg:
		// A campaign that no longer exists ends the view. The failed fetch
		// already produced its notification.
		if msg.view == viewCampaignDetail && msg.key == s.id.String() && msg.kind == client.KindNotFound {
			detach(s.handle)
			return navigate(routeCampaigns, "")
		}

	case actionResultMsg:
		if msg.err == nil && msg.req.Kind == models.ActionDelete && msg.req.ID == s.id {
			return navigate(routeCampaigns, "")
		}

	case tea.KeyMsg:
		if key.Matches(msg, s.m.keys.Refresh) {
			s.handle.Refresh()
			return nil
		}
		if kind, ok := s.m.campaignAction(msg); ok && s.detail != nil {
			if !models.CampaignAllows(s.detail.Campaign.Status, kind) {
				return nil
			}
			req := action.Request{Target: action.TargetCampaign, Kind: kind, ID: s.id}
			if kind != models.ActionDelete {
				req.Refresh = refresher(s.handle)
			}
			return s.m.request(req)
		}
	}
	return nil
}

func (s *campaignDetailScreen) view() string {
	st := s.m.styles
	if s.detail == nil {
		return st.Muted.Render("Carregando...")
	}
	c := s.detail.Campaign
	sent := display.SentCount(*s.detail)

	var b strings.Builder
	b.WriteString(st.Header.Render(c.Name))
	b.WriteString("\n")
	b.WriteString(st.Badge(display.CampaignBadge(c.Status)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "%-18s %s\n", st.Label.Render(label), st.Value.Render(value))
	}
	row("Template:", nonEmpty(c.TemplateName, c.TemplateID.String()))
	row("Lista:", nonEmpty(c.ListName, c.ListID.String()))
	row("Limite diário:", fmt.Sprint(display.DailyLimit(c)))
	row("Destinatários:", fmt.Sprint(c.TotalRecipients))
	row("Enviados:", fmt.Sprint(sent))
	if s.detail.Stats != nil {
		row("Falhas:", fmt.Sprint(s.detail.Stats.Failed))
		row("Pendentes:", fmt.Sprint(s.detail.Stats.Pending))
	}
	row("Progresso:", display.FormatPercent(display.ProgressPercent(sent, c.TotalRecipients))+"%")
	row("Criada em:", c.CreatedAt.Format("02/01/2006 15:04"))
	if c.StartedAt != nil {
		row("Iniciada em:", c.StartedAt.Format("02/01/2006 15:04"))
	}
	if c.CompletedAt != nil {
		row("Concluída em:", c.CompletedAt.Format("02/01/2006 15:04"))
	}
	return b.String()
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "-"
}
