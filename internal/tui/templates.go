package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/models"
)

const previewLines = 8

// templatesScreen lists templates. They change only through this console,
// so they are loaded on mount and after each action instead of polled.
type templatesScreen struct {
	m         *Model
	templates []models.Template
	loaded    bool
	table     table.Model
}

func newTemplatesScreen(m *Model) *templatesScreen {
	return &templatesScreen{
		m: m,
		table: newTable([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Nome", Width: 26},
			{Title: "Assunto", Width: 34},
			{Title: "Atualizado em", Width: 16},
		}),
	}
}

func (s *templatesScreen) mount() tea.Cmd {
	return s.load()
}

func (s *templatesScreen) unmount() {}

func (s *templatesScreen) editing() bool { return false }

func (s *templatesScreen) help() []key.Binding {
	return []key.Binding{s.m.keys.Open, s.m.keys.New, s.m.keys.Delete, s.m.keys.Refresh}
}

func (s *templatesScreen) load() tea.Cmd {
	api, ctx := s.m.api, s.m.ctx
	return func() tea.Msg {
		templates, err := api.ListTemplates(ctx)
		return templatesMsg{templates: templates, err: err}
	}
}

func (s *templatesScreen) selected() (models.Template, bool) {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.templates) {
		return models.Template{}, false
	}
	return s.templates[i], true
}

func (s *templatesScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case templatesMsg:
		if msg.err != nil {
			s.m.logger.Warn("failed to load templates", "error", msg.err)
			s.m.notifier.Error("Falha ao carregar templates")
			return nil
		}
		s.templates = msg.templates
		s.loaded = true
		rows := make([]table.Row, 0, len(msg.templates))
		for _, t := range msg.templates {
			rows = append(rows, table.Row{
				t.ID.String(),
				t.Name,
				t.Subject,
				t.UpdatedAt.Format("02/01/2006 15:04"),
			})
		}
		s.table.SetRows(rows)
		if s.table.Cursor() >= len(rows) {
			s.table.SetCursor(max(len(rows)-1, 0))
		}
		return nil

	case actionResultMsg:
		if msg.err == nil && msg.req.Target == action.TargetTemplate {
			return s.load()
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.m.keys.Refresh):
			return s.load()
		case key.Matches(msg, s.m.keys.New):
			return navigate(routeTemplateForm, "")
		case key.Matches(msg, s.m.keys.Open):
			if t, ok := s.selected(); ok {
				return navigate(routeTemplateForm, t.ID)
			}
			return nil
		case key.Matches(msg, s.m.keys.Delete):
			if t, ok := s.selected(); ok {
				return s.m.request(action.Request{
					Target: action.TargetTemplate,
					Kind:   models.ActionDelete,
					ID:     t.ID,
				})
			}
			return nil
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *templatesScreen) view() string {
	st := s.m.styles
	var b strings.Builder
	b.WriteString(st.Header.Render("Templates"))
	b.WriteString("\n")
	switch {
	case !s.loaded:
		b.WriteString(st.Muted.Render("Carregando..."))
		b.WriteString("\n")
		return b.String()
	case len(s.templates) == 0:
		b.WriteString(st.Muted.Render("Nenhum template. Pressione n para criar."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(s.table.View())
	b.WriteString("\n\n")

	// Content is shown verbatim; placeholders are not expanded.
	if t, ok := s.selected(); ok {
		lines := strings.Split(t.TextContent, "\n")
		if len(lines) > previewLines {
			lines = append(lines[:previewLines], "…")
		}
		b.WriteString(st.Box.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}
