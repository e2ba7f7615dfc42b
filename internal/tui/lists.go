package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/contacts"
	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/poll"
)

type listsScreen struct {
	m      *Model
	handle *poll.Handle
	lists  []models.List
	loaded bool
	table  table.Model
}

func newListsScreen(m *Model) *listsScreen {
	return &listsScreen{
		m: m,
		table: newTable([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Nome", Width: 28},
			{Title: "Status", Width: 11},
			{Title: "Total", Width: 8},
			{Title: "Válidos", Width: 8},
			{Title: "Inválidos", Width: 9},
			{Title: "Criada em", Width: 16},
		}),
	}
}

func (s *listsScreen) mount() tea.Cmd {
	s.handle = s.m.lists.Attach(viewLists)
	return nil
}

func (s *listsScreen) unmount() {
	detach(s.handle)
}

func (s *listsScreen) editing() bool { return false }

func (s *listsScreen) help() []key.Binding {
	return []key.Binding{s.m.keys.Open, s.m.keys.New, s.m.keys.Delete, s.m.keys.Refresh}
}

func (s *listsScreen) selected() (models.List, bool) {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.lists) {
		return models.List{}, false
	}
	return s.lists[i], true
}

func (s *listsScreen) setLists(lists []models.List) {
	s.lists = lists
	s.loaded = true
	rows := make([]table.Row, 0, len(lists))
	for _, l := range lists {
		rows = append(rows, table.Row{
			l.ID.String(),
			l.Name,
			string(l.Status),
			fmt.Sprint(l.TotalCount),
			fmt.Sprint(l.ValidCount),
			fmt.Sprint(l.InvalidCount),
			l.CreatedAt.Format("02/01/2006 15:04"),
		})
	}
	s.table.SetRows(rows)
	if s.table.Cursor() >= len(rows) {
		s.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (s *listsScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case snapshotMsg[[]models.List]:
		if current(s.handle, msg.snap.Key, msg.snap.Generation) {
			s.setLists(msg.snap.Value)
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.m.keys.Refresh):
			s.handle.Refresh()
			return nil
		case key.Matches(msg, s.m.keys.New):
			return navigate(routeUploadForm, "")
		case key.Matches(msg, s.m.keys.Open):
			if l, ok := s.selected(); ok {
				return navigate(routeListDetail, l.ID)
			}
			return nil
		case key.Matches(msg, s.m.keys.Delete):
			if l, ok := s.selected(); ok {
				return s.m.request(action.Request{
					Target:  action.TargetList,
					Kind:    models.ActionDelete,
					ID:      l.ID,
					Refresh: refresher(s.handle),
				})
			}
			return nil
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *listsScreen) view() string {
	st := s.m.styles
	var b strings.Builder
	b.WriteString(st.Header.Render("Listas"))
	b.WriteString("\n")
	switch {
	case !s.loaded:
		b.WriteString(st.Muted.Render("Carregando..."))
	case len(s.lists) == 0:
		b.WriteString(st.Muted.Render("Nenhuma lista. Pressione n para enviar um arquivo."))
	default:
		b.WriteString(s.table.View())
	}
	b.WriteString("\n")
	return b.String()
}

// listDetailScreen shows a list header, refreshed on a schedule, and its
// contacts, fetched once per page.
type listDetailScreen struct {
	m       *Model
	id      models.ID
	handle  *poll.Handle
	list    *models.List
	browser *contacts.Browser
	page    *contacts.Page
	table   table.Model
}

func newListDetailScreen(m *Model, id models.ID) *listDetailScreen {
	return &listDetailScreen{
		m:  m,
		id: id,
		browser: contacts.NewBrowser(m.api, id,
			contacts.WithPageSize(m.cfg.PageSize),
			contacts.WithNotifier(m.notifier),
			contacts.WithLogger(m.logger),
		),
		table: newTable([]table.Column{
			{Title: "Email", Width: 36},
			{Title: "Nome", Width: 24},
			{Title: "Status", Width: 10},
		}),
	}
}

func (s *listDetailScreen) mount() tea.Cmd {
	s.handle = s.m.list.Attach(s.id.String())
	return s.load(1)
}

func (s *listDetailScreen) unmount() {
	detach(s.handle)
	s.browser.Close()
}

func (s *listDetailScreen) editing() bool { return false }

func (s *listDetailScreen) help() []key.Binding {
	return []key.Binding{s.m.keys.PrevPage, s.m.keys.NextPage, s.m.keys.Delete, s.m.keys.Refresh}
}

func (s *listDetailScreen) load(page int) tea.Cmd {
	b, ctx := s.browser, s.m.ctx
	return func() tea.Msg {
		p, err := b.Load(ctx, page)
		return contactsMsg{page: p, err: err}
	}
}

func (s *listDetailScreen) setPage(p contacts.Page) {
	s.page = &p
	rows := make([]table.Row, 0, len(p.Contacts))
	for _, c := range p.Contacts {
		rows = append(rows, table.Row{c.Email, c.Name, display.ContactBadge(c.IsValid).Label})
	}
	s.table.SetRows(rows)
	s.table.SetCursor(0)
}

func (s *listDetailScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case snapshotMsg[*models.List]:
		if !current(s.handle, msg.snap.Key, msg.snap.Generation) {
			return nil
		}
		prev := s.list
		s.list = msg.snap.Value
		// Contacts are not polled; fetch the page again once processing ends
		if prev != nil && !prev.Status.Terminal() && s.list.Status.Terminal() {
			return s.load(s.browser.Target())
		}
		return nil

	case fetchErrMsg:
		if msg.view == viewListDetail && msg.key == s.id.String() && msg.kind == client.KindNotFound {
			detach(s.handle)
			s.browser.Close()
			return navigate(routeLists, "")
		}
		return nil

	case contactsMsg:
		// Failures were already notified; stale pages are dropped.
		if msg.err == nil && msg.page.ListID == s.id {
			s.setPage(msg.page)
		} else if msg.err != nil && !errors.Is(msg.err, contacts.ErrStale) {
			s.m.logger.Debug("contacts page not loaded", "list_id", s.id, "error", msg.err)
		}
		return nil

	case actionResultMsg:
		if msg.err == nil && msg.req.Target == action.TargetList && msg.req.ID == s.id {
			return navigate(routeLists, "")
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.m.keys.Refresh):
			s.handle.Refresh()
			return s.load(s.browser.Target())
		case key.Matches(msg, s.m.keys.NextPage):
			if s.browser.HasNext() {
				return s.load(s.browser.Target() + 1)
			}
			return nil
		case key.Matches(msg, s.m.keys.PrevPage):
			if s.browser.HasPrev() {
				return s.load(s.browser.Target() - 1)
			}
			return nil
		case key.Matches(msg, s.m.keys.Delete):
			return s.m.request(action.Request{
				Target: action.TargetList,
				Kind:   models.ActionDelete,
				ID:     s.id,
			})
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *listDetailScreen) view() string {
	st := s.m.styles
	var b strings.Builder

	if s.list == nil {
		b.WriteString(st.Muted.Render("Carregando..."))
		b.WriteString("\n")
	} else {
		l := s.list
		b.WriteString(st.Header.Render(l.Name))
		b.WriteString("\n")
		b.WriteString(st.Badge(display.ListBadge(l.Status)))
		b.WriteString("\n")
		if l.Description != "" {
			b.WriteString(st.Muted.Render(l.Description))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %d   %s %d   %s %d\n\n",
			st.Label.Render("Total:"), l.TotalCount,
			st.Label.Render("Válidos:"), l.ValidCount,
			st.Label.Render("Inválidos:"), l.InvalidCount)
	}

	if s.page == nil {
		b.WriteString(st.Muted.Render("Carregando contatos..."))
		b.WriteString("\n")
		return b.String()
	}
	if len(s.page.Contacts) == 0 {
		b.WriteString(st.Muted.Render("Nenhum contato"))
		b.WriteString("\n")
	} else {
		b.WriteString(s.table.View())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s   %s\n",
		display.RangeLine(s.page.Number, s.page.Size, s.page.Total),
		st.Muted.Render(fmt.Sprintf("página %d de %d", s.page.Number, max(s.page.TotalPages, 1))))
	return b.String()
}
