package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxzi/disparo/internal/compose"
	"github.com/foxzi/disparo/internal/models"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldArea
	fieldChoice
)

type choice struct {
	value string
	label string
}

type formField struct {
	name  string
	label string
	kind  fieldKind

	input   textinput.Model
	area    textarea.Model
	choices []choice
	choice  int
}

func textField(name, label, placeholder string) *formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 255
	in.Width = 50
	in.Cursor.SetMode(cursor.CursorStatic)
	return &formField{name: name, label: label, kind: fieldText, input: in}
}

func areaField(name, label string) *formField {
	ta := textarea.New()
	ta.SetWidth(70)
	ta.SetHeight(8)
	ta.ShowLineNumbers = false
	ta.Cursor.SetMode(cursor.CursorStatic)
	return &formField{name: name, label: label, kind: fieldArea, area: ta}
}

func choiceField(name, label string) *formField {
	return &formField{name: name, label: label, kind: fieldChoice}
}

func (f *formField) value() string {
	switch f.kind {
	case fieldArea:
		return f.area.Value()
	case fieldChoice:
		if f.choice < 0 || f.choice >= len(f.choices) {
			return ""
		}
		return f.choices[f.choice].value
	default:
		return f.input.Value()
	}
}

func (f *formField) setValue(v string) {
	switch f.kind {
	case fieldArea:
		f.area.SetValue(v)
	case fieldChoice:
		for i, c := range f.choices {
			if c.value == v {
				f.choice = i
			}
		}
	default:
		f.input.SetValue(v)
	}
}

func (f *formField) focus() {
	switch f.kind {
	case fieldArea:
		f.area.Focus()
	case fieldText:
		f.input.Focus()
	}
}

func (f *formField) blur() {
	switch f.kind {
	case fieldArea:
		f.area.Blur()
	case fieldText:
		f.input.Blur()
	}
}

// formScreen edits a set of fields and submits them. Field names match the
// Field of compose.FieldError so validation messages land next to the input.
type formScreen struct {
	m      *Model
	title  string
	back   route
	fields []*formField
	focus  int

	loading  bool
	busy     bool
	errField string
	errMsg   string

	load   func() tea.Cmd
	loaded func(msg tea.Msg) bool
	submit func(values map[string]string) tea.Cmd
}

func (s *formScreen) field(name string) *formField {
	for _, f := range s.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

func (s *formScreen) values() map[string]string {
	out := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		out[f.name] = f.value()
	}
	return out
}

func (s *formScreen) mount() tea.Cmd {
	if len(s.fields) > 0 {
		s.fields[0].focus()
	}
	if s.load != nil {
		s.loading = true
		return s.load()
	}
	return nil
}

func (s *formScreen) unmount() {}

func (s *formScreen) editing() bool { return true }

func (s *formScreen) help() []key.Binding {
	return []key.Binding{s.m.keys.NextField, s.m.keys.PrevField, s.m.keys.Submit}
}

func (s *formScreen) move(delta int) {
	s.fields[s.focus].blur()
	s.focus = (s.focus + delta + len(s.fields)) % len(s.fields)
	s.fields[s.focus].focus()
}

func (s *formScreen) send() tea.Cmd {
	if s.busy || s.loading {
		return nil
	}
	s.busy = true
	s.errField, s.errMsg = "", ""
	return s.submit(s.values())
}

func (s *formScreen) update(msg tea.Msg) tea.Cmd {
	if s.loaded != nil && s.loaded(msg) {
		s.loading = false
		return nil
	}

	switch msg := msg.(type) {
	case submitResultMsg:
		s.busy = false
		if msg.err == nil {
			return navigate(s.back, "")
		}
		var fe *compose.FieldError
		if errors.As(msg.err, &fe) {
			s.errField, s.errMsg = fe.Field, fe.Message
			if f := s.field(fe.Field); f != nil {
				s.fields[s.focus].blur()
				for i := range s.fields {
					if s.fields[i] == f {
						s.focus = i
					}
				}
				f.focus()
			}
		}
		return nil

	case tea.KeyMsg:
		f := s.fields[s.focus]
		switch {
		case key.Matches(msg, s.m.keys.Submit):
			return s.send()
		case key.Matches(msg, s.m.keys.NextField):
			s.move(1)
			return nil
		case key.Matches(msg, s.m.keys.PrevField):
			s.move(-1)
			return nil
		case msg.Type == tea.KeyEnter && f.kind != fieldArea:
			if s.focus == len(s.fields)-1 {
				return s.send()
			}
			s.move(1)
			return nil
		}

		var cmd tea.Cmd
		switch f.kind {
		case fieldChoice:
			if n := len(f.choices); n > 0 {
				switch msg.Type {
				case tea.KeyLeft:
					f.choice = (f.choice - 1 + n) % n
				case tea.KeyRight, tea.KeySpace:
					f.choice = (f.choice + 1) % n
				}
			}
		case fieldArea:
			f.area, cmd = f.area.Update(msg)
		default:
			f.input, cmd = f.input.Update(msg)
		}
		return cmd
	}
	return nil
}

func (s *formScreen) view() string {
	st := s.m.styles
	var b strings.Builder
	b.WriteString(st.Header.Render(s.title))
	b.WriteString("\n")
	if s.loading {
		b.WriteString(st.Muted.Render("Carregando..."))
		b.WriteString("\n")
		return b.String()
	}

	for i, f := range s.fields {
		label := st.Label.Render(f.label)
		if i == s.focus {
			label = st.Selected.Render(f.label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		switch f.kind {
		case fieldArea:
			b.WriteString(f.area.View())
		case fieldChoice:
			if len(f.choices) == 0 {
				b.WriteString(st.Muted.Render("Nenhuma opção disponível"))
			} else {
				b.WriteString(fmt.Sprintf("◀ %s ▶", f.choices[f.choice].label))
			}
		default:
			b.WriteString(f.input.View())
		}
		b.WriteString("\n")
		if f.name == s.errField {
			b.WriteString(st.Error.Render(s.errMsg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if s.busy {
		b.WriteString(st.Muted.Render("Enviando..."))
		b.WriteString("\n")
	}
	return b.String()
}

func newCampaignForm(m *Model) *formScreen {
	defaults := compose.NewCampaignForm()
	limit := textField("daily_limit", "Limite diário", defaults.DailyLimit)
	limit.input.SetValue(defaults.DailyLimit)

	s := &formScreen{
		m:     m,
		title: "Nova campanha",
		back:  routeCampaigns,
		fields: []*formField{
			textField("name", "Nome", "Newsletter de outubro"),
			choiceField("template_id", "Template"),
			choiceField("list_id", "Lista"),
			limit,
		},
	}

	var opts *compose.Options
	s.load = func() tea.Cmd {
		api, ctx := m.api, m.ctx
		return func() tea.Msg {
			o, err := compose.LoadOptions(ctx, api)
			return optionsMsg{opts: o, err: err}
		}
	}
	s.loaded = func(msg tea.Msg) bool {
		om, ok := msg.(optionsMsg)
		if !ok {
			return false
		}
		if om.err != nil {
			m.logger.Warn("failed to load campaign options", "error", om.err)
			if errors.Is(om.err, compose.ErrTemplatesUnavailable) {
				m.notifier.Error("Falha ao carregar templates")
			} else {
				m.notifier.Error("Falha ao carregar listas")
			}
			return true
		}
		opts = om.opts
		tf, lf := s.field("template_id"), s.field("list_id")
		for _, t := range opts.Templates {
			tf.choices = append(tf.choices, choice{value: t.ID.String(), label: t.Name})
		}
		for _, l := range opts.Lists {
			lf.choices = append(lf.choices, choice{
				value: l.ID.String(),
				label: fmt.Sprintf("%s (%d válidos)", l.Name, l.ValidCount),
			})
		}
		return true
	}
	s.submit = func(v map[string]string) tea.Cmd {
		form := compose.CampaignForm{
			Name:       v["name"],
			TemplateID: models.ID(v["template_id"]),
			ListID:     models.ID(v["list_id"]),
			DailyLimit: v["daily_limit"],
		}
		api, ctx, o := m.api, m.ctx, opts
		return func() tea.Msg {
			_, err := compose.SubmitCampaign(ctx, api, form, o, m.notifier)
			return submitResultMsg{err: err}
		}
	}
	return s
}

func newTemplateForm(m *Model, id models.ID) *formScreen {
	title := "Novo template"
	if id != "" {
		title = "Editar template"
	}
	s := &formScreen{
		m:     m,
		title: title,
		back:  routeTemplates,
		fields: []*formField{
			textField("name", "Nome", "Boas-vindas"),
			textField("subject", "Assunto", "Olá {{name}}"),
			areaField("text_content", "Conteúdo"),
		},
	}

	if id != "" {
		s.load = func() tea.Cmd {
			api, ctx := m.api, m.ctx
			return func() tea.Msg {
				t, err := api.GetTemplate(ctx, id)
				if err != nil {
					return templatesMsg{err: err}
				}
				return templatesMsg{templates: []models.Template{*t}}
			}
		}
		s.loaded = func(msg tea.Msg) bool {
			tm, ok := msg.(templatesMsg)
			if !ok {
				return false
			}
			if tm.err != nil || len(tm.templates) != 1 {
				m.logger.Warn("failed to load template", "id", id, "error", tm.err)
				m.notifier.Error("Falha ao carregar templates")
				return true
			}
			f := compose.TemplateFormFrom(tm.templates[0])
			s.field("name").setValue(f.Name)
			s.field("subject").setValue(f.Subject)
			s.field("text_content").setValue(f.TextContent)
			return true
		}
	}

	s.submit = func(v map[string]string) tea.Cmd {
		form := compose.TemplateForm{
			Name:        v["name"],
			Subject:     v["subject"],
			TextContent: v["text_content"],
		}
		api, ctx := m.api, m.ctx
		return func() tea.Msg {
			_, err := compose.SubmitTemplate(ctx, api, id, form, m.notifier)
			return submitResultMsg{err: err}
		}
	}
	return s
}

func newUploadForm(m *Model) *formScreen {
	s := &formScreen{
		m:     m,
		title: "Enviar lista",
		back:  routeLists,
		fields: []*formField{
			textField("name", "Nome", "Clientes 2024"),
			textField("description", "Descrição", "Opcional"),
			textField("file", "Arquivo (.txt ou .csv)", "/caminho/para/contatos.csv"),
		},
	}
	s.submit = func(v map[string]string) tea.Cmd {
		form := compose.UploadForm{
			Name:        v["name"],
			Description: v["description"],
			Path:        strings.TrimSpace(v["file"]),
		}
		api, ctx := m.api, m.ctx
		return func() tea.Msg {
			_, err := compose.SubmitUpload(ctx, api, form, m.notifier)
			return submitResultMsg{err: err}
		}
	}
	return s
}
