package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Back      key.Binding
	Refresh   key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	New       key.Binding
	Start     key.Binding
	Pause     key.Binding
	Resume    key.Binding
	Delete    key.Binding
	Dashboard key.Binding
	Campaigns key.Binding
	Lists     key.Binding
	Templates key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "sair")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "voltar")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "atualizar")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "acima")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "abaixo")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "abrir")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "anterior")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "próxima")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "novo")),
		Start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "iniciar")),
		Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pausar")),
		Resume:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "retomar")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "excluir")),
		Dashboard: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "painel")),
		Campaigns: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "campanhas")),
		Lists:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "listas")),
		Templates: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "templates")),
		Confirm:   key.NewBinding(key.WithKeys("y", "s"), key.WithHelp("y", "confirmar")),
		Cancel:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancelar")),
		NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "próximo campo")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "campo anterior")),
		Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "salvar")),
	}
}
