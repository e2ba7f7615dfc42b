package tui

import (
	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/compose"
	"github.com/foxzi/disparo/internal/contacts"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/poll"

	tea "github.com/charmbracelet/bubbletea"
)

// eventMsg wraps a message delivered from a background goroutine
type eventMsg struct {
	msg tea.Msg
}

type snapshotMsg[T any] struct {
	view string
	snap poll.Snapshot[T]
}

type fetchErrMsg struct {
	view string
	key  string
	err  error
	kind client.ErrorKind
}

type navigateMsg struct {
	to route
	id models.ID
}

type actionResultMsg struct {
	req action.Request
	err error
}

type templatesMsg struct {
	templates []models.Template
	err       error
}

type optionsMsg struct {
	opts *compose.Options
	err  error
}

type contactsMsg struct {
	page contacts.Page
	err  error
}

type submitResultMsg struct {
	err error
}
