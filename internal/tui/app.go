// Package tui is the interactive operator console. Each screen is a mounted
// view: it attaches its refresh schedule when shown and detaches it when
// left.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/compose"
	"github.com/foxzi/disparo/internal/contacts"
	"github.com/foxzi/disparo/internal/display"
	"github.com/foxzi/disparo/internal/metrics"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
	"github.com/foxzi/disparo/internal/poll"
)

// View names used for schedules, logs and metrics
const (
	viewDashboard      = "dashboard"
	viewCampaigns      = "campaigns"
	viewCampaignDetail = "campaign_detail"
	viewLists          = "lists"
	viewListDetail     = "list_detail"
)

// API is the part of the resource client the console uses. *client.Client
// implements it.
type API interface {
	action.Backend
	compose.Source
	compose.CampaignCreator
	compose.TemplateWriter
	compose.ListUploader
	contacts.Fetcher

	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	GetCampaign(ctx context.Context, id models.ID) (*models.CampaignDetail, error)
	GetList(ctx context.Context, id models.ID) (*models.List, error)
	GetTemplate(ctx context.Context, id models.ID) (*models.Template, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// Intervals are the refresh intervals of the polled screens
type Intervals struct {
	Dashboard      time.Duration
	Campaigns      time.Duration
	CampaignDetail time.Duration
	Lists          time.Duration
	ListDetail     time.Duration
}

// DefaultIntervals returns the standard refresh intervals
func DefaultIntervals() Intervals {
	return Intervals{
		Dashboard:      poll.DashboardInterval,
		Campaigns:      poll.CampaignListInterval,
		CampaignDetail: poll.CampaignDetailInterval,
		Lists:          poll.ListCollectionInterval,
		ListDetail:     poll.ListDetailInterval,
	}
}

// Config of the console
type Config struct {
	Intervals Intervals
	PageSize  int
	// QuotaLimit is used when the service does not report one
	QuotaLimit int
}

// toastTTL is how long the latest notification stays on screen
const toastTTL = 8 * time.Second

type route int

const (
	routeDashboard route = iota
	routeCampaigns
	routeCampaignDetail
	routeCampaignForm
	routeLists
	routeListDetail
	routeUploadForm
	routeTemplates
	routeTemplateForm
)

// parent is the screen esc returns to
var parent = map[route]route{
	routeCampaignDetail: routeCampaigns,
	routeCampaignForm:   routeCampaigns,
	routeListDetail:     routeLists,
	routeUploadForm:     routeLists,
	routeTemplateForm:   routeTemplates,
}

type screen interface {
	mount() tea.Cmd
	unmount()
	update(msg tea.Msg) tea.Cmd
	view() string
	help() []key.Binding
	// editing screens receive every key except ctrl+c and esc
	editing() bool
}

// Option configures the console
type Option func(*Model)

// WithLogger sets the logger. The terminal belongs to the console, so it
// should not write to stdout or stderr.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithMetrics records schedule, fetch and action metrics
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) {
		m.metrics = mt
	}
}

// WithNotifier forwards notifications to n in addition to the toast line
func WithNotifier(n notify.Notifier) Option {
	return func(m *Model) {
		m.extra = n
	}
}

// Model is the root bubbletea model of the console
type Model struct {
	api        API
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	extra      notify.Notifier
	feed       *notify.Feed
	notifier   notify.Notifier
	dispatcher *action.Dispatcher
	styles     Styles
	keys       keyMap
	help       help.Model

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once

	dashboard *poll.Synchronizer[*models.DashboardStats]
	campaigns *poll.Synchronizer[[]models.Campaign]
	campaign  *poll.Synchronizer[*models.CampaignDetail]
	lists     *poll.Synchronizer[[]models.List]
	list      *poll.Synchronizer[*models.List]

	route   route
	screen  screen
	confirm *action.Request
	width   int
}

// New creates the console. Call Close when the program exits.
func New(api API, cfg Config, opts ...Option) (*Model, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = contacts.DefaultPageSize
	}
	if cfg.QuotaLimit <= 0 {
		cfg.QuotaLimit = display.DefaultQuotaLimit
	}

	m := &Model{
		api:    api,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		feed:   notify.NewFeed(50),
		styles: DefaultStyles(),
		keys:   defaultKeys(),
		help:   help.New(),
		events: make(chan tea.Msg, 64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "tui")
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.notifier = m.feed
	if m.extra != nil {
		m.notifier = notify.Multi(m.feed, m.extra)
	}

	// The confirmation modal asks before a destructive request reaches the
	// dispatcher.
	m.dispatcher = action.New(api,
		action.WithConfirmer(action.AlwaysConfirm),
		action.WithNotifier(m.notifier),
		action.WithLogger(m.logger),
		action.WithMetrics(m.metrics),
	)

	var err error
	m.dashboard, err = poll.New(viewDashboard, cfg.Intervals.Dashboard,
		func(ctx context.Context, _ string) (*models.DashboardStats, error) {
			return api.DashboardStats(ctx)
		},
		syncOptions[*models.DashboardStats](m, viewDashboard, "Falha ao carregar painel"))
	if err != nil {
		return nil, err
	}
	m.campaigns, err = poll.New(viewCampaigns, cfg.Intervals.Campaigns,
		func(ctx context.Context, _ string) ([]models.Campaign, error) {
			return api.ListCampaigns(ctx)
		},
		syncOptions[[]models.Campaign](m, viewCampaigns, "Falha ao carregar campanhas"))
	if err != nil {
		return nil, err
	}
	m.campaign, err = poll.New(viewCampaignDetail, cfg.Intervals.CampaignDetail,
		func(ctx context.Context, id string) (*models.CampaignDetail, error) {
			return api.GetCampaign(ctx, models.ID(id))
		},
		syncOptions[*models.CampaignDetail](m, viewCampaignDetail, "Falha ao carregar detalhes da campanha"))
	if err != nil {
		return nil, err
	}
	m.lists, err = poll.New(viewLists, cfg.Intervals.Lists,
		func(ctx context.Context, _ string) ([]models.List, error) {
			return api.ListLists(ctx)
		},
		syncOptions[[]models.List](m, viewLists, "Falha ao carregar listas"))
	if err != nil {
		return nil, err
	}
	m.list, err = poll.New(viewListDetail, cfg.Intervals.ListDetail,
		func(ctx context.Context, id string) (*models.List, error) {
			return api.GetList(ctx, models.ID(id))
		},
		syncOptions[*models.List](m, viewListDetail, "Falha ao carregar detalhes da lista"))
	if err != nil {
		return nil, err
	}

	m.route = routeDashboard
	m.screen = m.newScreen(routeDashboard, "")
	return m, nil
}

func syncOptions[T any](m *Model, view, errMsg string) poll.Options[T] {
	return poll.Options[T]{
		Logger:       m.logger,
		Notifier:     m.notifier,
		Metrics:      m.metrics,
		ErrorMessage: errMsg,
		OnUpdate: func(s poll.Snapshot[T]) {
			m.offer(snapshotMsg[T]{view: view, snap: s})
		},
		OnError: func(key string, err error) {
			m.offer(fetchErrMsg{view: view, key: key, err: err, kind: client.Classify(err)})
		},
	}
}

// emit hands a message from a background goroutine to the update loop
func (m *Model) emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.done:
	}
}

// offer is emit for synchronizer hooks. Leaving a screen detaches its
// schedule from the update loop and waits for a running hook, so a hook
// must not wait for the loop; a full queue drops the result and the next
// refresh replaces it.
func (m *Model) offer(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.done:
	default:
		m.logger.Debug("event queue full, dropping refresh result", "type", fmt.Sprintf("%T", msg))
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return eventMsg{msg: msg}
		case <-m.done:
			return nil
		}
	}
}

// Close detaches the mounted screen and stops background delivery. It is
// safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		if m.screen != nil {
			m.screen.unmount()
		}
		m.cancel()
		close(m.done)
	})
}

// Notifications returns the notifications shown so far, oldest first
func (m *Model) Notifications() []notify.Notification {
	return m.feed.Recent()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), m.screen.mount())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		_, cmd := m.Update(msg.msg)
		return m, tea.Batch(cmd, m.listen())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case navigateMsg:
		return m, m.navigate(msg.to, msg.id)

	case tea.KeyMsg:
		if m.confirm != nil {
			return m, m.updateConfirm(msg)
		}
		if msg.Type == tea.KeyCtrlC {
			m.Close()
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Back) && (msg.Type == tea.KeyEsc || !m.screen.editing()) {
			if p, ok := parent[m.route]; ok {
				return m, m.navigate(p, "")
			}
			return m, nil
		}
		if !m.screen.editing() {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.Close()
				return m, tea.Quit
			case key.Matches(msg, m.keys.Dashboard):
				return m, m.navigate(routeDashboard, "")
			case key.Matches(msg, m.keys.Campaigns):
				return m, m.navigate(routeCampaigns, "")
			case key.Matches(msg, m.keys.Lists):
				return m, m.navigate(routeLists, "")
			case key.Matches(msg, m.keys.Templates):
				return m, m.navigate(routeTemplates, "")
			}
		}
	}

	return m, m.screen.update(msg)
}

func (m *Model) navigate(to route, id models.ID) tea.Cmd {
	if m.screen != nil {
		m.screen.unmount()
	}
	m.confirm = nil
	m.route = to
	m.screen = m.newScreen(to, id)
	m.logger.Debug("navigate", "route", to, "id", id)
	return m.screen.mount()
}

func (m *Model) newScreen(r route, id models.ID) screen {
	switch r {
	case routeCampaigns:
		return newCampaignsScreen(m)
	case routeCampaignDetail:
		return newCampaignDetailScreen(m, id)
	case routeCampaignForm:
		return newCampaignForm(m)
	case routeLists:
		return newListsScreen(m)
	case routeListDetail:
		return newListDetailScreen(m, id)
	case routeUploadForm:
		return newUploadForm(m)
	case routeTemplates:
		return newTemplatesScreen(m)
	case routeTemplateForm:
		return newTemplateForm(m, id)
	default:
		return newDashboardScreen(m)
	}
}

func navigate(to route, id models.ID) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{to: to, id: id}
	}
}

// request starts an action, asking first when it is destructive. Requests
// already in flight are ignored.
func (m *Model) request(req action.Request) tea.Cmd {
	if m.dispatcher.Pending(req.Target, req.Kind, req.ID) {
		return nil
	}
	if action.ConfirmPrompt(req.Target, req.Kind) != "" {
		m.confirm = &req
		return nil
	}
	return m.dispatch(req)
}

func (m *Model) dispatch(req action.Request) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionResultMsg{req: req, err: m.dispatcher.Dispatch(ctx, req)}
	}
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm), msg.Type == tea.KeyEnter:
		req := *m.confirm
		m.confirm = nil
		return m.dispatch(req)
	case key.Matches(msg, m.keys.Cancel):
		m.confirm = nil
	}
	return nil
}

var tabs = []struct {
	label string
	route route
}{
	{"1 Painel", routeDashboard},
	{"2 Campanhas", routeCampaigns},
	{"3 Listas", routeLists},
	{"4 Templates", routeTemplates},
}

func (m *Model) section() route {
	if p, ok := parent[m.route]; ok {
		return p
	}
	return m.route
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("disparo"))
	b.WriteString("  ")
	for _, t := range tabs {
		if t.route == m.section() {
			b.WriteString(m.styles.TabOn.Render(t.label))
		} else {
			b.WriteString(m.styles.Tab.Render(t.label))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.screen.view())
	b.WriteString("\n")

	if m.confirm != nil {
		prompt := action.ConfirmPrompt(m.confirm.Target, m.confirm.Kind)
		b.WriteString(m.styles.Modal.Render(fmt.Sprintf("%s\n\n[y] confirmar   [n] cancelar", prompt)))
		b.WriteString("\n")
	}

	if n, ok := m.feed.Latest(); ok && time.Since(n.At) < toastTTL {
		style := m.styles.Success
		if n.Level == notify.LevelError {
			style = m.styles.Error
		}
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}

	bindings := append(m.screen.help(), m.keys.Back, m.keys.Quit)
	b.WriteString(m.help.ShortHelpView(bindings))
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

// current reports whether a snapshot belongs to the schedule h
func current(h *poll.Handle, key string, gen uint64) bool {
	return h != nil && h.Key() == key && h.Generation() == gen
}

func detach(h *poll.Handle) {
	if h != nil {
		h.Detach()
	}
}

func refresher(h *poll.Handle) action.Refresher {
	if h == nil {
		return nil
	}
	return h
}
