package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	stats     *models.DashboardStats
	campaigns []models.Campaign
	lists     []models.List
	templates []models.Template
	contacts  int
	detailErr error
	created   *client.CampaignCreateRequest
}

func (f *fakeAPI) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) StartCampaign(ctx context.Context, id models.ID) error {
	f.record("start %s", id)
	return nil
}

func (f *fakeAPI) PauseCampaign(ctx context.Context, id models.ID) error {
	f.record("pause %s", id)
	return nil
}

func (f *fakeAPI) ResumeCampaign(ctx context.Context, id models.ID) error {
	f.record("resume %s", id)
	return nil
}

func (f *fakeAPI) DeleteCampaign(ctx context.Context, id models.ID) error {
	f.record("delete campaign %s", id)
	return nil
}

func (f *fakeAPI) DeleteList(ctx context.Context, id models.ID) error {
	f.record("delete list %s", id)
	return nil
}

func (f *fakeAPI) DeleteTemplate(ctx context.Context, id models.ID) error {
	f.record("delete template %s", id)
	return nil
}

func (f *fakeAPI) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return f.templates, nil
}

func (f *fakeAPI) ListLists(ctx context.Context) ([]models.List, error) {
	return f.lists, nil
}

func (f *fakeAPI) CreateCampaign(ctx context.Context, req *client.CampaignCreateRequest) (*models.Campaign, error) {
	f.mu.Lock()
	f.created = req
	f.mu.Unlock()
	return &models.Campaign{ID: "9", Name: req.Name, Status: models.CampaignDraft}, nil
}

func (f *fakeAPI) CreateTemplate(ctx context.Context, req *client.TemplateRequest) (*models.Template, error) {
	return &models.Template{ID: "t9", Name: req.Name}, nil
}

func (f *fakeAPI) UpdateTemplate(ctx context.Context, id models.ID, req *client.TemplateRequest) (*models.Template, error) {
	return &models.Template{ID: id, Name: req.Name}, nil
}

func (f *fakeAPI) UploadList(ctx context.Context, req *client.ListUploadRequest) (*models.List, error) {
	return &models.List{ID: "l9", Name: req.Name, Status: models.ListProcessing}, nil
}

func (f *fakeAPI) ListContacts(ctx context.Context, id models.ID, page, limit int) (*client.ContactsResponse, error) {
	f.record("contacts %s %d", id, page)
	resp := &client.ContactsResponse{
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      f.contacts,
			TotalPages: (f.contacts + limit - 1) / limit,
		},
	}
	for i := (page-1)*limit + 1; i <= min(page*limit, f.contacts); i++ {
		resp.Contacts = append(resp.Contacts, models.Contact{
			ID:      models.ID(fmt.Sprint(i)),
			Email:   fmt.Sprintf("user%d@example.com", i),
			IsValid: i%10 != 0,
		})
	}
	return resp, nil
}

func (f *fakeAPI) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeAPI) GetCampaign(ctx context.Context, id models.ID) (*models.CampaignDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	for _, c := range f.campaigns {
		if c.ID == id {
			return &models.CampaignDetail{Campaign: c}, nil
		}
	}
	return nil, fmt.Errorf("get campaign %s: %w", id, client.ErrNotFound)
}

func (f *fakeAPI) GetList(ctx context.Context, id models.ID) (*models.List, error) {
	for _, l := range f.lists {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("get list %s: %w", id, client.ErrNotFound)
}

func (f *fakeAPI) GetTemplate(ctx context.Context, id models.ID) (*models.Template, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("get template %s: %w", id, client.ErrNotFound)
}

func (f *fakeAPI) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return f.stats, nil
}

func sampleAPI() *fakeAPI {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	return &fakeAPI{
		stats: &models.DashboardStats{
			Campaigns:  models.CampaignCounts{Total: 3, Active: 1},
			Lists:      models.ListCounts{Total: 2, TotalContacts: 120},
			Templates:  models.TemplateCounts{Total: 1},
			TodayQuota: &models.DailyQuota{EmailsSent: 1000},
			RecentSends: []models.DailySends{
				{Date: "2024-05-09", EmailsSent: 800},
				{Date: "2024-05-10", EmailsSent: 1000},
			},
		},
		campaigns: []models.Campaign{
			{ID: "1", Name: "Lançamento", Status: models.CampaignDraft, TotalRecipients: 100, CreatedAt: now},
		},
		lists: []models.List{
			{ID: "10", Name: "Clientes", Status: models.ListCompleted, TotalCount: 120, ValidCount: 108, CreatedAt: now},
			{ID: "11", Name: "Importando", Status: models.ListProcessing, CreatedAt: now},
		},
		templates: []models.Template{
			{ID: "5", Name: "Boas-vindas", Subject: "Olá {{name}}", TextContent: "Oi {{name}}"},
		},
		contacts: 120,
	}
}

func newTestModel(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	m, err := New(api, Config{Intervals: DefaultIntervals(), PageSize: 50})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// await applies background messages until one of type T arrives
func await[T tea.Msg](t *testing.T, m *Model) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-m.events:
			if v, ok := msg.(T); ok {
				return v
			}
			m.Update(msg)
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// goTo navigates and returns the mount command of the new screen
func goTo(t *testing.T, m *Model, r route, id models.ID) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(navigateMsg{to: r, id: id})
	require.Equal(t, r, m.route)
	return cmd
}

func messages(ns []notify.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Message)
	}
	return out
}

func TestDashboardShowsQuota(t *testing.T) {
	m := newTestModel(t, sampleAPI())
	m.screen.mount()

	m.Update(await[snapshotMsg[*models.DashboardStats]](t, m))

	view := m.View()
	assert.Contains(t, view, "1000 / 4000 (25.0%)")
	assert.Contains(t, view, "2024-05-10")
}

func TestTabsSwitchScreens(t *testing.T) {
	m := newTestModel(t, sampleAPI())
	m.screen.mount()

	m.Update(press("2"))
	assert.Equal(t, routeCampaigns, m.route)
	m.Update(press("3"))
	assert.Equal(t, routeLists, m.route)
	m.Update(press("1"))
	assert.Equal(t, routeDashboard, m.route)
}

func TestDraftCampaignOffersOnlyValidActions(t *testing.T) {
	api := sampleAPI()
	m := newTestModel(t, api)
	goTo(t, m, routeCampaigns, "")
	m.Update(await[snapshotMsg[[]models.Campaign]](t, m))
	assert.Contains(t, m.View(), "Lançamento")

	_, cmd := m.Update(press("p"))
	assert.Nil(t, cmd)
	_, cmd = m.Update(press("u"))
	assert.Nil(t, cmd)
	assert.Empty(t, api.Calls())

	_, cmd = m.Update(press("s"))
	res, ok := run(t, cmd).(actionResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"start 1"}, api.Calls())
	assert.Contains(t, messages(m.Notifications()), "Campanha iniciada")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	api := sampleAPI()
	m := newTestModel(t, api)
	goTo(t, m, routeCampaigns, "")
	m.Update(await[snapshotMsg[[]models.Campaign]](t, m))

	_, cmd := m.Update(press("d"))
	assert.Nil(t, cmd)
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), "Tem certeza que deseja excluir esta campanha?")

	_, cmd = m.Update(press("n"))
	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
	assert.Empty(t, api.Calls())
	assert.Equal(t, routeCampaigns, m.route, "cancel keeps the screen")

	m.Update(press("d"))
	_, cmd = m.Update(press("y"))
	res, ok := run(t, cmd).(actionResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"delete campaign 1"}, api.Calls())
	assert.Contains(t, messages(m.Notifications()), "Campanha excluída")
}

func TestCampaignDetailNotFoundReturnsToList(t *testing.T) {
	api := sampleAPI()
	api.detailErr = fmt.Errorf("get campaign: %w", client.ErrNotFound)
	m := newTestModel(t, api)
	goTo(t, m, routeCampaignDetail, "1")

	_, cmd := m.Update(await[fetchErrMsg](t, m))
	nav, ok := run(t, cmd).(navigateMsg)
	require.True(t, ok)
	m.Update(nav)

	assert.Equal(t, routeCampaigns, m.route)
	assert.Equal(t, []string{"Falha ao carregar detalhes da campanha"}, messages(m.Notifications()))
}

func TestCampaignDetailKeepsViewOnTransportError(t *testing.T) {
	api := sampleAPI()
	api.detailErr = errors.New("connection refused")
	m := newTestModel(t, api)
	goTo(t, m, routeCampaignDetail, "1")

	msg := await[fetchErrMsg](t, m)
	assert.Equal(t, client.KindTransport, msg.kind)

	_, cmd := m.Update(msg)
	assert.Nil(t, cmd)
	assert.Equal(t, routeCampaignDetail, m.route)
	assert.Equal(t, []string{"Falha ao carregar detalhes da campanha"}, messages(m.Notifications()))
}

func TestListDetailReloadsContactsWhenProcessingEnds(t *testing.T) {
	api := sampleAPI()
	m := newTestModel(t, api)
	m.Update(run(t, goTo(t, m, routeListDetail, "11")))

	first := await[snapshotMsg[*models.List]](t, m)
	require.Equal(t, models.ListProcessing, first.snap.Value.Status)
	_, cmd := m.Update(first)
	assert.Nil(t, cmd)

	done := first.snap
	done.Value = &models.List{ID: "11", Name: "Importando", Status: models.ListCompleted, TotalCount: 120}
	_, cmd = m.Update(snapshotMsg[*models.List]{view: viewListDetail, snap: done})
	require.NotNil(t, cmd)
	m.Update(run(t, cmd))

	_, cmd = m.Update(snapshotMsg[*models.List]{view: viewListDetail, snap: done})
	assert.Nil(t, cmd, "a finished list is not reloaded again")
	assert.Equal(t, []string{"contacts 11 1", "contacts 11 1"}, api.Calls())
}

func TestListDetailPagesStayInRange(t *testing.T) {
	api := sampleAPI()
	m := newTestModel(t, api)

	m.Update(run(t, goTo(t, m, routeListDetail, "10")))
	assert.Contains(t, m.View(), "1 - 50 de 120")

	right := tea.KeyMsg{Type: tea.KeyRight}
	left := tea.KeyMsg{Type: tea.KeyLeft}

	_, cmd := m.Update(right)
	m.Update(run(t, cmd))
	_, cmd = m.Update(right)
	m.Update(run(t, cmd))
	assert.Contains(t, m.View(), "101 - 120 de 120")

	_, cmd = m.Update(right)
	assert.Nil(t, cmd, "no request past the last page")

	_, cmd = m.Update(left)
	m.Update(run(t, cmd))
	assert.Contains(t, m.View(), "51 - 100 de 120")

	assert.Equal(t, []string{"contacts 10 1", "contacts 10 2", "contacts 10 3", "contacts 10 2"}, api.Calls())
}

func TestCampaignFormOffersCompletedListsOnly(t *testing.T) {
	api := sampleAPI()
	m := newTestModel(t, api)
	m.Update(run(t, goTo(t, m, routeCampaignForm, "")))

	form := m.screen.(*formScreen)
	lists := form.field("list_id").choices
	require.Len(t, lists, 1)
	assert.Equal(t, "10", lists[0].value)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(run(t, cmd))
	assert.Equal(t, "name", form.errField)
	assert.Contains(t, m.View(), "Informe o nome da campanha")

	form.field("name").setValue("Promoção")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	_, cmd = m.Update(run(t, cmd))
	m.Update(run(t, cmd))

	assert.Equal(t, routeCampaigns, m.route)
	require.NotNil(t, api.created)
	assert.Equal(t, "Promoção", api.created.Name)
	assert.Equal(t, models.ID("5"), api.created.TemplateID)
	assert.Equal(t, models.ID("10"), api.created.ListID)
	assert.Equal(t, 4000, api.created.DailyLimit)
	assert.Contains(t, messages(m.Notifications()), "Campanha criada com sucesso")
}

func TestEditingScreensKeepLetterKeys(t *testing.T) {
	m := newTestModel(t, sampleAPI())
	goTo(t, m, routeUploadForm, "")

	m.Update(press("q"))
	m.Update(press("2"))
	assert.Equal(t, routeUploadForm, m.route)
	assert.Equal(t, "q2", m.screen.(*formScreen).field("name").value())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, routeLists, m.route)
}

func TestTemplateDeleteReloads(t *testing.T) {
	api := sampleAPI()
	m := newTestModel(t, api)
	m.Update(run(t, goTo(t, m, routeTemplates, "")))
	assert.Contains(t, m.View(), "Oi {{name}}")

	m.Update(press("d"))
	_, cmd := m.Update(press("y"))
	_, cmd = m.Update(run(t, cmd))
	_, ok := run(t, cmd).(templatesMsg)
	assert.True(t, ok)
	assert.Equal(t, []string{"delete template 5"}, api.Calls())
}
