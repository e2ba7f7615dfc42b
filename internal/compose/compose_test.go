package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
)

type fakeService struct {
	templates    []models.Template
	lists        []models.List
	templatesErr error
	created      *client.CampaignCreateRequest
	createErr    error
	tmplReq      *client.TemplateRequest
	updatedID    models.ID
	uploaded     string
	uploadedName string
}

func (f *fakeService) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return f.templates, f.templatesErr
}

func (f *fakeService) ListLists(ctx context.Context) ([]models.List, error) {
	return f.lists, nil
}

func (f *fakeService) CreateCampaign(ctx context.Context, req *client.CampaignCreateRequest) (*models.Campaign, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = req
	return &models.Campaign{ID: "c1", Name: req.Name, Status: models.CampaignDraft}, nil
}

func (f *fakeService) CreateTemplate(ctx context.Context, req *client.TemplateRequest) (*models.Template, error) {
	f.tmplReq = req
	return &models.Template{ID: "t9", Name: req.Name}, nil
}

func (f *fakeService) UpdateTemplate(ctx context.Context, id models.ID, req *client.TemplateRequest) (*models.Template, error) {
	f.tmplReq = req
	f.updatedID = id
	return &models.Template{ID: id, Name: req.Name}, nil
}

func (f *fakeService) UploadList(ctx context.Context, req *client.ListUploadRequest) (*models.List, error) {
	buf := make([]byte, 1024)
	n, _ := req.File.Read(buf)
	f.uploaded = string(buf[:n])
	f.uploadedName = req.FileName
	return &models.List{ID: "l9", Name: req.Name, Status: models.ListProcessing}, nil
}

func sampleService() *fakeService {
	return &fakeService{
		templates: []models.Template{{ID: "t1", Name: "Welcome"}},
		lists: []models.List{
			{ID: "l1", Name: "Ready", Status: models.ListCompleted, ValidCount: 3},
			{ID: "l2", Name: "Uploading", Status: models.ListProcessing},
			{ID: "l3", Name: "Broken", Status: models.ListFailed},
		},
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
	return fe.Field
}

func TestSelectableLists(t *testing.T) {
	got := SelectableLists(sampleService().lists)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("l1"), got[0].ID)

	assert.Empty(t, SelectableLists(nil))
}

func TestLoadOptions(t *testing.T) {
	opts, err := LoadOptions(context.Background(), sampleService())
	require.NoError(t, err)
	assert.Len(t, opts.Templates, 1)
	require.Len(t, opts.Lists, 1)
	assert.Equal(t, models.ListCompleted, opts.Lists[0].Status)

	svc := sampleService()
	svc.templatesErr = errors.New("HTTP 500")
	_, err = LoadOptions(context.Background(), svc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load templates")
}

func TestDailyLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", DefaultDailyLimit, false},
		{"1", 1, false},
		{"10000", 10000, false},
		{" 250 ", 250, false},
		{"0", 0, true},
		{"10001", 0, true},
		{"-5", 0, true},
		{"12.5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDailyLimit(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDailyLimit(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDailyLimit(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestCampaignFormValidate(t *testing.T) {
	opts, err := LoadOptions(context.Background(), sampleService())
	require.NoError(t, err)

	valid := CampaignForm{Name: " Launch ", TemplateID: "t1", ListID: "l1", DailyLimit: "500"}
	req, err := valid.Validate(opts)
	require.NoError(t, err)
	assert.Equal(t, "Launch", req.Name)
	assert.Equal(t, 500, req.DailyLimit)

	tests := []struct {
		name  string
		form  CampaignForm
		field string
	}{
		{"missing name", CampaignForm{TemplateID: "t1", ListID: "l1"}, "name"},
		{"missing template", CampaignForm{Name: "x", ListID: "l1"}, "template_id"},
		{"missing list", CampaignForm{Name: "x", TemplateID: "t1"}, "list_id"},
		{"processing list", CampaignForm{Name: "x", TemplateID: "t1", ListID: "l2"}, "list_id"},
		{"failed list", CampaignForm{Name: "x", TemplateID: "t1", ListID: "l3"}, "list_id"},
		{"unknown template", CampaignForm{Name: "x", TemplateID: "t7", ListID: "l1"}, "template_id"},
		{"limit too high", CampaignForm{Name: "x", TemplateID: "t1", ListID: "l1", DailyLimit: "20000"}, "daily_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Validate(opts)
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}

	assert.Equal(t, "4000", NewCampaignForm().DailyLimit)
}

func TestSubmitCampaign(t *testing.T) {
	svc := sampleService()
	feed := notify.NewFeed(5)
	opts, err := LoadOptions(context.Background(), svc)
	require.NoError(t, err)

	c, err := SubmitCampaign(context.Background(), svc, CampaignForm{Name: "Launch", TemplateID: "t1", ListID: "l1"}, opts, feed)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignDraft, c.Status)
	assert.Equal(t, DefaultDailyLimit, svc.created.DailyLimit)
	n, _ := feed.Latest()
	assert.Equal(t, "Campanha criada com sucesso", n.Message)

	svc.created = nil
	_, err = SubmitCampaign(context.Background(), svc, CampaignForm{Name: "Launch", TemplateID: "t1", ListID: "l2"}, opts, feed)
	require.Error(t, err)
	assert.Nil(t, svc.created, "invalid forms never reach the service")

	svc.createErr = &client.APIError{StatusCode: 400, Message: "list not ready"}
	_, err = SubmitCampaign(context.Background(), svc, CampaignForm{Name: "Launch", TemplateID: "t1", ListID: "l1"}, opts, feed)
	require.Error(t, err)
	assert.Equal(t, client.KindRejected, client.Classify(err))
	n, _ = feed.Latest()
	assert.Equal(t, "Falha ao criar campanha", n.Message)
}

func TestTemplateForm(t *testing.T) {
	_, err := TemplateForm{Subject: "s", TextContent: "b"}.Validate()
	assert.Equal(t, "name", fieldOf(t, err))
	_, err = TemplateForm{Name: "n", TextContent: "b"}.Validate()
	assert.Equal(t, "subject", fieldOf(t, err))
	_, err = TemplateForm{Name: "n", Subject: "s", TextContent: "  "}.Validate()
	assert.Equal(t, "text_content", fieldOf(t, err))

	svc := sampleService()
	feed := notify.NewFeed(5)
	form := TemplateForm{Name: "Promo", Subject: "Hi {{name}}", TextContent: "<b>Hello {{name}}</b>"}

	_, err = SubmitTemplate(context.Background(), svc, "", form, feed)
	require.NoError(t, err)
	assert.Equal(t, "", svc.tmplReq.HTMLContent)
	assert.Equal(t, "<b>Hello {{name}}</b>", svc.tmplReq.TextContent, "content is stored verbatim")
	n, _ := feed.Latest()
	assert.Equal(t, "Template criado com sucesso", n.Message)

	_, err = SubmitTemplate(context.Background(), svc, "t1", TemplateFormFrom(models.Template{Name: "A", Subject: "B", TextContent: "C"}), feed)
	require.NoError(t, err)
	assert.Equal(t, models.ID("t1"), svc.updatedID)
	n, _ = feed.Latest()
	assert.Equal(t, "Template atualizado com sucesso", n.Message)
}

func TestUploadForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Recipients.CSV")
	require.NoError(t, os.WriteFile(path, []byte("email\na@example.com\n"), 0o600))

	assert.Equal(t, "name", fieldOf(t, UploadForm{Path: path}.Validate()))
	assert.Equal(t, "file", fieldOf(t, UploadForm{Name: "x"}.Validate()))
	assert.Equal(t, "file", fieldOf(t, UploadForm{Name: "x", Path: filepath.Join(dir, "list.xlsx")}.Validate()))
	assert.NoError(t, UploadForm{Name: "x", Path: path}.Validate())

	svc := sampleService()
	feed := notify.NewFeed(5)
	list, err := SubmitUpload(context.Background(), svc, UploadForm{Name: "Clientes", Path: path}, feed)
	require.NoError(t, err)
	assert.Equal(t, models.ListProcessing, list.Status)
	assert.Equal(t, "Recipients.CSV", svc.uploadedName)
	assert.Equal(t, "email\na@example.com\n", svc.uploaded)
	n, _ := feed.Latest()
	assert.Equal(t, notify.LevelSuccess, n.Level)

	_, err = SubmitUpload(context.Background(), svc, UploadForm{Name: "x", Path: filepath.Join(dir, "missing.txt")}, feed)
	assert.Equal(t, "file", fieldOf(t, err))
}
