package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
)

// CampaignForm is the input of a new campaign
type CampaignForm struct {
	Name       string
	TemplateID models.ID
	ListID     models.ID
	DailyLimit string
}

// NewCampaignForm returns a form with the default daily limit filled in
func NewCampaignForm() CampaignForm {
	return CampaignForm{DailyLimit: fmt.Sprint(DefaultDailyLimit)}
}

// Validate checks the form against the loaded options and returns the
// create request. Only completed lists may be chosen.
func (f CampaignForm) Validate(opts *Options) (*client.CampaignCreateRequest, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, invalid("name", "Informe o nome da campanha")
	}
	if f.TemplateID == "" {
		return nil, invalid("template_id", "Selecione um template")
	}
	if f.ListID == "" {
		return nil, invalid("list_id", "Selecione uma lista")
	}
	if opts != nil {
		if _, ok := opts.Template(f.TemplateID); !ok {
			return nil, invalid("template_id", "Template não encontrado")
		}
		if _, ok := opts.List(f.ListID); !ok {
			return nil, invalid("list_id", "A lista precisa estar processada")
		}
	}
	limit, err := ParseDailyLimit(f.DailyLimit)
	if err != nil {
		return nil, err
	}

	return &client.CampaignCreateRequest{
		Name:       name,
		TemplateID: f.TemplateID,
		ListID:     f.ListID,
		DailyLimit: limit,
	}, nil
}

// CampaignCreator creates campaigns. *client.Client implements it.
type CampaignCreator interface {
	CreateCampaign(ctx context.Context, req *client.CampaignCreateRequest) (*models.Campaign, error)
}

// SubmitCampaign validates the form and creates the campaign. Validation
// failures are returned without contacting the service.
func SubmitCampaign(ctx context.Context, c CampaignCreator, f CampaignForm, opts *Options, n notify.Notifier) (*models.Campaign, error) {
	req, err := f.Validate(opts)
	if err != nil {
		return nil, err
	}
	campaign, err := c.CreateCampaign(ctx, req)
	if err != nil {
		n.Error("Falha ao criar campanha")
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	n.Success("Campanha criada com sucesso")
	return campaign, nil
}
