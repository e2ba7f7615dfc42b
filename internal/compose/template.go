package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
)

// TemplateForm is the input of a template. Templates are plain text; the
// HTML body is always sent empty.
type TemplateForm struct {
	Name        string
	Subject     string
	TextContent string
}

// TemplateFormFrom fills a form with an existing template
func TemplateFormFrom(t models.Template) TemplateForm {
	return TemplateForm{Name: t.Name, Subject: t.Subject, TextContent: t.TextContent}
}

// Validate checks the required fields and returns the request body
func (f TemplateForm) Validate() (*client.TemplateRequest, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, invalid("name", "Informe o nome do template")
	}
	if strings.TrimSpace(f.Subject) == "" {
		return nil, invalid("subject", "Informe o assunto")
	}
	if strings.TrimSpace(f.TextContent) == "" {
		return nil, invalid("text_content", "Informe o conteúdo")
	}
	return &client.TemplateRequest{
		Name:        strings.TrimSpace(f.Name),
		Subject:     f.Subject,
		TextContent: f.TextContent,
		HTMLContent: "",
	}, nil
}

// TemplateWriter stores templates. *client.Client implements it.
type TemplateWriter interface {
	CreateTemplate(ctx context.Context, req *client.TemplateRequest) (*models.Template, error)
	UpdateTemplate(ctx context.Context, id models.ID, req *client.TemplateRequest) (*models.Template, error)
}

// SubmitTemplate creates the template, or updates it when id is set
func SubmitTemplate(ctx context.Context, w TemplateWriter, id models.ID, f TemplateForm, n notify.Notifier) (*models.Template, error) {
	req, err := f.Validate()
	if err != nil {
		return nil, err
	}

	if id == "" {
		t, err := w.CreateTemplate(ctx, req)
		if err != nil {
			n.Error("Falha ao criar template")
			return nil, fmt.Errorf("create template: %w", err)
		}
		n.Success("Template criado com sucesso")
		return t, nil
	}

	t, err := w.UpdateTemplate(ctx, id, req)
	if err != nil {
		n.Error("Falha ao atualizar template")
		return nil, fmt.Errorf("update template %s: %w", id, err)
	}
	n.Success("Template atualizado com sucesso")
	return t, nil
}
