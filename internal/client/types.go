package client

import (
	"io"

	"github.com/foxzi/disparo/internal/models"
)

// CampaignListResponse represents GET /campaigns
type CampaignListResponse struct {
	Campaigns []models.Campaign `json:"campaigns"`
}

// CampaignCreateRequest represents POST /campaigns
type CampaignCreateRequest struct {
	Name       string    `json:"name"`
	TemplateID models.ID `json:"template_id"`
	ListID     models.ID `json:"list_id"`
	DailyLimit int       `json:"daily_limit"`
}

type campaignResponse struct {
	Campaign *models.Campaign `json:"campaign"`
}

// ListsResponse represents GET /lists
type ListsResponse struct {
	Lists []models.List `json:"lists"`
}

type listResponse struct {
	List *models.List `json:"list"`
}

// ContactsResponse represents GET /lists/{id}/contacts
type ContactsResponse struct {
	Contacts   []models.Contact  `json:"contacts"`
	Pagination models.Pagination `json:"pagination"`
}

// ListUploadRequest is the multipart body of POST /lists. The file is sent
// as-is; parsing and validation happen on the service.
type ListUploadRequest struct {
	Name        string
	Description string
	FileName    string
	File        io.Reader
}

// TemplatesResponse represents GET /templates
type TemplatesResponse struct {
	Templates []models.Template `json:"templates"`
}

// TemplateRequest is the body of POST/PUT /templates
type TemplateRequest struct {
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	TextContent string `json:"text_content"`
	HTMLContent string `json:"html_content"`
}

type templateResponse struct {
	Template *models.Template `json:"template"`
}
