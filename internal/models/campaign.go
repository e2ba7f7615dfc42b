package models

import "time"

// CampaignStatus is the lifecycle state of a campaign as reported by the service.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign represents an email campaign
type Campaign struct {
	ID              ID             `json:"id"`
	Name            string         `json:"name"`
	Status          CampaignStatus `json:"status"`
	TemplateID      ID             `json:"template_id"`
	TemplateName    string         `json:"template_name,omitempty"` // joined field
	ListID          ID             `json:"list_id"`
	ListName        string         `json:"list_name,omitempty"` // joined field
	DailyLimit      int            `json:"daily_limit"`
	TotalRecipients int            `json:"total_recipients"`
	SentCount       int            `json:"sent_count"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// CampaignStats holds per-campaign delivery counters
type CampaignStats struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// CampaignDetail is a campaign together with its current stats
type CampaignDetail struct {
	Campaign Campaign       `json:"campaign"`
	Stats    *CampaignStats `json:"stats,omitempty"`
}
