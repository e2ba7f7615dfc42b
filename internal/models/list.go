package models

import "time"

// ListStatus is the processing state of an uploaded recipient list.
type ListStatus string

const (
	ListProcessing ListStatus = "processing"
	ListCompleted  ListStatus = "completed"
	ListFailed     ListStatus = "failed"
)

// List represents an uploaded list of email recipients
type List struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Status       ListStatus `json:"status"`
	TotalCount   int        `json:"total_count"`
	ValidCount   int        `json:"valid_count"`
	InvalidCount int        `json:"invalid_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Contact represents a single recipient of a list
type Contact struct {
	ID      ID     `json:"id"`
	ListID  ID     `json:"list_id,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsValid bool   `json:"is_valid"`
}

// Pagination describes a page of a paginated collection
type Pagination struct {
	Page       int `json:"page,omitempty"`
	Limit      int `json:"limit,omitempty"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}
