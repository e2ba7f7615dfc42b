package models

import "time"

// Template is a message template. Placeholders such as {{name}} are stored
// verbatim and never interpreted by the console.
type Template struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	TextContent string    `json:"text_content"`
	HTMLContent string    `json:"html_content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
