package remote

import (
	"encoding/json"
	"time"
)

// Envelope is the discriminated response wrapper every backend endpoint
// uses: a success flag plus optional message and payload. It is validated
// at the client boundary; handlers and the store never see raw bodies.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FailureMessage returns the most specific failure text the envelope
// carries, preferring message over error.
func (e *Envelope) FailureMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// CaseItem is a read-only projection of a backend case record.
type CaseItem struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ImageURL     string            `json:"image_url"`
	Platform     string            `json:"platform,omitempty"`
	Metrics      map[string]string `json:"metrics,omitempty"`
	DisplayOrder int               `json:"display_order,omitempty"`
	IsActive     bool              `json:"is_active"`
}

// ContentBlock is an admin-managed named section of site copy.
type ContentBlock struct {
	ID       int64          `json:"id"`
	Section  string         `json:"section"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	IsActive bool           `json:"is_active"`
}

// Lead status values. Status is mutated only by admin action.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusClosed    = "closed"
)

// LeadStatuses lists all valid lead statuses in lifecycle order.
var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusConverted,
	LeadStatusClosed,
}

// IsValidLeadStatus reports whether s is a known lead status.
func IsValidLeadStatus(s string) bool {
	for _, status := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Lead is a submitted contact request, admin-visible only.
type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Industry  string    `json:"industry,omitempty"`
	Message   string    `json:"message,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadPage is one page of the admin lead list.
type LeadPage struct {
	Leads []Lead `json:"leads"`
	Total int    `json:"total"`
	Limit int    `json:"limit"`
}

// LeadRequest is the public form submission body.
type LeadRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Industry string `json:"industry"`
	Message  string `json:"message"`
}

// LoginData is the payload of a successful admin login.
type LoginData struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ContentInput is the admin content save body.
type ContentInput struct {
	Section  string         `json:"section"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	IsActive bool           `json:"is_active"`
}

// CaseInput is the admin case create/update body.
type CaseInput struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Platform     string            `json:"platform"`
	ImageURL     string            `json:"image_url"`
	Metrics      map[string]string `json:"metrics"`
	DisplayOrder int               `json:"display_order"`
	IsActive     bool              `json:"is_active"`
}

// LeadsQuery selects a page of the admin lead list.
type LeadsQuery struct {
	Page   int
	Limit  int
	Status string // empty means all statuses
}
