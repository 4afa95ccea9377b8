package domain

// DocType partitions the corpus. Tickets and guide chunks are never mixed
// inside a single retrieval pass.
type DocType string

const (
	TypeTicket     DocType = "ticket"
	TypeGuideChunk DocType = "guide_chunk"
)

// Metadata carries the descriptive fields attached to an indexed document.
// The ingestion side normalizes absent values to empty strings before
// persistence; retrieval code relies on that and never checks for nil.
type Metadata struct {
	TicketID       string `json:"ticket_id,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Status         string `json:"status,omitempty"`
	Priority       string `json:"priority,omitempty"`
	GuideNumber    string `json:"guide_number,omitempty"`
	GuideTitle     string `json:"guide_title,omitempty"`
	SectionHeading string `json:"section_heading,omitempty"`
	URL            string `json:"url,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// Document is immutable once indexed.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     DocType  `json:"type"`
	Metadata Metadata `json:"metadata"`
}
