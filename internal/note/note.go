package note

import (
	"time"

	noteDatamodel "github.com/caredesk/case-management/internal/core/datamodel/note"
)

// Request types a note can attach to.
const (
	RequestTypeSupport   = "support"
	RequestTypeAnonymous = "anonymous"
)

func ValidRequestType(requestType string) bool {
	return requestType == RequestTypeSupport || requestType == RequestTypeAnonymous
}

type Note struct {
	NoteID      int64     `json:"note_id"`
	RequestType string    `json:"request_type"`
	RequestID   int64     `json:"request_id"`
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined author names, populated on reads.
	AuthorFirstName *string `json:"author_first_name,omitempty"`
	AuthorLastName  *string `json:"author_last_name,omitempty"`
}

func ToDataModel(n *Note) *noteDatamodel.RequestNote {
	return &noteDatamodel.RequestNote{
		NoteID:      n.NoteID,
		RequestType: n.RequestType,
		RequestID:   n.RequestID,
		AuthorEmail: n.AuthorEmail,
		Content:     n.Content,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func FromDataModel(n *noteDatamodel.RequestNote) *Note {
	return &Note{
		NoteID:      n.NoteID,
		RequestType: n.RequestType,
		RequestID:   n.RequestID,
		AuthorEmail: n.AuthorEmail,
		Content:     n.Content,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
