package note

import "time"

// RequestNote attaches to either request kind via (request_type, request_id).
type RequestNote struct {
	NoteID      int64     `json:"note_id" gorm:"primaryKey;column:note_id"`
	RequestType string    `json:"request_type" gorm:"column:request_type;index:idx_request_notes_request;not null"`
	RequestID   int64     `json:"request_id" gorm:"column:request_id;index:idx_request_notes_request;not null"`
	AuthorEmail string    `json:"author_email" gorm:"column:author_email;index;not null"`
	Content     string    `json:"content" gorm:"column:content;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (RequestNote) TableName() string {
	return "request_notes"
}
