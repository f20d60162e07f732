package postgres

import (
	"time"

	"gorm.io/gorm"

	noteDatamodel "github.com/caredesk/case-management/internal/core/datamodel/note"
	"github.com/caredesk/case-management/internal/note"
)

// NoteRepository implements note.Repository using GORM.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) note.Repository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(n *note.Note) error {
	row := note.ToDataModel(n)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	n.NoteID = row.NoteID
	return nil
}

func (r *NoteRepository) GetByID(noteID int64) (*note.Note, error) {
	var row noteDatamodel.RequestNote
	if err := r.db.Where("note_id = ?", noteID).First(&row).Error; err != nil {
		return nil, err
	}
	return note.FromDataModel(&row), nil
}

type noteRow struct {
	noteDatamodel.RequestNote
	AuthorFirstName *string
	AuthorLastName  *string
}

// ListForRequest returns the thread oldest first with joined author names.
func (r *NoteRepository) ListForRequest(requestType string, requestID int64) ([]*note.Note, error) {
	query := `
	SELECT rn.*,
	       u.first_name AS author_first_name,
	       u.last_name  AS author_last_name
	  FROM request_notes rn
	  LEFT JOIN users u ON u.email = rn.author_email
	 WHERE rn.request_type = ? AND rn.request_id = ?
	 ORDER BY rn.created_at ASC`

	var rows []*noteRow
	if err := r.db.Raw(query, requestType, requestID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	notes := make([]*note.Note, len(rows))
	for i, row := range rows {
		n := note.FromDataModel(&row.RequestNote)
		n.AuthorFirstName = row.AuthorFirstName
		n.AuthorLastName = row.AuthorLastName
		notes[i] = n
	}
	return notes, nil
}

func (r *NoteRepository) UpdateContent(noteID int64, content string, updatedAt time.Time) error {
	return r.db.Model(&noteDatamodel.RequestNote{}).
		Where("note_id = ?", noteID).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": updatedAt,
		}).Error
}

func (r *NoteRepository) Delete(noteID int64) error {
	return r.db.Where("note_id = ?", noteID).
		Delete(&noteDatamodel.RequestNote{}).Error
}

func (r *NoteRepository) RequestExists(requestType string, requestID int64) (bool, error) {
	table := "support_requests"
	if requestType == note.RequestTypeAnonymous {
		table = "anonymous_requests"
	}

	var count int64
	err := r.db.Table(table).Where("request_id = ?", requestID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
