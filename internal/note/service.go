package note

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/core/events"
)

type Repository interface {
	Create(n *Note) error
	GetByID(noteID int64) (*Note, error)
	ListForRequest(requestType string, requestID int64) ([]*Note, error)
	UpdateContent(noteID int64, content string, updatedAt time.Time) error
	Delete(noteID int64) error

	RequestExists(requestType string, requestID int64) (bool, error)
}

// Service implements the polymorphic note thread attached to requests.
// Edits are author-only; deletion is reserved for admins, the author
// included.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) Add(authorEmail, requestType string, requestID int64, dto CreateNoteDTO) (*Note, error) {
	if !ValidRequestType(requestType) {
		return nil, internal.NewValidationError("request_type must be support or anonymous", internal.ErrCodeValidationFailed)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.RequestExists(requestType, requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check request", err)
	}
	if !exists {
		return nil, internal.ErrRequestNotFound
	}

	now := time.Now()
	n := &Note{
		RequestType: requestType,
		RequestID:   requestID,
		AuthorEmail: authorEmail,
		Content:     dto.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(n); err != nil {
		return nil, internal.NewInternalError("failed to create note", err)
	}

	s.publish(events.EventNoteAdded, map[string]interface{}{
		"note_id":      n.NoteID,
		"request_type": requestType,
		"request_id":   requestID,
		"author":       authorEmail,
	})

	s.logger.Info("note added", "note_id", n.NoteID, "request_type", requestType, "request_id", requestID)
	return n, nil
}

// List returns the request's notes oldest first.
func (s *Service) List(requestType string, requestID int64) ([]*Note, error) {
	if !ValidRequestType(requestType) {
		return nil, internal.NewValidationError("request_type must be support or anonymous", internal.ErrCodeValidationFailed)
	}

	exists, err := s.repo.RequestExists(requestType, requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check request", err)
	}
	if !exists {
		return nil, internal.ErrRequestNotFound
	}

	notes, err := s.repo.ListForRequest(requestType, requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list notes", err)
	}
	return notes, nil
}

// Edit replaces a note's content. Only the author may edit, admins
// included.
func (s *Service) Edit(access *auth.Access, noteID int64, dto UpdateNoteDTO) (*Note, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	n, err := s.repo.GetByID(noteID)
	if err != nil {
		return nil, internal.ErrNoteNotFound
	}
	if n.AuthorEmail != access.Email {
		return nil, internal.NewForbiddenError("only the author may edit a note", internal.ErrCodeNotNoteAuthor)
	}

	if err := s.repo.UpdateContent(noteID, dto.Content, time.Now()); err != nil {
		return nil, internal.NewInternalError("failed to update note", err)
	}

	n, err = s.repo.GetByID(noteID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload note", err)
	}
	return n, nil
}

// Delete removes a note. Admin only, even for the author.
func (s *Service) Delete(access *auth.Access, noteID int64) error {
	if !access.HasRole(auth.RoleAdmin) {
		return internal.NewForbiddenError("only administrators may delete notes", internal.ErrCodeAdminOnly)
	}

	if _, err := s.repo.GetByID(noteID); err != nil {
		return internal.ErrNoteNotFound
	}

	if err := s.repo.Delete(noteID); err != nil {
		return internal.NewInternalError("failed to delete note", err)
	}

	s.publish(events.EventNoteDeleted, map[string]interface{}{
		"note_id":    noteID,
		"deleted_by": access.Email,
	})
	return nil
}

func (s *Service) publish(eventType string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), events.NewAuditEvent(eventType, data)); err != nil {
		s.logger.Warn("audit event publish failed", "event_type", eventType, "error", err)
	}
}
