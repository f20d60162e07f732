package events

import (
	"time"

	"github.com/google/uuid"
)

// Audit events emitted by the lifecycle engines. Consumers subscribe on the
// bus; the default subscriber writes them to the structured log.
const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
	EventUserRolesSet   = "user.roles_set"

	EventRequestCreated       = "request.created"
	EventRequestAssigned      = "request.assigned"
	EventRequestStatusChanged = "request.status_changed"
	EventRequestDeleted       = "request.deleted"

	EventNoteAdded   = "note.added"
	EventNoteDeleted = "note.deleted"
)

// NewAuditEvent builds a BaseEvent with a fresh id and timestamp.
func NewAuditEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
