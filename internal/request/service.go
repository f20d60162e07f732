package request

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/core/events"
)

// Repository defines the data access methods for both request kinds.
type Repository interface {
	CreateSupport(req *SupportRequest) error
	GetSupportByID(id int64) (*SupportRequest, error)
	ListAllSupport() ([]*SupportRequest, error)
	ListSupportByServiceType(serviceType string) ([]*SupportRequest, error)
	ListSupportByOwner(email string) ([]*SupportRequest, error)
	ListSupportByAssignee(email string) ([]*SupportRequest, error)
	UpdateSupportAssignment(id int64, employeeEmail string, updatedAt time.Time) error
	UpdateSupportStatus(id int64, status string, updatedAt time.Time) error
	DeleteSupport(id int64) error

	CreateAnonymous(req *AnonymousRequest) error
	GetAnonymousByID(id int64) (*AnonymousRequest, error)
	ListAnonymous(status string, limit, offset int) ([]*AnonymousRequest, int64, error)
	UpdateAnonymousAssignment(id int64, employeeEmail string, updatedAt time.Time) error
	UpdateAnonymousStatus(id int64, status string, updatedAt time.Time) error
	UpdateAnonymousNotes(id int64, notes string, updatedAt time.Time) error
	DeleteAnonymous(id int64) error

	UserExists(email string) (bool, error)
}

// Service owns the request state machine: creation, assignment, status
// transitions, viewer-scoped listing and deletion.
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

// CreateSupport persists a self-reported request, initially unassigned.
func (s *Service) CreateSupport(requesterEmail string, dto CreateSupportDTO) (*SupportRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	req := &SupportRequest{
		UserEmail:   requesterEmail,
		ServiceType: dto.ServiceType,
		Description: dto.Description,
		Status:      StatusUnassigned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateSupport(req); err != nil {
		s.logger.Error("failed to create support request", "error", err, "user_email", requesterEmail)
		return nil, internal.NewInternalError("failed to create request", err)
	}

	s.publish(events.EventRequestCreated, map[string]interface{}{
		"request_type": "support",
		"request_id":   req.RequestID,
		"service_type": req.ServiceType,
	})

	s.logger.Info("support request created",
		"request_id", req.RequestID,
		"user_email", requesterEmail,
		"service_type", dto.ServiceType)

	return req, nil
}

// CreateAnonymous persists a phone-intake request. When an assignee is
// supplied at creation the request starts out assigned.
func (s *Service) CreateAnonymous(creatorEmail string, dto CreateAnonymousDTO) (*AnonymousRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	status := StatusUnassigned
	if dto.AssignedEmployeeEmail != nil && *dto.AssignedEmployeeEmail != "" {
		exists, err := s.repo.UserExists(*dto.AssignedEmployeeEmail)
		if err != nil {
			return nil, internal.NewInternalError("failed to verify employee", err)
		}
		if !exists {
			return nil, internal.NewNotFoundError("employee not found", internal.ErrCodeEmployeeNotFound)
		}
		status = StatusAssigned
	} else {
		dto.AssignedEmployeeEmail = nil
	}

	now := time.Now()
	req := &AnonymousRequest{
		FullName:              dto.FullName,
		Email:                 dto.Email,
		Mobile:                dto.Mobile,
		ServiceType:           dto.ServiceType,
		Description:           dto.Description,
		Status:                status,
		AssignedEmployeeEmail: dto.AssignedEmployeeEmail,
		CreatedByEmail:        creatorEmail,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.CreateAnonymous(req); err != nil {
		s.logger.Error("failed to create anonymous request", "error", err, "created_by", creatorEmail)
		return nil, internal.NewInternalError("failed to create request", err)
	}

	s.publish(events.EventRequestCreated, map[string]interface{}{
		"request_type": "anonymous",
		"request_id":   req.RequestID,
		"service_type": req.ServiceType,
	})

	s.logger.Info("anonymous request created",
		"request_id", req.RequestID,
		"created_by", creatorEmail,
		"status", status)

	return req, nil
}

// ListForViewer branches on the caller's access in a fixed precedence
// order: admin sees everything, the service-type roles see their category,
// then assignment-based viewing. The first matching branch wins.
func (s *Service) ListForViewer(access *auth.Access) ([]*SupportRequest, error) {
	switch {
	case access.HasRole(auth.RoleAdmin):
		return s.listAll()
	case access.HasRole(auth.RoleTherapist):
		return s.listByServiceType(ServiceTypePsychological)
	case access.HasRole(auth.RoleSocialWorker):
		return s.listByServiceType(ServiceTypeSocial)
	case access.HasPermission(auth.PermViewAssignedReqs):
		return s.listByAssignee(access.Email)
	default:
		s.logger.Warn("request listing denied", "email", access.Email)
		return nil, internal.ErrForbidden
	}
}

func (s *Service) listAll() ([]*SupportRequest, error) {
	requests, err := s.repo.ListAllSupport()
	if err != nil {
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

func (s *Service) listByServiceType(serviceType string) ([]*SupportRequest, error) {
	requests, err := s.repo.ListSupportByServiceType(serviceType)
	if err != nil {
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

func (s *Service) listByAssignee(email string) ([]*SupportRequest, error) {
	requests, err := s.repo.ListSupportByAssignee(email)
	if err != nil {
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

// ListOwn returns the caller's own support requests, newest first.
func (s *Service) ListOwn(email string) ([]*SupportRequest, error) {
	requests, err := s.repo.ListSupportByOwner(email)
	if err != nil {
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

// ListAssigned returns the support requests assigned to the caller.
func (s *Service) ListAssigned(email string) ([]*SupportRequest, error) {
	return s.listByAssignee(email)
}

// ListAnonymous returns a page of anonymous requests with joined employee
// names and paging metadata.
func (s *Service) ListAnonymous(query ListAnonymousQuery) (*AnonymousListResult, error) {
	query = query.Normalize()
	offset := (query.Page - 1) * query.PageSize

	requests, total, err := s.repo.ListAnonymous(query.Status, query.PageSize, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list anonymous requests", err)
	}

	totalPages := total / int64(query.PageSize)
	if total%int64(query.PageSize) != 0 || totalPages == 0 {
		totalPages++
	}

	return &AnonymousListResult{
		Requests: requests,
		Meta: ListMeta{
			Page:       query.Page,
			PageSize:   query.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *Service) GetAnonymousByID(id int64) (*AnonymousRequest, error) {
	req, err := s.repo.GetAnonymousByID(id)
	if err != nil {
		return nil, internal.ErrRequestNotFound
	}
	return req, nil
}

// AssignSupport puts a support request in the assigned state and records
// the employee. Assignment always resumes to assigned regardless of the
// prior status.
func (s *Service) AssignSupport(requestID int64, dto AssignDTO) (*SupportRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetSupportByID(requestID); err != nil {
		return nil, internal.ErrRequestNotFound
	}

	if err := s.ensureEmployeeExists(dto.AssignedEmployeeEmail); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSupportAssignment(requestID, dto.AssignedEmployeeEmail, time.Now()); err != nil {
		return nil, internal.NewInternalError("failed to assign request", err)
	}

	s.publish(events.EventRequestAssigned, map[string]interface{}{
		"request_type":      "support",
		"request_id":        requestID,
		"assigned_employee": dto.AssignedEmployeeEmail,
	})

	req, err := s.repo.GetSupportByID(requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload request", err)
	}
	return req, nil
}

func (s *Service) AssignAnonymous(requestID int64, dto AssignDTO) (*AnonymousRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetAnonymousByID(requestID); err != nil {
		return nil, internal.ErrRequestNotFound
	}

	if err := s.ensureEmployeeExists(dto.AssignedEmployeeEmail); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAnonymousAssignment(requestID, dto.AssignedEmployeeEmail, time.Now()); err != nil {
		return nil, internal.NewInternalError("failed to assign request", err)
	}

	s.publish(events.EventRequestAssigned, map[string]interface{}{
		"request_type":      "anonymous",
		"request_id":        requestID,
		"assigned_employee": dto.AssignedEmployeeEmail,
	})

	req, err := s.repo.GetAnonymousByID(requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload request", err)
	}
	return req, nil
}

// TransitionSupportStatus applies a status change. Membership in the
// allowed set is the only constraint; ordering among the four statuses is
// deliberately not enforced.
func (s *Service) TransitionSupportStatus(requestID int64, dto UpdateStatusDTO) (*SupportRequest, error) {
	status, ok := NormalizeStatus(dto.Status)
	if !ok {
		return nil, internal.NewValidationError("invalid request status", internal.ErrCodeInvalidStatus)
	}

	if _, err := s.repo.GetSupportByID(requestID); err != nil {
		return nil, internal.ErrRequestNotFound
	}

	if err := s.repo.UpdateSupportStatus(requestID, status, time.Now()); err != nil {
		return nil, internal.NewInternalError("failed to update status", err)
	}

	s.publish(events.EventRequestStatusChanged, map[string]interface{}{
		"request_type": "support",
		"request_id":   requestID,
		"status":       status,
	})

	req, err := s.repo.GetSupportByID(requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload request", err)
	}
	return req, nil
}

func (s *Service) TransitionAnonymousStatus(requestID int64, dto UpdateStatusDTO) (*AnonymousRequest, error) {
	status, ok := NormalizeStatus(dto.Status)
	if !ok {
		return nil, internal.NewValidationError("invalid request status", internal.ErrCodeInvalidStatus)
	}

	if _, err := s.repo.GetAnonymousByID(requestID); err != nil {
		return nil, internal.ErrRequestNotFound
	}

	if err := s.repo.UpdateAnonymousStatus(requestID, status, time.Now()); err != nil {
		return nil, internal.NewInternalError("failed to update status", err)
	}

	s.publish(events.EventRequestStatusChanged, map[string]interface{}{
		"request_type": "anonymous",
		"request_id":   requestID,
		"status":       status,
	})

	req, err := s.repo.GetAnonymousByID(requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload request", err)
	}
	return req, nil
}

// UpdateAnonymousNotes replaces the free-form employee notes carried on an
// anonymous request.
func (s *Service) UpdateAnonymousNotes(requestID int64, dto UpdateNotesDTO) (*AnonymousRequest, error) {
	if _, err := s.repo.GetAnonymousByID(requestID); err != nil {
		return nil, internal.ErrRequestNotFound
	}

	if err := s.repo.UpdateAnonymousNotes(requestID, dto.NotesFromEmployee, time.Now()); err != nil {
		return nil, internal.NewInternalError("failed to update notes", err)
	}

	req, err := s.repo.GetAnonymousByID(requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload request", err)
	}
	return req, nil
}

func (s *Service) DeleteSupport(requestID int64) error {
	if _, err := s.repo.GetSupportByID(requestID); err != nil {
		return internal.ErrRequestNotFound
	}

	if err := s.repo.DeleteSupport(requestID); err != nil {
		return internal.NewInternalError("failed to delete request", err)
	}

	s.publish(events.EventRequestDeleted, map[string]interface{}{
		"request_type": "support",
		"request_id":   requestID,
	})
	return nil
}

func (s *Service) DeleteAnonymous(requestID int64) error {
	if _, err := s.repo.GetAnonymousByID(requestID); err != nil {
		return internal.ErrRequestNotFound
	}

	if err := s.repo.DeleteAnonymous(requestID); err != nil {
		return internal.NewInternalError("failed to delete request", err)
	}

	s.publish(events.EventRequestDeleted, map[string]interface{}{
		"request_type": "anonymous",
		"request_id":   requestID,
	})
	return nil
}

// No check that the assignee's role matches the service type: routing
// guidance is advisory, admins may assign anyone.
func (s *Service) ensureEmployeeExists(email string) error {
	exists, err := s.repo.UserExists(email)
	if err != nil {
		return internal.NewInternalError("failed to verify employee", err)
	}
	if !exists {
		return internal.NewNotFoundError("employee not found", internal.ErrCodeEmployeeNotFound)
	}
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
