package request

import (
	internal "github.com/caredesk/case-management/internal"
)

// CreateSupportDTO is the payload for a self-reported support request.
type CreateSupportDTO struct {
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
}

func (d CreateSupportDTO) Validate() *internal.AppError {
	if d.ServiceType == "" || d.Description == "" {
		return internal.NewValidationError("service_type and description are required", internal.ErrCodeValidationFailed)
	}
	if !ValidServiceType(d.ServiceType) {
		return internal.NewValidationError("service type must be social or psychological", internal.ErrCodeInvalidServiceType)
	}
	return nil
}

// CreateAnonymousDTO is the payload for a phone-intake request created on
// behalf of an unregistered person.
type CreateAnonymousDTO struct {
	FullName              string  `json:"full_name"`
	Email                 *string `json:"email,omitempty"`
	Mobile                string  `json:"mobile"`
	ServiceType           string  `json:"service_type"`
	Description           string  `json:"description"`
	AssignedEmployeeEmail *string `json:"assigned_employee_email,omitempty"`
}

func (d CreateAnonymousDTO) Validate() *internal.AppError {
	if d.FullName == "" || d.Mobile == "" || d.ServiceType == "" || d.Description == "" {
		return internal.NewValidationError("full_name, mobile, service_type and description are required", internal.ErrCodeValidationFailed)
	}
	if !ValidServiceType(d.ServiceType) {
		return internal.NewValidationError("service type must be social or psychological", internal.ErrCodeInvalidServiceType)
	}
	return nil
}

type AssignDTO struct {
	AssignedEmployeeEmail string `json:"assigned_employee_email"`
}

func (d AssignDTO) Validate() *internal.AppError {
	if d.AssignedEmployeeEmail == "" {
		return internal.NewValidationError("assigned_employee_email is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

type UpdateNotesDTO struct {
	NotesFromEmployee string `json:"notes_from_employee"`
}

// ListAnonymousQuery carries pagination and the optional status filter for
// the anonymous request listing.
type ListAnonymousQuery struct {
	Page     int
	PageSize int
	Status   string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps pagination to sane bounds and drops unknown status
// filters, mirroring lenient query-string handling.
func (q ListAnonymousQuery) Normalize() ListAnonymousQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	switch q.Status {
	case StatusUnassigned, StatusAssigned, StatusInProgress, StatusCompleted, StatusCanceled:
	default:
		q.Status = ""
	}
	return q
}

type ListMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type AnonymousListResult struct {
	Requests []*AnonymousRequest `json:"requests"`
	Meta     ListMeta            `json:"meta"`
}
