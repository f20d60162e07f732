package request

import (
	"time"

	requestDatamodel "github.com/caredesk/case-management/internal/core/datamodel/request"
)

const (
	ServiceTypeSocial        = "social"
	ServiceTypePsychological = "psychological"
)

const (
	StatusUnassigned = "unassigned"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// ActiveStatuses mark a request as an active assignment for the employee
// it references; user deletion must reconcile these first.
var ActiveStatuses = []string{StatusAssigned, StatusInProgress}

func ValidServiceType(serviceType string) bool {
	return serviceType == ServiceTypeSocial || serviceType == ServiceTypePsychological
}

// NormalizeStatus validates a requested status change. Only the four
// non-initial statuses are accepted; there is no transition back to
// unassigned. "cancelled" is accepted as an alternate spelling.
func NormalizeStatus(status string) (string, bool) {
	switch status {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusCanceled:
		return status, true
	case "cancelled":
		return StatusCanceled, true
	default:
		return "", false
	}
}

type SupportRequest struct {
	RequestID             int64     `json:"request_id"`
	UserEmail             string    `json:"user_email"`
	ServiceType           string    `json:"service_type"`
	Description           string    `json:"description"`
	Status                string    `json:"status"`
	AssignedEmployeeEmail *string   `json:"assigned_employee_email,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type AnonymousRequest struct {
	RequestID             int64     `json:"request_id"`
	FullName              string    `json:"full_name"`
	Email                 *string   `json:"email,omitempty"`
	Mobile                string    `json:"mobile"`
	ServiceType           string    `json:"service_type"`
	Description           string    `json:"description"`
	Status                string    `json:"status"`
	AssignedEmployeeEmail *string   `json:"assigned_employee_email,omitempty"`
	NotesFromEmployee     string    `json:"notes_from_employee,omitempty"`
	CreatedByEmail        string    `json:"created_by_email"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	// Joined display names, populated on reads.
	AssignedEmployeeFirstName *string `json:"assigned_employee_first_name,omitempty"`
	AssignedEmployeeLastName  *string `json:"assigned_employee_last_name,omitempty"`
	CreatedByFirstName        *string `json:"created_by_first_name,omitempty"`
	CreatedByLastName         *string `json:"created_by_last_name,omitempty"`
}

func SupportToDataModel(r *SupportRequest) *requestDatamodel.SupportRequest {
	return &requestDatamodel.SupportRequest{
		RequestID:             r.RequestID,
		UserEmail:             r.UserEmail,
		ServiceType:           r.ServiceType,
		Description:           r.Description,
		Status:                r.Status,
		AssignedEmployeeEmail: r.AssignedEmployeeEmail,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func SupportFromDataModel(r *requestDatamodel.SupportRequest) *SupportRequest {
	return &SupportRequest{
		RequestID:             r.RequestID,
		UserEmail:             r.UserEmail,
		ServiceType:           r.ServiceType,
		Description:           r.Description,
		Status:                r.Status,
		AssignedEmployeeEmail: r.AssignedEmployeeEmail,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func SupportFromDataModelSlice(rows []*requestDatamodel.SupportRequest) []*SupportRequest {
	result := make([]*SupportRequest, len(rows))
	for i, r := range rows {
		result[i] = SupportFromDataModel(r)
	}
	return result
}

func AnonymousToDataModel(r *AnonymousRequest) *requestDatamodel.AnonymousRequest {
	return &requestDatamodel.AnonymousRequest{
		RequestID:             r.RequestID,
		FullName:              r.FullName,
		Email:                 r.Email,
		Mobile:                r.Mobile,
		ServiceType:           r.ServiceType,
		Description:           r.Description,
		Status:                r.Status,
		AssignedEmployeeEmail: r.AssignedEmployeeEmail,
		NotesFromEmployee:     r.NotesFromEmployee,
		CreatedByEmail:        r.CreatedByEmail,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func AnonymousFromDataModel(r *requestDatamodel.AnonymousRequest) *AnonymousRequest {
	return &AnonymousRequest{
		RequestID:             r.RequestID,
		FullName:              r.FullName,
		Email:                 r.Email,
		Mobile:                r.Mobile,
		ServiceType:           r.ServiceType,
		Description:           r.Description,
		Status:                r.Status,
		AssignedEmployeeEmail: r.AssignedEmployeeEmail,
		NotesFromEmployee:     r.NotesFromEmployee,
		CreatedByEmail:        r.CreatedByEmail,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}
