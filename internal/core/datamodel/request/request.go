package request

import "time"

// SupportRequest is a request created by a registered user for themselves.
type SupportRequest struct {
	RequestID             int64     `json:"request_id" gorm:"primaryKey;column:request_id"`
	UserEmail             string    `json:"user_email" gorm:"column:user_email;index;not null"`
	ServiceType           string    `json:"service_type" gorm:"column:service_type;not null"`
	Description           string    `json:"description" gorm:"column:description;not null"`
	Status                string    `json:"status" gorm:"column:status;default:unassigned"`
	AssignedEmployeeEmail *string   `json:"assigned_employee_email,omitempty" gorm:"column:assigned_employee_email;index"`
	CreatedAt             time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (SupportRequest) TableName() string {
	return "support_requests"
}

// AnonymousRequest is a phone-intake request created by staff on behalf of
// a person who is not registered in the system.
type AnonymousRequest struct {
	RequestID             int64     `json:"request_id" gorm:"primaryKey;column:request_id"`
	FullName              string    `json:"full_name" gorm:"column:full_name;not null"`
	Email                 *string   `json:"email,omitempty" gorm:"column:email"`
	Mobile                string    `json:"mobile" gorm:"column:mobile;not null"`
	ServiceType           string    `json:"service_type" gorm:"column:service_type;not null"`
	Description           string    `json:"description" gorm:"column:description;not null"`
	Status                string    `json:"status" gorm:"column:status;default:unassigned"`
	AssignedEmployeeEmail *string   `json:"assigned_employee_email,omitempty" gorm:"column:assigned_employee_email;index"`
	NotesFromEmployee     string    `json:"notes_from_employee,omitempty" gorm:"column:notes_from_employee"`
	CreatedByEmail        string    `json:"created_by_email" gorm:"column:created_by_email;not null"`
	CreatedAt             time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (AnonymousRequest) TableName() string {
	return "anonymous_requests"
}
