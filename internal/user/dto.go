package user

import (
	"strings"

	internal "github.com/caredesk/case-management/internal"
)

// AddressDTO is required in full when present: an address row is either
// complete or absent.
type AddressDTO struct {
	Address    string `json:"address"`
	Number     string `json:"number"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

func (d AddressDTO) Validate() *internal.AppError {
	if d.Address == "" || d.Number == "" || d.PostalCode == "" || d.City == "" {
		return internal.NewValidationError("address requires address, number, postal_code and city", internal.ErrCodeValidationFailed)
	}
	return nil
}

type PatientDetailsDTO struct {
	DiseaseType        string `json:"disease_type"`
	HandicapPercentage *int   `json:"handicap_percentage"`
}

type EmployeeDetailsDTO struct {
	EmployeeType string `json:"employee_type"`
	Department   string `json:"department"`
}

type VolunteerDetailsDTO struct {
	Occupation   string `json:"occupation"`
	Availability string `json:"availability"`
}

type RegisterDTO struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	DOB        string `json:"dob"`
	BirthPlace string `json:"birth_place"`
	PhoneNo    string `json:"phone_no"`
	Mobile     string `json:"mobile"`
	Occupation string `json:"occupation"`
	UserType   string `json:"user_type"`

	Address   *AddressDTO          `json:"address,omitempty"`
	Patient   *PatientDetailsDTO   `json:"patient_details,omitempty"`
	Employee  *EmployeeDetailsDTO  `json:"employee_details,omitempty"`
	Volunteer *VolunteerDetailsDTO `json:"volunteer_details,omitempty"`
}

func (d RegisterDTO) Validate() *internal.AppError {
	if d.Email == "" || d.Password == "" || d.FirstName == "" || d.LastName == "" {
		return internal.NewValidationError("email, password, first_name and last_name are required", internal.ErrCodeValidationFailed)
	}
	if !strings.Contains(d.Email, "@") {
		return internal.NewValidationError("invalid email address", internal.ErrCodeValidationFailed)
	}
	if len(d.Password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if !ValidUserType(d.UserType) {
		return internal.NewValidationError("user_type must be patient, volunteer or employee", internal.ErrCodeValidationFailed)
	}

	switch d.UserType {
	case TypePatient:
		if d.Patient == nil || d.Patient.DiseaseType == "" || d.Patient.HandicapPercentage == nil {
			return internal.NewValidationError("patient registration requires disease_type and handicap_percentage", internal.ErrCodeValidationFailed)
		}
		if *d.Patient.HandicapPercentage < 0 || *d.Patient.HandicapPercentage > 100 {
			return internal.NewValidationError("handicap_percentage must be between 0 and 100", internal.ErrCodeValidationFailed)
		}
	case TypeEmployee:
		if d.Employee == nil || d.Employee.EmployeeType == "" || d.Employee.Department == "" {
			return internal.NewValidationError("employee registration requires employee_type and department", internal.ErrCodeValidationFailed)
		}
	case TypeVolunteer:
		if d.Volunteer == nil || d.Volunteer.Occupation == "" {
			return internal.NewValidationError("volunteer registration requires occupation", internal.ErrCodeValidationFailed)
		}
	}

	if d.Address != nil {
		if err := d.Address.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfileDTO carries the raw key/value payload; the service filters
// it through the per-category whitelists.
type UpdateProfileDTO map[string]interface{}

// DeleteOptions select how an employee's active assignments are reconciled
// before the account is removed.
type DeleteOptions struct {
	ReassignTo       *string `json:"reassign_to,omitempty"`
	UnassignRequests bool    `json:"unassign_requests,omitempty"`
}

type SetRolesDTO struct {
	Roles []string `json:"roles"`
}

func (d SetRolesDTO) Validate() *internal.AppError {
	if len(d.Roles) == 0 {
		return internal.NewValidationError("roles must not be empty", internal.ErrCodeValidationFailed)
	}
	seen := make(map[string]bool, len(d.Roles))
	for _, role := range d.Roles {
		if role == "" {
			return internal.NewValidationError("roles must not contain blanks", internal.ErrCodeValidationFailed)
		}
		if seen[role] {
			return internal.NewValidationError("duplicate role "+role, internal.ErrCodeValidationFailed)
		}
		seen[role] = true
	}
	return nil
}
