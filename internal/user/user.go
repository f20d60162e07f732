package user

import (
	"time"

	internal "github.com/caredesk/case-management/internal"
)

const (
	TypePatient   = "patient"
	TypeVolunteer = "volunteer"
	TypeEmployee  = "employee"
)

// Employee departments recognized by role resolution.
const (
	DeptPsychologicalServices = "psychological_services"
	DeptSocialServices        = "social_services"
	DeptAdministration        = "administration"
	DeptBoardOfDirectors      = "board_of_directors"
	DeptManagement            = "management"
)

const EmployeeTypeBoardMember = "board_member"

func ValidUserType(userType string) bool {
	switch userType {
	case TypePatient, TypeVolunteer, TypeEmployee:
		return true
	}
	return false
}

// ResolveRole maps a new user's type and employment details to the single
// role granted at registration. Board members resolve to viewer before the
// department is consulted. An employee in an unrecognized department is a
// data error, not a validation error.
func ResolveRole(userType, department, employeeType string) (string, error) {
	switch userType {
	case TypePatient:
		return "patient", nil
	case TypeVolunteer:
		return "volunteer", nil
	case TypeEmployee:
		if employeeType == EmployeeTypeBoardMember {
			return "viewer", nil
		}
		switch department {
		case DeptPsychologicalServices:
			return "therapist", nil
		case DeptSocialServices:
			return "social_worker", nil
		case DeptAdministration:
			return "secretary", nil
		case DeptBoardOfDirectors, DeptManagement:
			return "viewer", nil
		default:
			return "", internal.NewInternalError("no role mapping for department "+department, nil)
		}
	default:
		return "", internal.NewValidationError("unknown user type", internal.ErrCodeValidationFailed)
	}
}

// Field whitelists for profile updates. Unknown keys are silently dropped;
// the manager set is only honored for callers holding manage_users.
var (
	CoreProfileFields = map[string]bool{
		"first_name":  true,
		"last_name":   true,
		"dob":         true,
		"birth_place": true,
		"phone_no":    true,
		"mobile":      true,
		"occupation":  true,
	}

	AddressFields = map[string]bool{
		"address":     true,
		"number":      true,
		"postal_code": true,
		"city":        true,
	}

	ManagerFields = map[string]bool{
		"user_type":     true,
		"employee_type": true,
		"department":    true,
	}
)

type User struct {
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	DOB        *time.Time `json:"dob,omitempty"`
	BirthPlace string     `json:"birth_place,omitempty"`
	PhoneNo    string     `json:"phone_no,omitempty"`
	Mobile     string     `json:"mobile,omitempty"`
	Occupation string     `json:"occupation,omitempty"`
	UserType   string     `json:"user_type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Address struct {
	Address    string `json:"address"`
	Number     string `json:"number"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

type PatientInfo struct {
	DiseaseType        string `json:"disease_type"`
	HandicapPercentage int    `json:"handicap_percentage"`
}

type EmployeeInfo struct {
	EmployeeType string `json:"employee_type"`
	Department   string `json:"department"`
}

type VolunteerInfo struct {
	Occupation   string `json:"occupation"`
	Availability string `json:"availability,omitempty"`
}

// Profile is the full read model: the user row joined with the address,
// the type-specific details and the granted roles.
type Profile struct {
	User
	Address   *Address       `json:"address,omitempty"`
	Patient   *PatientInfo   `json:"patient_details,omitempty"`
	Employee  *EmployeeInfo  `json:"employee_details,omitempty"`
	Volunteer *VolunteerInfo `json:"volunteer_details,omitempty"`
	Roles     []string       `json:"roles"`
}
