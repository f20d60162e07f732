package user

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/core/events"
)

// PasswordHasher abstracts credential hashing so the user service does not
// depend on the auth service directly.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Registration groups everything written in the single registration
// transaction.
type Registration struct {
	User      *User
	Password  string
	Address   *Address
	Patient   *PatientInfo
	Employee  *EmployeeInfo
	Volunteer *VolunteerInfo
	Role      string
}

type Repository interface {
	EmailExists(email string) (bool, error)
	CreateUser(reg *Registration) error
	GetProfile(email string) (*Profile, error)
	ListUsers() ([]*User, error)

	GetAddress(email string) (*Address, error)
	// ApplyProfileUpdate writes the filtered user, address and employee
	// field maps in one transaction.
	ApplyProfileUpdate(email string, userFields, addressFields, employeeFields map[string]interface{}) error

	HasRole(email, role string) (bool, error)
	CountUsersWithRole(role string) (int64, error)
	RolesExist(roles []string) (missing []string, err error)
	// ReplaceRoles swaps the role set, failing with ErrLastAdmin inside
	// its transaction when the swap would strip the last admin.
	ReplaceRoles(email string, roles []string) error

	// DeleteUser removes the user and every dependent row in one
	// transaction that also covers the existence check and the
	// last-admin guard. For employees with active assignments it applies
	// the reconciliation, or aborts and returns the blocking request ids
	// when none was chosen.
	DeleteUser(email string, reassignTo *string, unassign bool) (*internal.BlockingRequests, error)
}

// Service implements registration, profile management, deletion with
// assignment reconciliation, and role administration.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		bus:    bus,
		logger: logger,
	}
}

// Register creates the user, its details and exactly one resolved role in
// a single transaction. An employee in an unmapped department fails the
// whole registration.
func (s *Service) Register(dto RegisterDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if exists {
		return nil, internal.ErrEmailExists
	}

	var department, employeeType string
	if dto.Employee != nil {
		department = dto.Employee.Department
		employeeType = dto.Employee.EmployeeType
	}
	role, err := ResolveRole(dto.UserType, department, employeeType)
	if err != nil {
		s.logger.Error("role resolution failed",
			"email", dto.Email,
			"user_type", dto.UserType,
			"department", department)
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	reg := &Registration{
		User: &User{
			Email:      dto.Email,
			FirstName:  dto.FirstName,
			LastName:   dto.LastName,
			BirthPlace: dto.BirthPlace,
			PhoneNo:    dto.PhoneNo,
			Mobile:     dto.Mobile,
			Occupation: dto.Occupation,
			UserType:   dto.UserType,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Password: hash,
		Role:     role,
	}
	if dto.DOB != "" {
		dob, parseErr := time.Parse("2006-01-02", dto.DOB)
		if parseErr != nil {
			return nil, internal.NewValidationError("dob must be formatted YYYY-MM-DD", internal.ErrCodeValidationFailed)
		}
		reg.User.DOB = &dob
	}
	if dto.Address != nil {
		reg.Address = &Address{
			Address:    dto.Address.Address,
			Number:     dto.Address.Number,
			PostalCode: dto.Address.PostalCode,
			City:       dto.Address.City,
		}
	}
	switch dto.UserType {
	case TypePatient:
		reg.Patient = &PatientInfo{
			DiseaseType:        dto.Patient.DiseaseType,
			HandicapPercentage: *dto.Patient.HandicapPercentage,
		}
	case TypeEmployee:
		reg.Employee = &EmployeeInfo{
			EmployeeType: dto.Employee.EmployeeType,
			Department:   dto.Employee.Department,
		}
	case TypeVolunteer:
		reg.Volunteer = &VolunteerInfo{
			Occupation:   dto.Volunteer.Occupation,
			Availability: dto.Volunteer.Availability,
		}
	}

	if err := s.repo.CreateUser(reg); err != nil {
		s.logger.Error("registration failed", "email", dto.Email, "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.publish(events.EventUserRegistered, map[string]interface{}{
		"email":     dto.Email,
		"user_type": dto.UserType,
		"role":      role,
	})

	s.logger.Info("user registered", "email", dto.Email, "user_type", dto.UserType, "role", role)
	return s.GetProfile(dto.Email)
}

func (s *Service) GetProfile(email string) (*Profile, error) {
	profile, err := s.repo.GetProfile(email)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return profile, nil
}

func (s *Service) ListUsers() ([]*User, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

// UpdateProfile filters the payload through the actor's whitelist and
// applies the surviving fields. Self-updates and update_user holders may
// touch core and address fields; manage_users additionally unlocks
// user_type and employment fields.
func (s *Service) UpdateProfile(access *auth.Access, targetEmail string, payload UpdateProfileDTO) (*Profile, error) {
	isSelf := access.Email == targetEmail
	isManager := access.HasPermission(auth.PermManageUsers)
	if !isSelf && !isManager && !access.HasPermission(auth.PermUpdateUser) {
		return nil, internal.ErrForbidden
	}

	if _, err := s.repo.GetProfile(targetEmail); err != nil {
		return nil, internal.ErrUserNotFound
	}

	userFields := make(map[string]interface{})
	addressFields := make(map[string]interface{})
	employeeFields := make(map[string]interface{})

	for key, value := range payload {
		switch {
		case CoreProfileFields[key]:
			if key == "dob" {
				raw, ok := value.(string)
				if !ok {
					return nil, internal.NewValidationError("dob must be a string", internal.ErrCodeValidationFailed)
				}
				dob, err := time.Parse("2006-01-02", raw)
				if err != nil {
					return nil, internal.NewValidationError("dob must be formatted YYYY-MM-DD", internal.ErrCodeValidationFailed)
				}
				userFields["dob"] = dob
				continue
			}
			userFields[key] = value
		case AddressFields[key]:
			addressFields[key] = value
		case ManagerFields[key] && isManager:
			if key == "user_type" {
				raw, _ := value.(string)
				if !ValidUserType(raw) {
					return nil, internal.NewValidationError("user_type must be patient, volunteer or employee", internal.ErrCodeInvalidUserType)
				}
				userFields[key] = value
				continue
			}
			employeeFields[key] = value
		}
		// Everything else is dropped without error.
	}

	if len(addressFields) > 0 {
		existing, err := s.repo.GetAddress(targetEmail)
		if err != nil {
			return nil, internal.NewInternalError("failed to load address", err)
		}
		if existing == nil && len(addressFields) < len(AddressFields) {
			return nil, internal.NewValidationError(
				"creating an address requires address, number, postal_code and city",
				internal.ErrCodeIncompleteAddress)
		}
	}

	if len(userFields)+len(addressFields)+len(employeeFields) > 0 {
		if len(userFields) > 0 {
			userFields["updated_at"] = time.Now()
		}
		if err := s.repo.ApplyProfileUpdate(targetEmail, userFields, addressFields, employeeFields); err != nil {
			return nil, internal.NewInternalError("failed to update profile", err)
		}
	}

	return s.GetProfile(targetEmail)
}

// Delete removes a user account. Employees holding active assignments
// block deletion unless the caller chose a reconciliation: reassign to a
// validated employee, or unassign while keeping each request's status.
func (s *Service) Delete(access *auth.Access, targetEmail string, opts DeleteOptions) error {
	if access.Email != targetEmail && !access.HasPermission(auth.PermManageUsers) {
		return internal.ErrForbidden
	}

	// Unassignment wins when both reconciliation options are set.
	if opts.UnassignRequests {
		opts.ReassignTo = nil
	}

	if opts.ReassignTo != nil {
		if *opts.ReassignTo == targetEmail {
			return internal.NewValidationError("cannot reassign requests to the user being deleted", internal.ErrCodeValidationFailed)
		}
		target, err := s.repo.GetProfile(*opts.ReassignTo)
		if err != nil {
			return internal.NewNotFoundError("reassignment target not found", internal.ErrCodeEmployeeNotFound)
		}
		if target.UserType != TypeEmployee {
			return internal.NewValidationError("reassignment target must be an employee", internal.ErrCodeValidationFailed)
		}
	}

	// Existence and the last-admin guard run inside the delete
	// transaction; the repository surfaces them as AppErrors.
	blocking, err := s.repo.DeleteUser(targetEmail, opts.ReassignTo, opts.UnassignRequests)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		return internal.NewInternalError("failed to delete user", err)
	}
	if blocking != nil && !blocking.Empty() {
		return internal.NewConflictError(
			"user has active request assignments",
			internal.ErrCodeActiveAssignments).WithDetails(*blocking)
	}

	s.publish(events.EventUserDeleted, map[string]interface{}{
		"email":      targetEmail,
		"deleted_by": access.Email,
	})

	s.logger.Info("user deleted", "email", targetEmail, "deleted_by", access.Email)
	return nil
}

// SetRoles replaces the target's role set. Every named role must exist,
// and the last admin cannot lose the admin role.
func (s *Service) SetRoles(targetEmail string, dto SetRolesDTO) ([]string, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetProfile(targetEmail); err != nil {
		return nil, internal.ErrUserNotFound
	}

	missing, err := s.repo.RolesExist(dto.Roles)
	if err != nil {
		return nil, internal.NewInternalError("failed to check roles", err)
	}
	if len(missing) > 0 {
		return nil, internal.NewNotFoundError("unknown roles", internal.ErrCodeRoleNotFound).WithDetails(missing)
	}

	// The last-admin guard runs inside the role swap transaction.
	if err := s.repo.ReplaceRoles(targetEmail, dto.Roles); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to set roles", err)
	}

	s.publish(events.EventUserRolesSet, map[string]interface{}{
		"email": targetEmail,
		"roles": dto.Roles,
	})

	return dto.Roles, nil
}

func (s *Service) publish(eventType string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), events.NewAuditEvent(eventType, data)); err != nil {
		s.logger.Warn("audit event publish failed", "event_type", eventType, "error", err)
	}
}
