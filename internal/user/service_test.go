package user_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/core/events"
	"github.com/caredesk/case-management/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type mockHasher struct{}

func (mockHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

// Mock repository for testing
type mockUserRepository struct {
	profiles      map[string]*user.Profile
	registrations []*user.Registration
	roles         map[string][]string
	knownRoles    map[string]bool
	blocking      *internal.BlockingRequests
	deleteCalls   []deleteCall
	updatedUser   map[string]interface{}
	updatedEmp    map[string]interface{}
	address       map[string]*user.Address
	upserts       []map[string]interface{}
	createError   error
	updateError   error
}

type deleteCall struct {
	email      string
	reassignTo *string
	unassign   bool
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		profiles: make(map[string]*user.Profile),
		roles:    make(map[string][]string),
		knownRoles: map[string]bool{
			"admin": true, "therapist": true, "social_worker": true,
			"secretary": true, "volunteer": true, "patient": true, "viewer": true,
		},
		address: make(map[string]*user.Address),
	}
}

func (m *mockUserRepository) seed(email string, roles ...string) {
	m.profiles[email] = &user.Profile{User: user.User{Email: email, UserType: user.TypeEmployee}, Roles: roles}
	m.roles[email] = roles
}

func (m *mockUserRepository) seedPatient(email string) {
	m.profiles[email] = &user.Profile{User: user.User{Email: email, UserType: user.TypePatient}, Roles: []string{"patient"}}
	m.roles[email] = []string{"patient"}
}

func (m *mockUserRepository) EmailExists(email string) (bool, error) {
	_, exists := m.profiles[email]
	return exists, nil
}

func (m *mockUserRepository) CreateUser(reg *user.Registration) error {
	if m.createError != nil {
		return m.createError
	}
	m.registrations = append(m.registrations, reg)
	m.profiles[reg.User.Email] = &user.Profile{
		User:      *reg.User,
		Address:   reg.Address,
		Patient:   reg.Patient,
		Employee:  reg.Employee,
		Volunteer: reg.Volunteer,
		Roles:     []string{reg.Role},
	}
	m.roles[reg.User.Email] = []string{reg.Role}
	return nil
}

func (m *mockUserRepository) GetProfile(email string) (*user.Profile, error) {
	profile, exists := m.profiles[email]
	if !exists {
		return nil, errors.New("user not found")
	}
	return profile, nil
}

func (m *mockUserRepository) ListUsers() ([]*user.User, error) {
	users := make([]*user.User, 0, len(m.profiles))
	for _, profile := range m.profiles {
		u := profile.User
		users = append(users, &u)
	}
	return users, nil
}

func (m *mockUserRepository) GetAddress(email string) (*user.Address, error) {
	return m.address[email], nil
}

// ApplyProfileUpdate records the applied maps, or none of them when the
// simulated transaction fails.
func (m *mockUserRepository) ApplyProfileUpdate(email string, userFields, addressFields, employeeFields map[string]interface{}) error {
	if m.updateError != nil {
		return m.updateError
	}
	if len(userFields) > 0 {
		m.updatedUser = userFields
	}
	if len(addressFields) > 0 {
		m.upserts = append(m.upserts, addressFields)
	}
	if len(employeeFields) > 0 {
		m.updatedEmp = employeeFields
	}
	return nil
}

func (m *mockUserRepository) HasRole(email, role string) (bool, error) {
	for _, r := range m.roles[email] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) CountUsersWithRole(role string) (int64, error) {
	var count int64
	for _, roles := range m.roles {
		for _, r := range roles {
			if r == role {
				count++
			}
		}
	}
	return count, nil
}

func (m *mockUserRepository) RolesExist(roles []string) ([]string, error) {
	var missing []string
	for _, role := range roles {
		if !m.knownRoles[role] {
			missing = append(missing, role)
		}
	}
	return missing, nil
}

// ReplaceRoles mirrors the repository contract: the last-admin guard runs
// with the swap.
func (m *mockUserRepository) ReplaceRoles(email string, roles []string) error {
	keepsAdmin := false
	for _, role := range roles {
		if role == "admin" {
			keepsAdmin = true
			break
		}
	}
	if !keepsAdmin {
		if err := m.guardLastAdmin(email); err != nil {
			return err
		}
	}
	m.roles[email] = roles
	return nil
}

// DeleteUser mirrors the repository contract: existence and the
// last-admin guard are checked with the delete.
func (m *mockUserRepository) DeleteUser(email string, reassignTo *string, unassign bool) (*internal.BlockingRequests, error) {
	if _, exists := m.profiles[email]; !exists {
		return nil, internal.ErrUserNotFound
	}
	if err := m.guardLastAdmin(email); err != nil {
		return nil, err
	}
	m.deleteCalls = append(m.deleteCalls, deleteCall{email: email, reassignTo: reassignTo, unassign: unassign})
	if m.blocking != nil && reassignTo == nil && !unassign {
		return m.blocking, nil
	}
	delete(m.profiles, email)
	delete(m.roles, email)
	return nil, nil
}

func (m *mockUserRepository) guardLastAdmin(email string) error {
	holdsAdmin, _ := m.HasRole(email, "admin")
	if !holdsAdmin {
		return nil
	}
	admins, _ := m.CountUsersWithRole("admin")
	if admins <= 1 {
		return internal.ErrLastAdmin
	}
	return nil
}

func intPtr(v int) *int { return &v }

var _ = Describe("UserService", func() {
	var (
		mockRepo    *mockUserRepository
		userService *user.Service
		logger      *slog.Logger
	)

	adminAccess := &auth.Access{
		Email:       "admin@example.com",
		Roles:       []string{auth.RoleAdmin},
		Permissions: []string{auth.PermManageUsers, auth.PermUpdateUser},
	}

	BeforeEach(func() {
		mockRepo = newMockUserRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		userService = user.NewService(mockRepo, mockHasher{}, bus, logger)
	})

	patientDTO := func() user.RegisterDTO {
		return user.RegisterDTO{
			Email:     "patient@example.com",
			Password:  "password123",
			FirstName: "Anna",
			LastName:  "Pappa",
			UserType:  user.TypePatient,
			Patient: &user.PatientDetailsDTO{
				DiseaseType:        "chronic",
				HandicapPercentage: intPtr(40),
			},
		}
	}

	Describe("Register", func() {
		It("registers a patient with the patient role", func() {
			profile, err := userService.Register(patientDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Roles).To(Equal([]string{"patient"}))
			Expect(profile.Patient.HandicapPercentage).To(Equal(40))
			Expect(mockRepo.registrations).To(HaveLen(1))
			Expect(mockRepo.registrations[0].Password).To(Equal("hashed:password123"))
		})

		It("rejects a duplicate email", func() {
			mockRepo.seed("patient@example.com", "patient")

			_, err := userService.Register(patientDTO())

			Expect(err).To(Equal(internal.ErrEmailExists))
		})

		It("rejects a handicap percentage out of range", func() {
			dto := patientDTO()
			dto.Patient.HandicapPercentage = intPtr(120)

			_, err := userService.Register(dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("maps departments to employee roles", func() {
			cases := map[string]string{
				user.DeptPsychologicalServices: "therapist",
				user.DeptSocialServices:        "social_worker",
				user.DeptAdministration:        "secretary",
				user.DeptManagement:            "viewer",
			}

			for dept, expected := range cases {
				dto := user.RegisterDTO{
					Email:     "emp" + expected + "@example.com",
					Password:  "password123",
					FirstName: "E",
					LastName:  "M",
					UserType:  user.TypeEmployee,
					Employee: &user.EmployeeDetailsDTO{
						EmployeeType: "full_time",
						Department:   dept,
					},
				}

				profile, err := userService.Register(dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(profile.Roles).To(Equal([]string{expected}))
			}
		})

		It("resolves board members to viewer before the department", func() {
			dto := user.RegisterDTO{
				Email:     "board@example.com",
				Password:  "password123",
				FirstName: "B",
				LastName:  "M",
				UserType:  user.TypeEmployee,
				Employee: &user.EmployeeDetailsDTO{
					EmployeeType: user.EmployeeTypeBoardMember,
					Department:   user.DeptPsychologicalServices,
				},
			}

			profile, err := userService.Register(dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Roles).To(Equal([]string{"viewer"}))
		})

		It("fails with an internal error for an unmapped department", func() {
			dto := user.RegisterDTO{
				Email:     "lost@example.com",
				Password:  "password123",
				FirstName: "L",
				LastName:  "T",
				UserType:  user.TypeEmployee,
				Employee: &user.EmployeeDetailsDTO{
					EmployeeType: "full_time",
					Department:   "catering",
				},
			}

			_, err := userService.Register(dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(mockRepo.registrations).To(BeEmpty())
		})

		It("requires all four address fields when an address is given", func() {
			dto := patientDTO()
			dto.Address = &user.AddressDTO{Address: "Main St", Number: "5"}

			_, err := userService.Register(dto)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateProfile", func() {
		BeforeEach(func() {
			mockRepo.seed("target@example.com", "patient")
		})

		It("denies an unrelated caller without permissions", func() {
			access := &auth.Access{Email: "stranger@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"first_name": "New",
			})

			Expect(err).To(Equal(internal.ErrForbidden))
		})

		It("lets a user update their own core fields", func() {
			access := &auth.Access{Email: "target@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"first_name": "New",
				"mobile":     "6911111111",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.updatedUser).To(HaveKeyWithValue("first_name", "New"))
			Expect(mockRepo.updatedUser).To(HaveKeyWithValue("mobile", "6911111111"))
		})

		It("silently drops unknown keys", func() {
			access := &auth.Access{Email: "target@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"first_name": "New",
				"email":      "evil@example.com",
				"is_admin":   true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.updatedUser).NotTo(HaveKey("email"))
			Expect(mockRepo.updatedUser).NotTo(HaveKey("is_admin"))
		})

		It("ignores manager fields for a non-manager caller", func() {
			access := &auth.Access{Email: "target@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"department": "administration",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.updatedEmp).To(BeNil())
		})

		It("applies employment fields for a manager", func() {
			_, err := userService.UpdateProfile(adminAccess, "target@example.com", user.UpdateProfileDTO{
				"department":    "administration",
				"employee_type": "part_time",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.updatedEmp).To(HaveKeyWithValue("department", "administration"))
		})

		It("rejects an invalid user_type from a manager", func() {
			_, err := userService.UpdateProfile(adminAccess, "target@example.com", user.UpdateProfileDTO{
				"user_type": "alien",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidUserType))
		})

		It("updates an existing address with a partial payload", func() {
			mockRepo.address["target@example.com"] = &user.Address{Address: "Old", Number: "1", PostalCode: "11111", City: "Athens"}
			access := &auth.Access{Email: "target@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"city": "Patras",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.upserts).To(HaveLen(1))
		})

		It("refuses to create an address from a partial payload", func() {
			access := &auth.Access{Email: "target@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"city": "Patras",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeIncompleteAddress))
		})

		It("applies nothing when the combined update fails", func() {
			mockRepo.address["target@example.com"] = &user.Address{Address: "Old", Number: "1", PostalCode: "11111", City: "Athens"}
			mockRepo.updateError = errors.New("write failed")
			access := &auth.Access{Email: "target@example.com"}

			_, err := userService.UpdateProfile(access, "target@example.com", user.UpdateProfileDTO{
				"first_name": "Changed",
				"city":       "Patras",
			})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.updatedUser).To(BeNil())
			Expect(mockRepo.upserts).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			mockRepo.seed("admin@example.com", "admin")
			mockRepo.seed("worker@example.com", "social_worker")
		})

		It("denies an unrelated caller", func() {
			access := &auth.Access{Email: "stranger@example.com"}

			err := userService.Delete(access, "worker@example.com", user.DeleteOptions{})

			Expect(err).To(Equal(internal.ErrForbidden))
		})

		It("allows self deletion", func() {
			access := &auth.Access{Email: "worker@example.com"}

			Expect(userService.Delete(access, "worker@example.com", user.DeleteOptions{})).To(Succeed())
			Expect(mockRepo.profiles).NotTo(HaveKey("worker@example.com"))
		})

		It("refuses to delete the last administrator", func() {
			err := userService.Delete(adminAccess, "admin@example.com", user.DeleteOptions{})

			Expect(err).To(Equal(internal.ErrLastAdmin))
		})

		It("deletes an admin when another admin remains", func() {
			mockRepo.seed("admin2@example.com", "admin")

			Expect(userService.Delete(adminAccess, "admin2@example.com", user.DeleteOptions{})).To(Succeed())
		})

		It("returns the blocking request ids when assignments are active", func() {
			mockRepo.blocking = &internal.BlockingRequests{
				SupportRequestIDs:   []int64{3, 9},
				AnonymousRequestIDs: []int64{4},
			}

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeActiveAssignments))
			details, ok := appErr.Details.(internal.BlockingRequests)
			Expect(ok).To(BeTrue())
			Expect(details.SupportRequestIDs).To(Equal([]int64{3, 9}))
		})

		It("reassigns active requests to a validated employee", func() {
			mockRepo.seed("other@example.com", "social_worker")
			mockRepo.blocking = &internal.BlockingRequests{SupportRequestIDs: []int64{3}}
			target := "other@example.com"

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{ReassignTo: &target})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.deleteCalls).To(HaveLen(1))
			Expect(*mockRepo.deleteCalls[0].reassignTo).To(Equal("other@example.com"))
		})

		It("rejects reassignment to the user being deleted", func() {
			target := "worker@example.com"

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{ReassignTo: &target})

			Expect(err).To(HaveOccurred())
		})

		It("rejects reassignment to an unknown employee", func() {
			target := "ghost@example.com"

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{ReassignTo: &target})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeNotFound))
		})

		It("rejects a reassignment target who is not an employee", func() {
			mockRepo.seedPatient("frail@example.com")
			target := "frail@example.com"

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{ReassignTo: &target})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(mockRepo.deleteCalls).To(BeEmpty())
		})

		It("fails with not found for a missing user", func() {
			err := userService.Delete(adminAccess, "ghost@example.com", user.DeleteOptions{})

			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("unassigns active requests when asked", func() {
			mockRepo.blocking = &internal.BlockingRequests{SupportRequestIDs: []int64{3}}

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{UnassignRequests: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.deleteCalls[0].unassign).To(BeTrue())
		})

		It("prefers unassignment when both reconciliation options are set", func() {
			mockRepo.seed("other@example.com", "social_worker")
			mockRepo.blocking = &internal.BlockingRequests{SupportRequestIDs: []int64{3}}
			target := "other@example.com"

			err := userService.Delete(adminAccess, "worker@example.com", user.DeleteOptions{
				ReassignTo:       &target,
				UnassignRequests: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.deleteCalls[0].unassign).To(BeTrue())
			Expect(mockRepo.deleteCalls[0].reassignTo).To(BeNil())
		})
	})

	Describe("SetRoles", func() {
		BeforeEach(func() {
			mockRepo.seed("admin@example.com", "admin")
			mockRepo.seed("worker@example.com", "social_worker")
		})

		It("replaces the role set", func() {
			roles, err := userService.SetRoles("worker@example.com", user.SetRolesDTO{
				Roles: []string{"social_worker", "secretary"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(Equal([]string{"social_worker", "secretary"}))
			Expect(mockRepo.roles["worker@example.com"]).To(Equal([]string{"social_worker", "secretary"}))
		})

		It("rejects unknown roles", func() {
			_, err := userService.SetRoles("worker@example.com", user.SetRolesDTO{
				Roles: []string{"wizard"},
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRoleNotFound))
		})

		It("refuses to strip admin from the last administrator", func() {
			_, err := userService.SetRoles("admin@example.com", user.SetRolesDTO{
				Roles: []string{"viewer"},
			})

			Expect(err).To(Equal(internal.ErrLastAdmin))
		})

		It("allows stripping admin when another admin remains", func() {
			mockRepo.seed("admin2@example.com", "admin")

			_, err := userService.SetRoles("admin@example.com", user.SetRolesDTO{
				Roles: []string{"viewer"},
			})

			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an empty role list", func() {
			_, err := userService.SetRoles("worker@example.com", user.SetRolesDTO{})

			Expect(err).To(HaveOccurred())
		})
	})
})
