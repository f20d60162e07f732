package postgres

import (
	"time"

	"gorm.io/gorm"

	internal "github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	requestDatamodel "github.com/caredesk/case-management/internal/core/datamodel/request"
	userDatamodel "github.com/caredesk/case-management/internal/core/datamodel/user"
	"github.com/caredesk/case-management/internal/request"
	"github.com/caredesk/case-management/internal/user"
)

// UserRepository implements user.Repository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser writes the user row, the optional address, the type details
// and the resolved role in one transaction.
func (r *UserRepository) CreateUser(reg *user.Registration) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		row := &userDatamodel.User{
			Email:        reg.User.Email,
			FirstName:    reg.User.FirstName,
			LastName:     reg.User.LastName,
			PasswordHash: reg.Password,
			DOB:          reg.User.DOB,
			BirthPlace:   reg.User.BirthPlace,
			PhoneNo:      reg.User.PhoneNo,
			Mobile:       reg.User.Mobile,
			Occupation:   reg.User.Occupation,
			UserType:     reg.User.UserType,
			CreatedAt:    reg.User.CreatedAt,
			UpdatedAt:    reg.User.UpdatedAt,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		if reg.Address != nil {
			address := &userDatamodel.AddressDetail{
				Email:      reg.User.Email,
				Address:    reg.Address.Address,
				Number:     reg.Address.Number,
				PostalCode: reg.Address.PostalCode,
				City:       reg.Address.City,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(address).Error; err != nil {
				return err
			}
		}

		switch {
		case reg.Patient != nil:
			detail := &userDatamodel.PatientDetail{
				Email:              reg.User.Email,
				DiseaseType:        reg.Patient.DiseaseType,
				HandicapPercentage: reg.Patient.HandicapPercentage,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
		case reg.Employee != nil:
			detail := &userDatamodel.EmployeeDetail{
				Email:        reg.User.Email,
				EmployeeType: reg.Employee.EmployeeType,
				Department:   reg.Employee.Department,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
		case reg.Volunteer != nil:
			detail := &userDatamodel.VolunteerDetail{
				Email:        reg.User.Email,
				Occupation:   reg.Volunteer.Occupation,
				Availability: reg.Volunteer.Availability,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
		}

		return tx.Create(&userDatamodel.UserRole{
			Email:     reg.User.Email,
			RoleName:  reg.Role,
			CreatedAt: now,
		}).Error
	})
}

func (r *UserRepository) GetProfile(email string) (*user.Profile, error) {
	var row userDatamodel.User
	if err := r.db.Where("email = ?", email).First(&row).Error; err != nil {
		return nil, err
	}

	profile := &user.Profile{
		User: user.User{
			Email:      row.Email,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			DOB:        row.DOB,
			BirthPlace: row.BirthPlace,
			PhoneNo:    row.PhoneNo,
			Mobile:     row.Mobile,
			Occupation: row.Occupation,
			UserType:   row.UserType,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
		},
		Roles: []string{},
	}

	var address userDatamodel.AddressDetail
	if err := r.db.Where("email = ?", email).First(&address).Error; err == nil {
		profile.Address = &user.Address{
			Address:    address.Address,
			Number:     address.Number,
			PostalCode: address.PostalCode,
			City:       address.City,
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	switch row.UserType {
	case user.TypePatient:
		var detail userDatamodel.PatientDetail
		if err := r.db.Where("email = ?", email).First(&detail).Error; err == nil {
			profile.Patient = &user.PatientInfo{
				DiseaseType:        detail.DiseaseType,
				HandicapPercentage: detail.HandicapPercentage,
			}
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	case user.TypeEmployee:
		var detail userDatamodel.EmployeeDetail
		if err := r.db.Where("email = ?", email).First(&detail).Error; err == nil {
			profile.Employee = &user.EmployeeInfo{
				EmployeeType: detail.EmployeeType,
				Department:   detail.Department,
			}
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	case user.TypeVolunteer:
		var detail userDatamodel.VolunteerDetail
		if err := r.db.Where("email = ?", email).First(&detail).Error; err == nil {
			profile.Volunteer = &user.VolunteerInfo{
				Occupation:   detail.Occupation,
				Availability: detail.Availability,
			}
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	rows, err := r.db.Raw(`SELECT role_name FROM user_roles WHERE email = ?`, email).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		profile.Roles = append(profile.Roles, role)
	}

	return profile, rows.Err()
}

func (r *UserRepository) ListUsers() ([]*user.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, len(rows))
	for i, row := range rows {
		users[i] = &user.User{
			Email:      row.Email,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			DOB:        row.DOB,
			BirthPlace: row.BirthPlace,
			PhoneNo:    row.PhoneNo,
			Mobile:     row.Mobile,
			Occupation: row.Occupation,
			UserType:   row.UserType,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
		}
	}
	return users, nil
}

// ApplyProfileUpdate writes the filtered user, address and employee field
// maps in one transaction, so a failing write leaves no partial update
// behind.
func (r *UserRepository) ApplyProfileUpdate(email string, userFields, addressFields, employeeFields map[string]interface{}) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(userFields) > 0 {
			if err := tx.Model(&userDatamodel.User{}).
				Where("email = ?", email).
				Updates(userFields).Error; err != nil {
				return err
			}
		}

		if len(addressFields) > 0 {
			if err := upsertAddress(tx, email, addressFields); err != nil {
				return err
			}
		}

		if len(employeeFields) > 0 {
			employeeFields["updated_at"] = time.Now()
			if err := tx.Model(&userDatamodel.EmployeeDetail{}).
				Where("email = ?", email).
				Updates(employeeFields).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *UserRepository) GetAddress(email string) (*user.Address, error) {
	var row userDatamodel.AddressDetail
	err := r.db.Where("email = ?", email).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user.Address{
		Address:    row.Address,
		Number:     row.Number,
		PostalCode: row.PostalCode,
		City:       row.City,
	}, nil
}

func upsertAddress(tx *gorm.DB, email string, fields map[string]interface{}) error {
	var count int64
	if err := tx.Model(&userDatamodel.AddressDetail{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		now := time.Now()
		row := &userDatamodel.AddressDetail{
			Email:      email,
			Address:    stringField(fields, "address"),
			Number:     stringField(fields, "number"),
			PostalCode: stringField(fields, "postal_code"),
			City:       stringField(fields, "city"),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Create(row).Error
	}

	fields["updated_at"] = time.Now()
	return tx.Model(&userDatamodel.AddressDetail{}).
		Where("email = ?", email).
		Updates(fields).Error
}

func (r *UserRepository) HasRole(email, role string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.UserRole{}).
		Where("email = ? AND role_name = ?", email, role).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) CountUsersWithRole(role string) (int64, error) {
	var count int64
	err := r.db.Model(&userDatamodel.UserRole{}).
		Where("role_name = ?", role).
		Count(&count).Error
	return count, err
}

func (r *UserRepository) RolesExist(roles []string) ([]string, error) {
	rows, err := r.db.Model(&userDatamodel.Role{}).
		Where("role_name IN ?", roles).
		Select("role_name").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]bool, len(roles))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, role := range roles {
		if !found[role] {
			missing = append(missing, role)
		}
	}
	return missing, nil
}

// ReplaceRoles swaps the target's role set. The last-admin guard runs in
// the same transaction as the swap so two concurrent demotions cannot
// both strip the admin role.
func (r *UserRepository) ReplaceRoles(email string, roles []string) error {
	keepsAdmin := false
	for _, role := range roles {
		if role == auth.RoleAdmin {
			keepsAdmin = true
			break
		}
	}

	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if !keepsAdmin {
			if err := guardLastAdmin(tx, email); err != nil {
				return err
			}
		}

		if err := tx.Where("email = ?", email).Delete(&userDatamodel.UserRole{}).Error; err != nil {
			return err
		}
		for _, role := range roles {
			if err := tx.Create(&userDatamodel.UserRole{
				Email:     email,
				RoleName:  role,
				CreatedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUser runs the existence check, the last-admin guard, the
// assignment reconciliation and the delete in one transaction, so no
// concurrent delete or assignment can slip in between the checks and the
// removal.
func (r *UserRepository) DeleteUser(email string, reassignTo *string, unassign bool) (*internal.BlockingRequests, error) {
	var blocking *internal.BlockingRequests

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var row userDatamodel.User
		if err := tx.Where("email = ?", email).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return internal.ErrUserNotFound
			}
			return err
		}

		if err := guardLastAdmin(tx, email); err != nil {
			return err
		}

		supportIDs, err := activeIDs(tx, "support_requests", email)
		if err != nil {
			return err
		}
		anonymousIDs, err := activeIDs(tx, "anonymous_requests", email)
		if err != nil {
			return err
		}

		if len(supportIDs) > 0 || len(anonymousIDs) > 0 {
			switch {
			case unassign:
				now := time.Now()
				if err := clearAssignee(tx, &requestDatamodel.SupportRequest{}, supportIDs, now); err != nil {
					return err
				}
				if err := clearAssignee(tx, &requestDatamodel.AnonymousRequest{}, anonymousIDs, now); err != nil {
					return err
				}
			case reassignTo != nil:
				now := time.Now()
				if err := reconcileAssignee(tx, &requestDatamodel.SupportRequest{}, supportIDs, *reassignTo, now); err != nil {
					return err
				}
				if err := reconcileAssignee(tx, &requestDatamodel.AnonymousRequest{}, anonymousIDs, *reassignTo, now); err != nil {
					return err
				}
			default:
				blocking = &internal.BlockingRequests{
					SupportRequestIDs:   supportIDs,
					AnonymousRequestIDs: anonymousIDs,
				}
				return nil
			}
		}

		for _, model := range []interface{}{
			&userDatamodel.AddressDetail{},
			&userDatamodel.PatientDetail{},
			&userDatamodel.EmployeeDetail{},
			&userDatamodel.VolunteerDetail{},
			&userDatamodel.UserRole{},
		} {
			if err := tx.Where("email = ?", email).Delete(model).Error; err != nil {
				return err
			}
		}

		return tx.Where("email = ?", email).Delete(&userDatamodel.User{}).Error
	})

	if err != nil {
		return nil, err
	}
	return blocking, nil
}

// guardLastAdmin fails with ErrLastAdmin when email holds the admin role
// and no other admin would remain.
func guardLastAdmin(tx *gorm.DB, email string) error {
	var holdsAdmin int64
	err := tx.Model(&userDatamodel.UserRole{}).
		Where("email = ? AND role_name = ?", email, auth.RoleAdmin).
		Count(&holdsAdmin).Error
	if err != nil {
		return err
	}
	if holdsAdmin == 0 {
		return nil
	}

	var admins int64
	err = tx.Model(&userDatamodel.UserRole{}).
		Where("role_name = ?", auth.RoleAdmin).
		Count(&admins).Error
	if err != nil {
		return err
	}
	if admins <= 1 {
		return internal.ErrLastAdmin
	}
	return nil
}

func activeIDs(tx *gorm.DB, table, email string) ([]int64, error) {
	rows, err := tx.Table(table).
		Where("assigned_employee_email = ? AND status IN ?", email, request.ActiveStatuses).
		Select("request_id").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func reconcileAssignee(tx *gorm.DB, model interface{}, ids []int64, assignee string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(model).
		Where("request_id IN ?", ids).
		Updates(map[string]interface{}{
			"assigned_employee_email": assignee,
			"updated_at":              now,
		}).Error
}

// clearAssignee nulls the assignee while keeping each request's status.
func clearAssignee(tx *gorm.DB, model interface{}, ids []int64, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(model).
		Where("request_id IN ?", ids).
		Updates(map[string]interface{}{
			"assigned_employee_email": nil,
			"updated_at":              now,
		}).Error
}

func stringField(fields map[string]interface{}, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}
