package postgres

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Repository backs both the auth service (credential lookup) and the
// permission resolver (role/permission lookups).
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userType string
	query := `SELECT password_hash, user_type FROM users WHERE email = ?`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&passwordHash, &userType); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userType, nil
}

func (r *Repository) GetUserType(email string) (string, error) {
	var userType string
	row := r.db.Raw(`SELECT user_type FROM users WHERE email = ?`, email).Row()
	if err := row.Scan(&userType); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("user not found")
		}
		return "", err
	}
	return userType, nil
}

func (r *Repository) ListRoles(email string) ([]string, error) {
	rows, err := r.db.Raw(`SELECT role_name FROM user_roles WHERE email = ?`, email).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListPermissions unions the permission sets of every role the user holds.
func (r *Repository) ListPermissions(email string) ([]string, error) {
	query := `SELECT rp.permission_name
	            FROM role_permissions rp
	            JOIN user_roles ur ON rp.role_name = ur.role_name
	           WHERE ur.email = ?`

	rows, err := r.db.Raw(query, email).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var permission string
		if err := rows.Scan(&permission); err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	return permissions, rows.Err()
}
