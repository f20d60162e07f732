package user

import "time"

// User is the persisted user row. Email is the identity key across the
// whole schema; detail and assignment tables reference it.
type User struct {
	Email        string     `json:"email" gorm:"primaryKey;column:email"`
	FirstName    string     `json:"first_name" gorm:"column:first_name;not null"`
	LastName     string     `json:"last_name" gorm:"column:last_name;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	DOB          *time.Time `json:"dob,omitempty" gorm:"column:dob;type:date"`
	BirthPlace   string     `json:"birth_place,omitempty" gorm:"column:birth_place"`
	PhoneNo      string     `json:"phone_no,omitempty" gorm:"column:phone_no"`
	Mobile       string     `json:"mobile,omitempty" gorm:"column:mobile"`
	Occupation   string     `json:"occupation,omitempty" gorm:"column:occupation"`
	UserType     string     `json:"user_type" gorm:"column:user_type;not null"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

type AddressDetail struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Email      string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Address    string    `json:"address" gorm:"column:address;not null"`
	Number     string    `json:"number" gorm:"column:number;not null"`
	PostalCode string    `json:"postal_code" gorm:"column:postal_code;not null"`
	City       string    `json:"city" gorm:"column:city;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (AddressDetail) TableName() string {
	return "address_details"
}

type PatientDetail struct {
	ID                 int64     `json:"id" gorm:"primaryKey"`
	Email              string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	DiseaseType        string    `json:"disease_type" gorm:"column:disease_type;not null"`
	HandicapPercentage int       `json:"handicap_percentage" gorm:"column:handicap_percentage;not null"`
	CreatedAt          time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (PatientDetail) TableName() string {
	return "patient_details"
}

type EmployeeDetail struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	EmployeeType string    `json:"employee_type" gorm:"column:employee_type;not null"`
	Department   string    `json:"department" gorm:"column:department;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (EmployeeDetail) TableName() string {
	return "employee_details"
}

type VolunteerDetail struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Occupation   string    `json:"occupation" gorm:"column:occupation;not null"`
	Availability string    `json:"availability,omitempty" gorm:"column:availability"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (VolunteerDetail) TableName() string {
	return "volunteer_details"
}

// Role and Permission are static reference data seeded by migrations.
type Role struct {
	Name        string    `json:"name" gorm:"primaryKey;column:role_name"`
	Description string    `json:"description" gorm:"column:description"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	Name        string    `json:"name" gorm:"primaryKey;column:permission_name"`
	Description string    `json:"description" gorm:"column:description"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

type RolePermission struct {
	ID             int64  `json:"id" gorm:"primaryKey"`
	RoleName       string `json:"role_name" gorm:"column:role_name;index;not null"`
	PermissionName string `json:"permission_name" gorm:"column:permission_name;not null"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type UserRole struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"column:email;index;not null"`
	RoleName  string    `json:"role_name" gorm:"column:role_name;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
