package models

import "time"

// UserRole represents the available roles on the platform.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleTechnician UserRole = "TECHNICIAN"
	RoleBusiness   UserRole = "BUSINESS"
)

// User represents a platform account stored in the users table.
//
// Verified mirrors the status of the latest verification request. It is a
// derived cache: the verification repository recomputes it inside the same
// transaction as every review, and nothing else writes it.
type User struct {
	ID                  string     `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                UserRole   `db:"role" json:"role"`
	Active              bool       `db:"active" json:"active"`
	Verified            bool       `db:"verified" json:"verified"`
	ForcePasswordChange bool       `db:"force_password_change" json:"force_password_change"`
	LastLogin           *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// TechnicianProfile holds the self-declared identity of a technician account.
type TechnicianProfile struct {
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Skills    []string  `db:"-" json:"skills"`
	SkillsRaw string    `db:"skills" json:"-"`
	Bio       *string   `db:"bio" json:"bio,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BusinessProfile holds the self-declared identity of a business account.
type BusinessProfile struct {
	UserID                 string    `db:"user_id" json:"user_id"`
	CompanyName            string    `db:"company_name" json:"company_name"`
	RegistrationIdentifier string    `db:"registration_identifier" json:"registration_identifier"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
