package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an authenticated employee or administrator
type User struct {
	BaseModel
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Email       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName   string         `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName    string         `gorm:"type:varchar(100);not null" json:"last_name" validate:"required,max=100"`
	PhoneNumber string         `gorm:"type:varchar(20)" json:"phone_number"`
	RoleID      *uint          `gorm:"index" json:"role_id"`
	Role        *Role          `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`

	// The bootstrap administrator; only this account may grant or revoke the admin role.
	IsPrimaryAdmin bool `gorm:"default:false" json:"is_primary_admin"`

	IsAdminRequestPending bool       `gorm:"default:false;index" json:"is_admin_request_pending"`
	AdminRequestedAt      *time.Time `json:"admin_requested_at,omitempty"`

	Privileges   []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`
	TokenVersion string      `gorm:"type:varchar(255);default:''" json:"-"` // single session
	LastSeenAt   *time.Time  `json:"last_seen_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin requires the Role association to be loaded.
func (u *User) IsAdmin() bool {
	return u.Role != nil && u.Role.Code == RoleAdmin
}

func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

func (u *User) HasPrivilege(code string) bool {
	for _, p := range u.Privileges {
		if p.Code == code {
			return true
		}
	}
	return false
}

func (u *User) GetPrivilegeCodes() []string {
	codes := make([]string, len(u.Privileges))
	for i, p := range u.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// UserResponse is the API view of a user, without secrets
type UserResponse struct {
	ID                    uuid.UUID   `json:"id"`
	Email                 string      `json:"email"`
	FirstName             string      `json:"first_name"`
	LastName              string      `json:"last_name"`
	FullName              string      `json:"full_name"`
	PhoneNumber           string      `json:"phone_number"`
	RoleID                *uint       `json:"role_id,omitempty"`
	Role                  *Role       `json:"role,omitempty"`
	IsActive              bool        `json:"is_active"`
	IsPrimaryAdmin        bool        `json:"is_primary_admin"`
	IsAdminRequestPending bool        `json:"is_admin_request_pending"`
	AdminRequestedAt      *time.Time  `json:"admin_requested_at,omitempty"`
	LastSeenAt            *time.Time  `json:"last_seen_at,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
	Privileges            []Privilege `json:"privileges"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Email:                 u.Email,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		FullName:              u.FullName(),
		PhoneNumber:           u.PhoneNumber,
		RoleID:                u.RoleID,
		Role:                  u.Role,
		IsActive:              u.IsActive,
		IsPrimaryAdmin:        u.IsPrimaryAdmin,
		IsAdminRequestPending: u.IsAdminRequestPending,
		AdminRequestedAt:      u.AdminRequestedAt,
		LastSeenAt:            u.LastSeenAt,
		CreatedAt:             u.CreatedAt,
		Privileges:            u.Privileges,
	}
}
