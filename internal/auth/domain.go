package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/uiaccess"
)

// Identity is the stored employee account used for authentication.
type Identity struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   *string
	FirstName      string
	LastName       string
	NationalID     string
	EmployeeNumber string
	DateOfHire     time.Time
	RoleID         int64
	// RoleName is nil when the role reference no longer resolves.
	RoleName     *string
	DepartmentID *uuid.UUID
	IsActive     bool
}

// RegisterInput is the registration request body.
type RegisterInput struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	NationalID     string `json:"nationalId" validate:"required,max=64"`
	EmployeeNumber string `json:"employeeNumber" validate:"required,max=64"`
	DateOfHire     string `json:"dateOfHire" validate:"required,datetime=2006-01-02"`
	Role           string `json:"role" validate:"required"`
	// DepartmentCode is sent as departmentId for compatibility with the portal.
	DepartmentCode string `json:"departmentId" validate:"omitempty,max=32"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result is returned by register and login.
type Result struct {
	AccessToken string              `json:"access_token"`
	User        claims.SessionClaim `json:"user"`
}

// Ack acknowledges a logout.
type Ack struct {
	Message string `json:"message"`
}

// Me describes the caller for client-side rendering decisions.
type Me struct {
	User        claims.SessionClaim `json:"user"`
	Permissions []rbac.Permission   `json:"permissions"`
	Navigation  []uiaccess.Route    `json:"navigation"`
}
