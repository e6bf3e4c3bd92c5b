package employees

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

// Profile is the read model of an employee. It never carries the password hash.
type Profile struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	NationalID     string     `json:"nationalId"`
	EmployeeNumber string     `json:"employeeNumber"`
	DateOfHire     time.Time  `json:"dateOfHire"`
	Role           string     `json:"role"`
	DepartmentID   *uuid.UUID `json:"departmentId,omitempty"`
	DepartmentCode string     `json:"departmentCode,omitempty"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ListFilter narrows employee listings.
type ListFilter struct {
	DepartmentCode string
	Search         string
	Page           int
	PerPage        int
}

// Page is one page of profiles.
type Page struct {
	Items      []Profile         `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}
