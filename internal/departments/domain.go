package departments

import (
	"time"

	"github.com/google/uuid"
)

// Department is a node of the organisation structure.
type Department struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	ParentID       *uuid.UUID `json:"parentId,omitempty"`
	HeadEmployeeID *uuid.UUID `json:"headEmployeeId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// CreateInput carries a new department.
type CreateInput struct {
	Code       string `json:"code" validate:"required,max=32,alphanum"`
	Name       string `json:"name" validate:"required,max=120"`
	ParentCode string `json:"parentCode" validate:"omitempty,max=32,alphanum"`
}

// Node is a department with its sub-departments.
type Node struct {
	Department
	Children []*Node `json:"children"`
}
