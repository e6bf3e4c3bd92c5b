// Package claims issues and verifies the signed, time-bounded session claims
// carried as bearer tokens.
package claims

import (
	"context"
	"time"

	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

// SessionClaim is the closed set of fields embedded in a session token.
// EmployeeID and DepartmentID are empty when absent.
type SessionClaim struct {
	Subject      string    `json:"id"`
	Email        string    `json:"email"`
	Role         rbac.Role `json:"role"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	DepartmentID string    `json:"departmentId,omitempty"`
	IssuedAt     time.Time `json:"issuedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// GetRole implements rbac.Principal.
func (c SessionClaim) GetRole() rbac.Role {
	return c.Role
}

// Expired reports whether the claim is past its expiry at now.
func (c SessionClaim) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ContextWithClaim stores the verified claim as the request principal.
func ContextWithClaim(ctx context.Context, claim SessionClaim) context.Context {
	return rbac.ContextWithPrincipal(ctx, claim)
}

// FromContext returns the verified claim stored by the authentication middleware.
func FromContext(ctx context.Context) (SessionClaim, bool) {
	p, ok := rbac.PrincipalFromContext(ctx)
	if !ok {
		return SessionClaim{}, false
	}
	claim, ok := p.(SessionClaim)
	return claim, ok
}
