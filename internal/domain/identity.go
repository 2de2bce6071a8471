package domain

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RolePilot    Role = "pilot"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes a claim value; unknown values are kept lower-cased.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Identity is the caller as seen by the chat use case.
type Identity struct {
	Authenticated bool
	Role          Role
	UserID        string
}

// Anonymous is the identity of an unauthenticated visitor.
func Anonymous() Identity { return Identity{} }

// IsCustomer reports whether an authenticated caller holds the customer role.
func (i Identity) IsCustomer() bool {
	return i.Authenticated && i.Role == RoleCustomer
}
