package models

import "github.com/golang-jwt/jwt/v5"

// OperatorRole distinguishes what an API caller is allowed to do against
// the scheduler HTTP surface. The engine itself has no notion of users —
// this exists purely to gate the HTTP collaborator layer (spec.md §6 the
// core's only contract is structured ingestion/egress).
type OperatorRole string

const (
	RoleAdmin   OperatorRole = "admin"
	RolePlanner OperatorRole = "planner"
	RoleViewer  OperatorRole = "viewer"
)

// OperatorClaims is the JWT payload issued to API callers. Tokens are
// self-contained and stateless: there is no session store or user
// repository behind them, only the signing secret.
type OperatorClaims struct {
	OperatorID string       `json:"operatorId"`
	Role       OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

// CanMutate reports whether the role may call the mutating endpoints
// (generate, relaxation apply, partial, conflict resolution, adjust, export).
func (c OperatorClaims) CanMutate() bool {
	return c.Role == RoleAdmin || c.Role == RolePlanner
}
