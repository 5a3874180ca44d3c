package model

// UserRole represents the role of an EntrenaPro account.
type UserRole string

const (
	// RoleUser is an account with neither a client nor a trainer profile.
	RoleUser UserRole = "usuario"
	// RoleClient tracks measurements and follows routines.
	RoleClient UserRole = "cliente"
	// RoleTrainer publishes routines and plans.
	RoleTrainer UserRole = "entrenador"
	// RoleAdmin reviews and approves accounts.
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleClient, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}
