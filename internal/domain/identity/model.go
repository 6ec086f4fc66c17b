// Package identity manages user accounts and credentials. Accounts are
// either doctors, who submit clinical measurements and create reports, or
// patients, who view reports created for them.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Account roles. The role is fixed at registration; there is no role change
// after the fact.
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

var validRoles = map[string]bool{
	RoleDoctor:  true,
	RolePatient: true,
}

// ValidRole reports whether s is a recognized account role.
func ValidRole(s string) bool {
	return validRoles[s]
}

// User is a registered account. PasswordHash holds the bcrypt digest of the
// password; the plaintext is never stored.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
