package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User representa un usuario del sistema (login por email).
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string // admin, user
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin indica si el usuario puede ver y administrar recursos de otros usuarios.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
