package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role представляет роль пользователя на маркетплейсе
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// User представляет пользователя в системе
type User struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Email               string     `json:"email" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"` // не возвращаем в JSON
	Name                string     `json:"name" db:"name"`
	Role                Role       `json:"role" db:"role"`
	IsVerified          bool       `json:"is_verified" db:"is_verified"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	VerificationToken   string     `json:"-" db:"verification_token"`
	ResetToken          string     `json:"-" db:"reset_token"`
	ResetTokenExpiresAt *time.Time `json:"-" db:"reset_token_expires_at"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// PublicUser - поля пользователя, которые отдаются клиенту
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

// Public возвращает открытую проекцию пользователя
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// BlacklistedToken хранит токены, отозванные при logout.
// Запись с неистёкшим expires_at делает токен недействительным,
// даже если его подпись корректна.
type BlacklistedToken struct {
	ID        int       `json:"id" db:"id"`
	Token     string    `json:"token" db:"token"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
