package user

import "errors"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Role         Role   `json:"role"`
	CreatedAt    int64  `json:"createdAt"` // epoch millis
}

// Registration conflicts report the first duplicate found, username before email.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// ErrInvalidCredentials doubles as the generic "user not found" signal so a
// failed login and an unknown username look identical from the outside.
var ErrInvalidCredentials = errors.New("invalid username or password")
