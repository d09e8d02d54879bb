package entity

import "time"

// User is the identity record. Password holds a bcrypt digest, set once at
// registration; it must never be serialized to clients.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
