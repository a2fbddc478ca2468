package models

import (
	"time"
)

// User maps an identity to a role. The primary key is either the token the
// auth provider issued on first login ("user_..."), or a synthesized
// placeholder ("email_...") created when an admin pre-provisions someone
// who has never logged in. The reconciliation service collapses the two.
type User struct {
	ID        string    `gorm:"primaryKey;size:255" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Role      string    `gorm:"size:50;not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func (User) TableName() string {
	return "users"
}
