package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform account. A user's channel is identified by the user id.
type User struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Username     string      `db:"username" json:"username"`
	Email        string      `db:"email" json:"email"`
	FullName     string      `db:"full_name" json:"fullName"`
	AvatarURL    string      `db:"avatar_url" json:"avatar"`
	WatchHistory []uuid.UUID `db:"watch_history" json:"watchHistory"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}
