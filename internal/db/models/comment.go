package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a user comment on a video.
type Comment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	VideoID   uuid.UUID `db:"video_id" json:"video"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewComment creates a Comment with a fresh identifier.
func NewComment(videoID, ownerID uuid.UUID, content string) *Comment {
	now := time.Now()
	return &Comment{
		ID:        uuid.New(),
		Content:   content,
		VideoID:   videoID,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
