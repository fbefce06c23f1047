package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is a published video owned by a user.
type Video struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	VideoURL     string    `db:"video_url" json:"videoFile"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail"`
	Duration     float64   `db:"duration" json:"duration"`
	Views        int64     `db:"views" json:"views"`
	OwnerID      uuid.UUID `db:"owner_id" json:"owner"`
	IsPublished  bool      `db:"is_published" json:"isPublished"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	// Relevance is only populated by search listings.
	Relevance int `db:"-" json:"relevance,omitempty"`
}

// NewVideo creates a published Video with a fresh identifier.
func NewVideo(ownerID uuid.UUID, title, description, videoURL, thumbnailURL string, duration float64) *Video {
	now := time.Now()
	return &Video{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		OwnerID:      ownerID,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RecordView bumps the view counter by one. A negative stored count is treated
// as zero.
func (v *Video) RecordView() {
	if v.Views < 0 {
		v.Views = 0
	}
	v.Views++
	v.UpdatedAt = time.Now()
}
