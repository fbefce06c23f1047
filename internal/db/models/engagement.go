package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubjectKind names the kind of entity an engagement record points at.
type SubjectKind string

// Subject kinds.
const (
	SubjectVideo   SubjectKind = "video"
	SubjectComment SubjectKind = "comment"
	SubjectTweet   SubjectKind = "tweet"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectVideo, SubjectComment, SubjectTweet:
		return true
	}
	return false
}

// Label is the capitalised kind used in user-facing messages.
func (k SubjectKind) Label() string {
	switch k {
	case SubjectVideo:
		return "Video"
	case SubjectComment:
		return "Comment"
	case SubjectTweet:
		return "Tweet"
	}
	return "Content"
}

// SubjectRef points at exactly one video, comment or tweet.
type SubjectRef struct {
	Kind SubjectKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

func (s SubjectRef) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// EngagementState is the persisted like/dislike code.
type EngagementState int16

// Persisted states, plus the StateNone sentinel reported for viewers without
// a record. StateNone is never stored.
const (
	StateLiked    EngagementState = 1
	StateDisliked EngagementState = 2
	StateNone     EngagementState = 3
)

// Valid reports whether s can be stored.
func (s EngagementState) Valid() bool {
	return s == StateLiked || s == StateDisliked
}

func (s EngagementState) String() string {
	switch s {
	case StateLiked:
		return "liked"
	case StateDisliked:
		return "disliked"
	case StateNone:
		return "none"
	}
	return fmt.Sprintf("state(%d)", int16(s))
}

// Engagement is one actor's like or dislike on one subject.
type Engagement struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Subject   SubjectRef      `db:"-" json:"subject"`
	LikedBy   uuid.UUID       `db:"liked_by" json:"likedBy"`
	State     EngagementState `db:"state" json:"state"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewEngagement creates an Engagement with a fresh identifier.
func NewEngagement(subject SubjectRef, actor uuid.UUID, state EngagementState) *Engagement {
	now := time.Now()
	return &Engagement{
		ID:        uuid.New(),
		Subject:   subject,
		LikedBy:   actor,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EngagementCounts holds the like and dislike totals for a subject.
type EngagementCounts struct {
	Liked    int64 `json:"likedCount"`
	Disliked int64 `json:"dislikedCount"`
}
