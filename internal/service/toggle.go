package service

import (
	"errors"
	"fmt"

	"github.com/vidshare/engagement-engine/internal/db/models"
)

// Action is the single store mutation a toggle performed.
type Action string

// Toggle actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// maxRaceRetries is how many times a toggle re-reads and re-evaluates after
// losing a concurrent write race before reporting Conflict.
const maxRaceRetries = 1

// errLostRace marks a conditional write that matched nothing because another
// request changed the same row first.
var errLostRace = errors.New("lost concurrent write race")

func lostRace(err error) error {
	return fmt.Errorf("%w: %v", errLostRace, err)
}

// ToggleResult reports the outcome of a toggle call.
type ToggleResult struct {
	// State is the persisted state after the call, or models.StateNone when
	// the record was removed. Subscription toggles leave it zero.
	State   models.EngagementState `json:"state,omitempty"`
	Action  Action                 `json:"action"`
	Message string                 `json:"-"`
}

type transition struct {
	action Action
	state  models.EngagementState
}

// nextTransition decides the single mutation for one like/dislike call.
//
//	absent,  no request    -> create Liked
//	absent,  request S     -> create S
//	stored S, request T!=S -> update to T
//	stored S, request S    -> delete
//	stored S, no request   -> delete
func nextTransition(existing *models.Engagement, requested *models.EngagementState) transition {
	if existing == nil {
		state := models.StateLiked
		if requested != nil {
			state = *requested
		}
		return transition{action: ActionCreated, state: state}
	}

	if requested != nil && *requested != existing.State {
		return transition{action: ActionUpdated, state: *requested}
	}

	return transition{action: ActionDeleted, state: models.StateNone}
}

// engagementMessage renders the user-facing message for a transition,
// e.g. "Video liked" or "Comment like/dislike removed".
func engagementMessage(kind models.SubjectKind, t transition) string {
	label := kind.Label()
	switch {
	case t.action == ActionDeleted:
		return label + " like/dislike removed"
	case t.state == models.StateDisliked:
		return label + " disliked"
	default:
		return label + " liked"
	}
}

func subscriptionMessage(action Action) string {
	if action == ActionDeleted {
		return "Unsubscribed successfully"
	}
	return "Subscribed successfully"
}
