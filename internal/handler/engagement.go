package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dbmodels "github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/models"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// EngagementHandler handles like/dislike toggles and summaries.
type EngagementHandler struct {
	engagement EngagementService
}

// NewEngagementHandler creates a new EngagementHandler instance.
func NewEngagementHandler(engagement EngagementService) *EngagementHandler {
	return &EngagementHandler{engagement: engagement}
}

// ToggleVideo toggles the caller's like on a video.
func (h *EngagementHandler) ToggleVideo(c *gin.Context) {
	h.toggle(c, dbmodels.SubjectVideo, "videoId")
}

// ToggleComment toggles the caller's like on a comment.
func (h *EngagementHandler) ToggleComment(c *gin.Context) {
	h.toggle(c, dbmodels.SubjectComment, "commentId")
}

// ToggleTweet toggles the caller's like on a tweet.
func (h *EngagementHandler) ToggleTweet(c *gin.Context) {
	h.toggle(c, dbmodels.SubjectTweet, "tweetId")
}

func (h *EngagementHandler) toggle(c *gin.Context, kind dbmodels.SubjectKind, param string) {
	subjectID, ok := pathID(c, param)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	// The body is optional; an empty one toggles without a requested state.
	var req models.ToggleEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Log.Warn("Invalid toggle payload",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		badRequest(c, "state must be 1 (liked) or 2 (disliked)")
		return
	}

	subject := dbmodels.SubjectRef{Kind: kind, ID: subjectID}
	result, err := h.engagement.ApplyEngagement(c.Request.Context(), subject, actor, req.State)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, result.Message)
}

// VideoSummary reports like and dislike counts of a video plus the caller's
// own state.
func (h *EngagementHandler) VideoSummary(c *gin.Context) {
	h.summary(c, dbmodels.SubjectVideo, "videoId")
}

// CommentSummary reports like and dislike counts of a comment.
func (h *EngagementHandler) CommentSummary(c *gin.Context) {
	h.summary(c, dbmodels.SubjectComment, "commentId")
}

func (h *EngagementHandler) summary(c *gin.Context, kind dbmodels.SubjectKind, param string) {
	subjectID, ok := pathID(c, param)
	if !ok {
		return
	}

	subject := dbmodels.SubjectRef{Kind: kind, ID: subjectID}
	summary, err := h.engagement.GetEngagementSummary(c.Request.Context(), subject, optionalActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, summary, "Likes fetched successfully")
}
