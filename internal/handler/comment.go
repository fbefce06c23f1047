package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/models"
)

// CommentHandler handles comment listing and creation.
type CommentHandler struct {
	catalog CatalogService
}

// NewCommentHandler creates a new CommentHandler instance.
func NewCommentHandler(catalog CatalogService) *CommentHandler {
	return &CommentHandler{catalog: catalog}
}

// List returns one page of a video's comments.
func (h *CommentHandler) List(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}

	var q models.CommentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.catalog.ListComments(c.Request.Context(), videoID, discovery.CommentQuery{
		SearchTerm: q.Query,
		SortBy:     q.SortBy,
		SortType:   q.SortType,
		Page:       q.Page,
		PageSize:   q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, page, "Comments fetched successfully")
}

// Add stores a comment by the caller.
func (h *CommentHandler) Add(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "comment is required")
		return
	}

	comment, err := h.catalog.AddComment(c.Request.Context(), actor, videoID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, comment, "comment upload successfully")
}
