package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/models"
	"github.com/vidshare/engagement-engine/internal/service"
	"github.com/vidshare/engagement-engine/internal/validation"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// VideoHandler handles video listing, publishing and view recording.
type VideoHandler struct {
	catalog   CatalogService
	watch     WatchService
	validator *validation.Validator
}

// NewVideoHandler creates a new VideoHandler instance.
func NewVideoHandler(catalog CatalogService, watch WatchService, validator *validation.Validator) *VideoHandler {
	if validator == nil {
		validator = validation.New(true)
	}
	return &VideoHandler{
		catalog:   catalog,
		watch:     watch,
		validator: validator,
	}
}

// List returns one page of videos. With a query term the page is ranked by
// relevance; otherwise it is drawn from a seeded sample whose seed is echoed
// in paginationMeta.
func (h *VideoHandler) List(c *gin.Context) {
	var q models.VideoListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}
	if err := h.validator.ValidateSeed(q.Seed); err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.catalog.ListVideos(c.Request.Context(), discovery.VideoQuery{
		SearchTerm: q.Query,
		OwnerID:    q.UserID,
		SortBy:     q.SortBy,
		SortType:   q.SortType,
		Seed:       q.Seed,
		Page:       q.Page,
		PageSize:   q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, page, "Videos fetched successfully")
}

// Get returns a single video.
func (h *VideoHandler) Get(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}

	video, err := h.catalog.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, video, "Video fetched successfully")
}

// Publish stores a new video for the caller.
func (h *VideoHandler) Publish(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req models.PublishVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Invalid publish payload",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.validator.ValidateVideo(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	video, err := h.catalog.PublishVideo(c.Request.Context(), actor, service.PublishVideoInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, video, "Video uploaded successfully")
}

// RecordView counts a view by the caller and updates their watch history.
func (h *VideoHandler) RecordView(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	video, err := h.watch.RecordView(c.Request.Context(), videoID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, video, "Video viewed successfully")
}
