// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/middleware"
	"github.com/vidshare/engagement-engine/internal/models"
	"github.com/vidshare/engagement-engine/internal/service"
	"github.com/vidshare/engagement-engine/internal/validation"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, models.APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func respondPage[T any](c *gin.Context, page *discovery.Page[T], message string) {
	c.JSON(http.StatusOK, models.APIResponse{
		StatusCode: http.StatusOK,
		Data:       page.Items,
		Message:    message,
		Success:    true,
		PaginationMeta: &models.PaginationMeta{
			TotalCount:  page.TotalCount,
			TotalPages:  page.TotalPages,
			CurrentPage: page.CurrentPage,
			PageSize:    page.PageSize,
			HasNextPage: page.HasNextPage,
			Seed:        page.Seed,
		},
	})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		StatusCode: status,
		Message:    message,
		Path:       c.Request.URL.Path,
		Timestamp:  time.Now(),
	})
}

// respondError maps service failures onto HTTP statuses. Internal details
// are logged, never returned.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := kind.Status()

	message := "An unexpected error occurred"
	var se *service.Error
	if errors.As(err, &se) {
		message = se.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.Error(err),
			zap.String("kind", kind.String()),
			zap.String("path", c.Request.URL.Path),
		)
	} else {
		logger.Log.Debug("Request rejected",
			zap.Error(err),
			zap.String("kind", kind.String()),
			zap.String("path", c.Request.URL.Path),
		)
	}

	_ = c.Error(err)
	respondFailure(c, status, message)
}

func badRequest(c *gin.Context, message string) {
	respondFailure(c, http.StatusBadRequest, message)
}

// pathID parses a UUID path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := validation.ParseID(c.Param(param), param)
	if err != nil {
		badRequest(c, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// requireActor returns the authenticated user, writing a 401 when absent.
func requireActor(c *gin.Context) (uuid.UUID, bool) {
	actor, ok := middleware.ActorID(c)
	if !ok {
		respondFailure(c, http.StatusUnauthorized, "Unauthorized request")
		return uuid.Nil, false
	}
	return actor, true
}

func optionalActor(c *gin.Context) *uuid.UUID {
	if actor, ok := middleware.ActorID(c); ok {
		return &actor
	}
	return nil
}
