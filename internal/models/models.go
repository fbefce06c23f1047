// Package models contains the request and response DTOs of the HTTP API.
package models

import (
	"time"

	"github.com/vidshare/engagement-engine/internal/db/models"
)

// APIResponse is the success envelope shared by every endpoint.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type APIResponse struct {
	StatusCode     int             `json:"statusCode"`
	Data           any             `json:"data"`
	Message        string          `json:"message"`
	Success        bool            `json:"success"`
	PaginationMeta *PaginationMeta `json:"paginationMeta,omitempty"`
}

// PaginationMeta describes the page returned by a listing.
type PaginationMeta struct {
	TotalCount  int64  `json:"totalCount"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	PageSize    int    `json:"pageSize"`
	HasNextPage bool   `json:"hasNextPage"`
	Seed        string `json:"seed,omitempty"`
}

// ErrorResponse is the failure envelope.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	StatusCode int       `json:"statusCode"`
	Message    string    `json:"message"`
	Success    bool      `json:"success"`
	Path       string    `json:"path"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToggleEngagementRequest is the optional body of a like toggle.
type ToggleEngagementRequest struct {
	State *models.EngagementState `json:"state" binding:"omitempty,oneof=1 2"`
}

// PublishVideoRequest carries the metadata and already-uploaded media
// locators of a new video.
type PublishVideoRequest struct {
	Title        string  `json:"title" binding:"required,max=200"`
	Description  string  `json:"description" binding:"required,max=5000"`
	VideoURL     string  `json:"videoUrl" binding:"required,url"`
	ThumbnailURL string  `json:"thumbnailUrl" binding:"required,url"`
	Duration     float64 `json:"duration" binding:"gte=0"`
}

// AddCommentRequest is the body of a new comment.
type AddCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// VideoListQuery is the query string of GET /videos.
type VideoListQuery struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=10"`
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
	UserID   string `form:"userId"`
	Seed     string `form:"seed"`
}

// CommentListQuery is the query string of GET /comments/:videoId.
type CommentListQuery struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=10"`
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
}
