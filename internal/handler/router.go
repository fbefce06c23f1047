package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidshare/engagement-engine/internal/middleware"
)

// Handlers bundles the route handlers mounted by NewRouter.
type Handlers struct {
	Health        *HealthHandler
	Engagement    *EngagementHandler
	Subscriptions *SubscriptionHandler
	Videos        *VideoHandler
	Comments      *CommentHandler
}

// NewRouter builds the gin engine. Probes and /metrics are public; the
// /api/v1 group runs auth (when non-nil) and actor extraction first.
func NewRouter(h Handlers, auth gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.GET("/health/live", h.Health.LivenessProbe)
	r.GET("/health/ready", h.Health.ReadinessProbe)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if auth != nil {
		api.Use(auth)
	}
	api.Use(middleware.Actor())

	likes := api.Group("/likes")
	likes.POST("/toggle/v/:videoId", h.Engagement.ToggleVideo)
	likes.POST("/toggle/c/:commentId", h.Engagement.ToggleComment)
	likes.POST("/toggle/t/:tweetId", h.Engagement.ToggleTweet)
	likes.GET("/v/:videoId/summary", h.Engagement.VideoSummary)
	likes.GET("/c/:commentId/summary", h.Engagement.CommentSummary)

	subs := api.Group("/subscriptions")
	subs.POST("/c/:channelId", h.Subscriptions.Toggle)
	subs.GET("/c/:channelId/subscribers", h.Subscriptions.ListSubscribers)
	subs.GET("/u/:subscriberId/channels", h.Subscriptions.ListChannels)

	videos := api.Group("/videos")
	videos.GET("", h.Videos.List)
	videos.POST("", h.Videos.Publish)
	videos.GET("/:videoId", h.Videos.Get)
	videos.POST("/:videoId/views", h.Videos.RecordView)

	comments := api.Group("/comments")
	comments.GET("/:videoId", h.Comments.List)
	comments.POST("/:videoId", h.Comments.Add)

	return r
}
