package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler handles channel subscription toggles and listings.
type SubscriptionHandler struct {
	subscriptions SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler instance.
func NewSubscriptionHandler(subscriptions SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// Toggle subscribes the caller to a channel, or unsubscribes when already
// subscribed.
func (h *SubscriptionHandler) Toggle(c *gin.Context) {
	channelID, ok := pathID(c, "channelId")
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.subscriptions.ToggleSubscription(c.Request.Context(), actor, channelID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, result.Message)
}

// ListSubscribers lists the subscribers of a channel.
func (h *SubscriptionHandler) ListSubscribers(c *gin.Context) {
	channelID, ok := pathID(c, "channelId")
	if !ok {
		return
	}

	subscribers, err := h.subscriptions.ListChannelSubscribers(c.Request.Context(), channelID, optionalActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, subscribers, "Subscribers fetched successfully")
}

// ListChannels lists the channels a user is subscribed to.
func (h *SubscriptionHandler) ListChannels(c *gin.Context) {
	subscriberID, ok := pathID(c, "subscriberId")
	if !ok {
		return
	}

	channels, err := h.subscriptions.ListSubscribedChannels(c.Request.Context(), subscriberID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, channels, "Subscribed channels fetched successfully")
}
