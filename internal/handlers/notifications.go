package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/accesskeep/accesskeep/internal/middleware"
	"github.com/accesskeep/accesskeep/internal/realtime"
	"github.com/accesskeep/accesskeep/internal/services"
	"github.com/accesskeep/accesskeep/pkg/response"
)

const defaultNotificationPageSize = 50

// NotificationHandler exposes the per-user notification feed.
type NotificationHandler struct {
	notifications *services.NotificationService
	hub           *realtime.Hub
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(notifications *services.NotificationService, hub *realtime.Hub) (*NotificationHandler, error) {
	if notifications == nil {
		return nil, errors.New("notification handler: notification service is required")
	}
	return &NotificationHandler{notifications: notifications, hub: hub}, nil
}

// PendingCount reports how many unseen notifications the caller holds.
func (h *NotificationHandler) PendingCount(c *gin.Context) {
	count, err := h.notifications.PendingCount(requestContext(c), middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// ListPending returns unseen notifications, optionally bounded by ?since=<micros>.
func (h *NotificationHandler) ListPending(c *gin.Context) {
	items, err := h.notifications.ListPending(requestContext(c), middleware.Actor(c), parseInt64Query(c, "since"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// ListAndReset returns the full history page and marks everything pending as seen.
func (h *NotificationHandler) ListAndReset(c *gin.Context) {
	offset := parseIntQuery(c, "offset", 0)
	count := parseIntQuery(c, "count", defaultNotificationPageSize)

	items, total, err := h.notifications.ListAndReset(requestContext(c), services.ListAndResetInput{
		UserID: middleware.Actor(c),
		Offset: offset,
		Count:  count,
		Filter: c.Query("filter"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Offset: offset,
		Count:  len(items),
		Total:  int(total),
	})
}

// Stream upgrades the request to a WebSocket delivering live feed events.
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.New("realtime hub is not configured"))
		return
	}
	h.hub.Serve(middleware.Actor(c), c.Writer, c.Request)
}
