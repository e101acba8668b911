package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/accesskeep/accesskeep/internal/services"
	"github.com/accesskeep/accesskeep/pkg/response"
)

// GlobalNotificationHandler exposes system-wide broadcasts.
type GlobalNotificationHandler struct {
	globals *services.GlobalNotificationService
	now     func() time.Time
}

// NewGlobalNotificationHandler constructs a GlobalNotificationHandler.
func NewGlobalNotificationHandler(globals *services.GlobalNotificationService) (*GlobalNotificationHandler, error) {
	if globals == nil {
		return nil, errors.New("global notification handler: service is required")
	}
	return &GlobalNotificationHandler{globals: globals, now: time.Now}, nil
}

// List returns broadcasts visible right now, most severe first.
func (h *GlobalNotificationHandler) List(c *gin.Context) {
	items, err := h.globals.ListActive(requestContext(c), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

type createGlobalNotificationRequest struct {
	Severity string `json:"severity" validate:"required"`
	Header   string `json:"header" validate:"required,max=256"`
	Content  string `json:"content" validate:"max=4096"`
	Link     string `json:"link" validate:"max=1024"`
	// ShowFrom and Duration are microseconds; zero means "use defaults".
	ShowFromMicros int64 `json:"show_from"`
	DurationMicros int64 `json:"duration"`
}

// Create stores a new broadcast.
func (h *GlobalNotificationHandler) Create(c *gin.Context) {
	var payload createGlobalNotificationRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.AddGlobalNotificationInput{
		Severity: payload.Severity,
		Header:   payload.Header,
		Content:  payload.Content,
		Link:     payload.Link,
		Duration: time.Duration(payload.DurationMicros) * time.Microsecond,
	}
	if payload.ShowFromMicros > 0 {
		showFrom := time.UnixMicro(payload.ShowFromMicros)
		input.ShowFrom = &showFrom
	}

	dto, err := h.globals.Add(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}
