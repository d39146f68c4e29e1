package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/sysinfo-agent/internal/dispatch"
	"github.com/ngenohkevin/sysinfo-agent/internal/relay"
)

const version = "1.0.0"

// Dispatcher turns tagged requests into feedback actions
type Dispatcher interface {
	Handle(ctx context.Context, req dispatch.Request) ([]relay.Action, error)
	Tags() []dispatch.Tag
}

// Handlers holds all HTTP handlers
type Handlers struct {
	dispatcher Dispatcher
	sink       relay.Sink
}

// NewHandlers creates a new handlers instance
func NewHandlers(d Dispatcher, sink relay.Sink) *Handlers {
	return &Handlers{
		dispatcher: d,
		sink:       sink,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   version,
	})
}

// ListTags handles GET /api/tags
func (h *Handlers) ListTags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tags": h.dispatcher.Tags()})
}

// Dispatch handles POST /api/dispatch
func (h *Handlers) Dispatch(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if claims := claimsFrom(c); claims != nil {
		if !claims.Allows(string(req.Tag)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "token not allowed to dispatch " + string(req.Tag)})
			return
		}
		// Tokens are issued per relay identity
		if req.Requester == "" {
			req.Requester = claims.Subject
		}
	}

	actions, err := h.dispatcher.Handle(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dispatch.ErrUnknownTag) ||
			errors.Is(err, dispatch.ErrUnknownChannel) ||
			errors.Is(err, dispatch.ErrMissingRequester) {
			status = http.StatusBadRequest
		}

		log.Printf("[DISPATCH] %s for %q failed: %v", req.Tag, req.Requester, err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	failed := relay.SendAll(c.Request.Context(), h.sink, actions)

	c.JSON(http.StatusOK, gin.H{
		"actions":        actions,
		"relay_failures": failed,
	})
}
