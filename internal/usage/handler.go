package usage

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/shared/server/middleware"
	"filing-backend/internal/shared/server/respond"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage/llm", h.getSummary)
	rg.GET("/usage/llm/calls", h.listCalls)
}

func (h *Handler) getSummary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	s, err := h.Svc.Summary(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err, "failed to fetch usage")
		return
	}
	respond.OK(c, s)
}

func (h *Handler) listCalls(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	calls, err := h.Svc.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		writeErr(c, err, "failed to list calls")
		return
	}
	respond.OK(c, calls)
}

func writeErr(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
