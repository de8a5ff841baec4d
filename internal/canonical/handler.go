package canonical

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/shared/server/middleware"
	"filing-backend/internal/shared/server/respond"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes the canonical profile.
type Handler struct {
	Engine *Engine
}

// NewHandler constructs a Handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

// RegisterRoutes attaches profile routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.view)
	rg.GET("/profile/raw", h.raw)
	rg.POST("/profile/reaggregate", h.reaggregate)
	rg.GET("/profile/export", h.export)
}

func (h *Handler) view(c *gin.Context) {
	p, err := h.Engine.Profile(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, BuildView(p))
}

func (h *Handler) raw(c *gin.Context) {
	p, err := h.Engine.Profile(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) reaggregate(c *gin.Context) {
	report, err := h.Engine.Reaggregate(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) export(c *gin.Context) {
	p, err := h.Engine.Profile(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	data, err := ExportXLSX(p)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "export_failed", "failed to export profile", nil)
		return
	}
	name := fmt.Sprintf("profile-%s.xlsx", time.Now().UTC().Format("20060102"))
	respond.Attachment(c, name, xlsxContentType, data)
}
