package pipeline

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/documents"
	"filing-backend/internal/fields"
	"filing-backend/internal/shared/server/middleware"
	"filing-backend/internal/shared/server/respond"
	"filing-backend/internal/shared/telemetry"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler exposes the upload, replace and delete routes.
type Handler struct {
	Pipeline *Pipeline
}

// NewHandler constructs a Handler.
func NewHandler(p *Pipeline) *Handler {
	return &Handler{Pipeline: p}
}

// RegisterRoutes attaches pipeline routes. limit guards the upload routes and may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	upload := []gin.HandlerFunc{h.upload}
	replace := []gin.HandlerFunc{h.replace}
	if limit != nil {
		upload = append([]gin.HandlerFunc{limit}, upload...)
		replace = append([]gin.HandlerFunc{limit}, replace...)
	}
	rg.POST("/documents", upload...)
	rg.PUT("/documents/:id", replace...)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) readInput(c *gin.Context) (Input, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return Input{}, false
	}
	docType, err := fields.ParseDocType(c.PostForm("documentType"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), gin.H{"allowed": fields.DocTypes()})
		return Input{}, false
	}
	spouse := 0
	if raw := strings.TrimSpace(c.PostForm("spouseNumber")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 2 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "spouseNumber must be 1 or 2", nil)
			return Input{}, false
		}
		spouse = n
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return Input{}, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return Input{}, false
	}

	return Input{
		UserID:       middleware.UserIDFromContext(c),
		DocType:      docType,
		FileName:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
		SpouseNumber: spouse,
	}, true
}

func (h *Handler) upload(c *gin.Context) {
	in, ok := h.readInput(c)
	if !ok {
		return
	}
	res, err := h.Pipeline.Process(c.Request.Context(), in)
	if res.DocumentID != "" {
		c.Set("documentId", res.DocumentID)
	}
	if err != nil {
		writeFailure(c, res, err)
		return
	}
	respond.JSON(c, http.StatusCreated, res)
}

func (h *Handler) replace(c *gin.Context) {
	in, ok := h.readInput(c)
	if !ok {
		return
	}
	res, err := h.Pipeline.Replace(c.Request.Context(), in.UserID, c.Param("id"), in)
	if res.DocumentID != "" {
		c.Set("documentId", res.DocumentID)
	}
	if err != nil {
		writeFailure(c, res, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Set("documentId", c.Param("id"))
	report, err := h.Pipeline.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{"deleted": true, "reaggregation": report})
}

// writeFailure keeps the upload result shape while carrying the mapped status.
func writeFailure(c *gin.Context, res Result, err error) {
	if errors.Is(err, documents.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if res.Success {
		respond.AppError(c, err)
		return
	}
	status, code := respond.StatusFor(err)
	c.Set("errorCode", code)
	if status >= http.StatusInternalServerError {
		res.Error = code
	}
	telemetry.Warn("pipeline.http.failure", map[string]any{
		"status":      status,
		"code":        code,
		"document_id": res.DocumentID,
		"request_id":  middleware.RequestIDFromContext(c),
		"error":       err.Error(),
	})
	c.AbortWithStatusJSON(status, res)
}
