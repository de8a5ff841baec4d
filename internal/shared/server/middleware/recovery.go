package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/shared/server/respond"
	"filing-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-raised so net/http can drop the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			documentID, _ := c.Get("documentId")
			telemetry.Error("request.panic", map[string]any{
				"request_id":  RequestIDFromContext(c),
				"user_id":     UserIDFromContext(c),
				"document_id": documentID,
				"error":       fmt.Sprint(rec),
				"stack":       string(debug.Stack()),
				"path":        c.Request.URL.Path,
				"method":      c.Request.Method,
			})
			c.Set("errorCode", "internal")
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			c.Abort()
		}()
		c.Next()
	}
}
