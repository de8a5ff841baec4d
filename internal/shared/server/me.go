package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/shared/server/middleware"
	"filing-backend/internal/shared/server/respond"
)

// meResponse describes the caller. Source tells whether a bearer token or
// the X-Guest-Id header supplied the identity.
type meResponse struct {
	UserID          string     `json:"userId"`
	Guest           bool       `json:"guest"`
	Source          string     `json:"source"`
	Email           string     `json:"email,omitempty"`
	Name            string     `json:"name,omitempty"`
	TokenExpiresAt  *time.Time `json:"tokenExpiresAt,omitempty"`
	TokenExpiresInS int64      `json:"tokenExpiresInSeconds,omitempty"`
}

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup, now func() time.Time) {
	rg.GET("/me", func(c *gin.Context) { meHandler(c, now) })
}

func meHandler(c *gin.Context, now func() time.Time) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok || id.UserID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	resp := meResponse{
		UserID: id.UserID,
		Guest:  id.Guest,
		Source: id.Source,
		Email:  id.Email,
		Name:   id.Name,
	}
	if !id.ExpiresAt.IsZero() {
		exp := id.ExpiresAt
		resp.TokenExpiresAt = &exp
		if left := exp.Sub(now()); left > 0 {
			resp.TokenExpiresInS = int64(left / time.Second)
		}
	}
	respond.JSON(c, http.StatusOK, resp)
}
