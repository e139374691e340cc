package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/credits"
	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup, svc *credits.Service) {
	rg.GET("/me", func(c *gin.Context) { meHandler(c, svc) })
}

func meHandler(c *gin.Context, svc *credits.Service) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId":  userID,
		"isGuest": middleware.IsGuest(c),
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	}
	if svc != nil {
		if bal, err := svc.Balance(c.Request.Context(), userID); err == nil {
			response["credits"] = bal
		}
	}

	respond.JSON(c, http.StatusOK, response)
}
