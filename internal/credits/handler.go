package credits

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
)

const defaultGrant = 100

// Handler exposes credit endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches credit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/credits", h.getBalance)
}

// RegisterDevRoutes attaches dev-only credit routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/credits/grant", h.grant)
}

type grantRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) getBalance(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	balance, err := h.Svc.Balance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to fetch credits")
		return
	}
	respond.JSON(c, http.StatusOK, Balance{UserID: userID, Balance: balance})
}

func (h *Handler) grant(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	req := grantRequest{Amount: defaultGrant}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
			return
		}
	}
	balance, err := h.Svc.Grant(c.Request.Context(), userID, req.Amount, "dev_grant")
	if err != nil {
		writeError(c, err, "failed to grant credits")
		return
	}
	respond.JSON(c, http.StatusOK, Balance{UserID: userID, Balance: balance})
}

func writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
