package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/session-gateway/internal/core/ports"
)

// AuditHandler exposes the session audit trail. Superadmin-only; the route
// group applies the guard.
type AuditHandler struct {
	repo ports.AuthEventRepository
}

func NewAuditHandler(repo ports.AuthEventRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// Recent handles GET /session/audit — newest session lifecycle events first.
func (h *AuditHandler) Recent(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 500")
		}
		limit = n
	}

	events, err := h.repo.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, events)
}
