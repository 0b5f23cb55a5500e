package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/session"
	"github.com/servicedesk/session-gateway/internal/upstream"
)

// SettingsHandler reads and writes display preferences, keeping the local
// settings store synchronized with the upstream record.
type SettingsHandler struct {
	runtime *session.Runtime
	client  *upstream.Client
}

func NewSettingsHandler(runtime *session.Runtime, client *upstream.Client) *SettingsHandler {
	return &SettingsHandler{runtime: runtime, client: client}
}

type settingsResponse struct {
	Preferences *domain.Preferences `json:"preferences"`
	DateFormat  string              `json:"date_format"`
}

type updateSettingsRequest struct {
	Key        string `json:"key" validate:"required"`
	DateFormat string `json:"date_format"`
}

// Get handles GET /session/settings — the locally held preferences with the
// effective date format (default applied when no record exists).
func (h *SettingsHandler) Get(c echo.Context) error {
	store := h.runtime.Settings()
	return respond(c, http.StatusOK, settingsResponse{
		Preferences: store.State().Preferences,
		DateFormat:  store.DateFormat(),
	})
}

// Update handles PUT /session/settings — writes upstream first, then installs
// the authoritative record locally.
func (h *SettingsHandler) Update(c echo.Context) error {
	var req updateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	prefs, err := h.client.UpdatePreferences(c.Request().Context(), domain.Preferences{
		Key:        req.Key,
		DateFormat: req.DateFormat,
	})
	if err != nil {
		return err
	}

	store := h.runtime.Settings()
	store.SetSettings(prefs)
	return respond(c, http.StatusOK, settingsResponse{
		Preferences: prefs,
		DateFormat:  store.DateFormat(),
	})
}
