package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/api/metrics"
	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/session"
	"github.com/servicedesk/session-gateway/internal/upstream"
)

// SessionHandler exposes the workstation session lifecycle over HTTP.
type SessionHandler struct {
	runtime *session.Runtime
	client  *upstream.Client
	log     zerolog.Logger
}

func NewSessionHandler(runtime *session.Runtime, client *upstream.Client, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{runtime: runtime, client: client, log: log}
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Identity   *domain.Identity `json:"identity"`
	IsLoggedIn bool             `json:"is_logged_in"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
	DateFormat string           `json:"date_format"`
}

// SignIn handles POST /session/signin — authenticates against the upstream
// and installs the session on this workstation.
//
// @Summary      Sign in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  map[string]sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /session/signin [post]
func (h *SessionHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	auth := h.runtime.Auth()
	auth.SetLoading(true)
	defer auth.SetLoading(false)

	identity, token, err := h.client.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.SignInsTotal.WithLabelValues("invalid_credentials").Inc()
			auth.SetError("invalid credentials")
		} else {
			metrics.SignInsTotal.WithLabelValues("upstream_error").Inc()
			auth.SetError("sign-in failed")
		}
		return err
	}
	metrics.SignInsTotal.WithLabelValues("ok").Inc()

	// Credentials first, then preferences: the preference fetch rides on the
	// freshly installed credential.
	h.runtime.SignIn(identity, token, nil)

	prefs, err := h.client.FetchPreferences(ctx)
	if err != nil {
		// Preferences are non-fatal; the default date format covers the gap.
		h.log.Warn().Err(err).Msg("preferences fetch failed after sign-in")
		h.runtime.Settings().SetError("preferences unavailable")
	} else {
		h.runtime.Settings().SetSettings(prefs)
	}

	c.SetCookie(&http.Cookie{
		Name:     upstream.CredentialCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return respond(c, http.StatusOK, h.sessionBody())
}

// SignOut handles POST /session/signout — runs the coordinated teardown.
// Idempotent: signing out while signed out answers 200 as well.
//
// @Summary      Sign out
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /session/signout [post]
func (h *SessionHandler) SignOut(c echo.Context) error {
	h.runtime.SignOut(c.Request().Context())

	c.SetCookie(&http.Cookie{
		Name:     upstream.CredentialCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})

	return respond(c, http.StatusOK, map[string]string{"message": "signed out"})
}

// Current handles GET /session — reports the session state, signed in or not.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	return respond(c, http.StatusOK, h.sessionBody())
}

func (h *SessionHandler) sessionBody() sessionResponse {
	st := h.runtime.Auth().State()
	return sessionResponse{
		Identity:   st.Identity,
		IsLoggedIn: st.IsLoggedIn,
		Loading:    st.Loading,
		Error:      st.Error,
		DateFormat: h.runtime.Settings().DateFormat(),
	}
}

// respond wraps data in the success envelope shared with the web client.
func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, map[string]any{"data": data})
}
