package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/session-gateway/internal/session"
)

// PageHandler answers the navigation entry points the desk client shell
// loads. These return view descriptors, not markup; rendering is the UI's
// job. Their value is carrying the guard's redirect semantics.
type PageHandler struct {
	runtime *session.Runtime
}

func NewPageHandler(runtime *session.Runtime) *PageHandler {
	return &PageHandler{runtime: runtime}
}

type viewDescriptor struct {
	View       string `json:"view"`
	DateFormat string `json:"date_format"`
}

// SignIn handles GET /signin. Already signed-in viewers bounce to the
// dashboard instead of seeing the sign-in view again.
func (h *PageHandler) SignIn(c echo.Context) error {
	if h.runtime.Auth().State().IsLoggedIn {
		return c.Redirect(http.StatusFound, session.DashboardRoute)
	}
	return respond(c, http.StatusOK, viewDescriptor{View: "signin", DateFormat: h.runtime.Settings().DateFormat()})
}

// Dashboard handles GET /dashboard, the default landing view.
func (h *PageHandler) Dashboard(c echo.Context) error {
	return respond(c, http.StatusOK, viewDescriptor{View: "dashboard", DateFormat: h.runtime.Settings().DateFormat()})
}

// Admin handles GET /admin, the organizational management surface.
func (h *PageHandler) Admin(c echo.Context) error {
	return respond(c, http.StatusOK, viewDescriptor{View: "admin", DateFormat: h.runtime.Settings().DateFormat()})
}
