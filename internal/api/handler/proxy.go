package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/session-gateway/internal/upstream"
)

// ProxyHandler relays ticket/org/staff API traffic through the upstream
// gateway. The gateway attaches the credential and runs the interception
// policy; the backend's status and body pass through untouched, so the UI
// sees exactly the API it would see talking to the backend directly.
type ProxyHandler struct {
	client *upstream.Client
	strip  string
}

// NewProxyHandler builds a passthrough that strips prefix from the inbound
// path before forwarding.
func NewProxyHandler(client *upstream.Client, prefix string) *ProxyHandler {
	return &ProxyHandler{client: client, strip: prefix}
}

// Forward handles any method on the proxied subtree.
func (h *ProxyHandler) Forward(c echo.Context) error {
	req := c.Request()

	path := strings.TrimPrefix(req.URL.Path, h.strip)
	if req.URL.RawQuery != "" {
		path += "?" + req.URL.RawQuery
	}

	status, body, err := h.client.Forward(req.Context(), req.Method, path, req.Body)
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, body)
}
