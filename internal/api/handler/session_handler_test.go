package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicedesk/session-gateway/internal/infrastructure/storage"
	"github.com/servicedesk/session-gateway/internal/session"
	"github.com/servicedesk/session-gateway/internal/upstream"
)

// sessionFixture wires a real runtime against a fake upstream backend.
type sessionFixture struct {
	handler *SessionHandler
	runtime *session.Runtime
	echo    *echo.Echo
}

func newSessionFixture(t *testing.T, backend http.HandlerFunc) *sessionFixture {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	rt, err := session.NewRuntime(session.RuntimeConfig{
		Storage: storage.NewMemory(),
		Bus:     storage.NewMemoryBus(),
		Log:     zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	client, err := upstream.NewClient(server.URL, rt.Auth(), zerolog.Nop())
	require.NoError(t, err)
	client.SetSignOutHook(rt.ForceSignOut)

	e := echo.New()
	e.Validator = NewValidator()

	return &sessionFixture{
		handler: NewSessionHandler(rt, client, zerolog.Nop()),
		runtime: rt,
		echo:    e,
	}
}

func (f *sessionFixture) post(path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return f.echo.NewContext(req, rec), rec
}

func fakeBackend(t *testing.T, loginStatus int, prefsStatus int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/auth/login":
			if loginStatus != http.StatusOK {
				w.WriteHeader(loginStatus)
				w.Write([]byte(`{"message":"wrong password"}`))
				return
			}
			w.Write([]byte(`{"data":{"user":{"id":"u_1","name":"Alice","email":"alice@example.com","role":"MANAGER"},"token":"tok_new"}}`))
		case "/user/settings":
			if prefsStatus != http.StatusOK {
				w.WriteHeader(prefsStatus)
				return
			}
			w.Write([]byte(`{"data":{"id":"p_1","key":"display","date_format":"YYYY-MM-DD"}}`))
		case "/user/auth/logout":
			w.Write([]byte(`{"data":{}}`))
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestSessionHandler_SignIn(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusOK, http.StatusOK))

	c, rec := f.post("/session/signin", `{"email":"alice@example.com","password":"pw"}`)
	require.NoError(t, f.handler.SignIn(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.IsLoggedIn)
	assert.Equal(t, "YYYY-MM-DD", body.Data.DateFormat)
	require.NotNil(t, body.Data.Identity)
	assert.Equal(t, "u_1", body.Data.Identity.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, upstream.CredentialCookie, cookies[0].Name)
	assert.Equal(t, "tok_new", cookies[0].Value)

	assert.True(t, f.runtime.Auth().State().IsLoggedIn)
	assert.False(t, f.runtime.Auth().State().Loading, "loading flag must reset")
}

func TestSessionHandler_SignInInvalidCredentials(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusUnauthorized, http.StatusOK))

	c, _ := f.post("/session/signin", `{"email":"alice@example.com","password":"nope"}`)
	err := f.handler.SignIn(c)

	require.Error(t, err)
	st := f.runtime.Auth().State()
	assert.False(t, st.IsLoggedIn)
	assert.Equal(t, "invalid credentials", st.Error)
	assert.False(t, st.Loading)
}

func TestSessionHandler_SignInValidation(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusOK, http.StatusOK))

	c, _ := f.post("/session/signin", `{"email":"not-an-email","password":""}`)
	err := f.handler.SignIn(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Code)
	assert.False(t, f.runtime.Auth().State().IsLoggedIn)
}

func TestSessionHandler_SignInWithoutPreferenceRecord(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusOK, http.StatusNotFound))

	c, rec := f.post("/session/signin", `{"email":"alice@example.com","password":"pw"}`)
	require.NoError(t, f.handler.SignIn(c))

	var body struct {
		Data sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.IsLoggedIn)
	assert.Equal(t, "DD/MM/YYYY", body.Data.DateFormat, "missing record falls back to the default format")
}

func TestSessionHandler_SignOut(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusOK, http.StatusOK))

	c, _ := f.post("/session/signin", `{"email":"alice@example.com","password":"pw"}`)
	require.NoError(t, f.handler.SignIn(c))

	c, rec := f.post("/session/signout", "")
	require.NoError(t, f.handler.SignOut(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.runtime.Auth().State().IsLoggedIn)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, upstream.CredentialCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge, "credential cookie must be expired")
}

func TestSessionHandler_SignOutWhileSignedOut(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusOK, http.StatusOK))

	c, rec := f.post("/session/signout", "")
	require.NoError(t, f.handler.SignOut(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionHandler_Current(t *testing.T) {
	f := newSessionFixture(t, fakeBackend(t, http.StatusOK, http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, f.handler.Current(f.echo.NewContext(req, rec)))

	var body struct {
		Data sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.IsLoggedIn)
	assert.Nil(t, body.Data.Identity)
	assert.Equal(t, "DD/MM/YYYY", body.Data.DateFormat)
}
