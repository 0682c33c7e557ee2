package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/philly/devtools-relay/internal/adapters/memory"
	"github.com/philly/devtools-relay/internal/adapters/rest"
	"github.com/philly/devtools-relay/internal/adapters/rest/middleware"
	"github.com/philly/devtools-relay/internal/devtools/application"
	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/philly/devtools-relay/internal/relay"
	"github.com/philly/devtools-relay/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "relay-http-secret"

func newRouter(t *testing.T, authConfig middleware.AuthConfig) http.Handler {
	t.Helper()

	log := logger.Nop{}
	service, cleanup := application.NewService(relay.New(log), memory.NewSnapshotArchive(5), log, application.Config{})
	t.Cleanup(cleanup)

	auth, err := middleware.ProvideAuth(context.Background(), authConfig, log)
	require.NoError(t, err)

	base := rest.NewBaseHandler(log)
	srv := rest.NewServer(
		rest.NewHealthHandler(base, "test", nil),
		rest.NewRelayHandler(base, service),
		rest.NewStateHandler(base, service),
		rest.NewStreamHandler(base, service),
	)
	return server.NewRouter(srv, base, auth, log)
}

func bearer(t *testing.T) string {
	t.Helper()
	return "Bearer " + signedToken(t)
}

func signedToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer("relayd").
		Subject("operator").
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func serve(handler http.Handler, method string, path string, body string, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouterRequiresTokenForMutations(t *testing.T) {
	router := newRouter(t, middleware.AuthConfig{Secret: testSecret, Issuer: "relayd"})
	token := bearer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		authorization  string
		expectedStatus int
	}{
		{name: "liveness is public", method: http.MethodGet, path: "/api/v1/health/live", expectedStatus: http.StatusOK},
		{name: "state is public", method: http.MethodGet, path: "/api/v1/state", expectedStatus: http.StatusOK},
		{name: "publish without token", method: http.MethodPost, path: "/api/v1/messages", body: `{"message":"ping"}`, expectedStatus: http.StatusUnauthorized},
		{name: "publish with token", method: http.MethodPost, path: "/api/v1/messages", body: `{"message":"ping"}`, authorization: token, expectedStatus: http.StatusAccepted},
		{name: "theme with bad token", method: http.MethodPut, path: "/api/v1/state/theme", body: `{"theme":"dark"}`, authorization: "Bearer nope", expectedStatus: http.StatusUnauthorized},
		{name: "theme with token", method: http.MethodPut, path: "/api/v1/state/theme", body: `{"theme":"dark"}`, authorization: token, expectedStatus: http.StatusOK},
		{name: "forward without token", method: http.MethodPost, path: "/api/v1/forwards", body: `{"topic":"a","recipient":"b"}`, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.path, tt.body, tt.authorization)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouterWithoutAuthConfigured(t *testing.T) {
	router := newRouter(t, middleware.AuthConfig{})

	rec := serve(router, http.MethodPost, "/api/v1/messages", `{"message":"ping"}`, "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newRouter(t, middleware.AuthConfig{})

	rec := serve(router, http.MethodGet, "/api/v1/unknown", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func dialStream(t *testing.T, srv *httptest.Server, query url.Values, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream?" + query.Encode()
	conn, resp, err := websocket.DefaultDialer.Dial(u, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	if resp != nil && resp.Body != nil {
		t.Cleanup(func() { _ = resp.Body.Close() })
	}
	return conn, resp, err
}

func TestRouterStreamRequiresTokenWhenAuthConfigured(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, middleware.AuthConfig{Secret: testSecret, Issuer: "relayd"}))
	defer srv.Close()

	t.Run("without token", func(t *testing.T) {
		_, resp, err := dialStream(t, srv, url.Values{"key": {"@background"}}, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("with bad query token", func(t *testing.T) {
		_, resp, err := dialStream(t, srv, url.Values{"key": {"@background"}, "access_token": {"nope"}}, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("with query token", func(t *testing.T) {
		conn, _, err := dialStream(t, srv, url.Values{"key": {"@background"}, "access_token": {signedToken(t)}}, nil)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	})

	t.Run("with authorization header", func(t *testing.T) {
		header := http.Header{"Authorization": {bearer(t)}}
		conn, _, err := dialStream(t, srv, url.Values{"key": {"devtools.theme"}}, header)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	})
}

func TestRouterStreamOpenWithoutAuth(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, middleware.AuthConfig{}))
	defer srv.Close()

	conn, _, err := dialStream(t, srv, url.Values{"key": {"devtools.theme"}}, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestRouterQueryTokenOnlyAcceptedOnStream(t *testing.T) {
	router := newRouter(t, middleware.AuthConfig{Secret: testSecret, Issuer: "relayd"})

	rec := serve(router, http.MethodPost, "/api/v1/messages?access_token="+signedToken(t), `{"message":"ping"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
