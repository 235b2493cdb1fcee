package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/simkeeper/internal/logging"
	"github.com/dmitrijs2005/simkeeper/internal/server/config"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/simkeeper/internal/server/services"

	_ "modernc.org/sqlite"
)

type stubVerifier struct{ err error }

func (v *stubVerifier) Verify(context.Context, string, string) error { return v.err }

type testEnv struct {
	server   *Server
	handler  http.Handler
	rm       *repomanager.InMemoryRepositoryManager
	verifier *stubVerifier
}

func testConfig() *config.Config {
	return &config.Config{
		EndpointAddrHTTP:      "127.0.0.1:0",
		SecretKey:             "test-secret",
		TokenValidityDuration: time.Hour,
		BcryptCost:            4,
		MinPasswordLength:     8,
		RequestTimeout:        5 * time.Second,
		ShutdownTimeout:       5 * time.Second,
	}
}

// newTestEnv runs the real services over the in-memory repositories. The
// sqlite handle only backs transactions.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewInMemoryRepositoryManager()
	verifier := &stubVerifier{}
	logger := logging.NewNopLogger()

	users := services.NewUserService(db, rm, cfg, verifier, logger)
	sims := services.NewSimulationService(db, rm)
	srv := NewHTTPServer(cfg, logger, users, sims, nil)

	return &testEnv{server: srv, handler: srv.Handler(), rm: rm, verifier: verifier}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its bearer token.
func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()

	body := `{"name":"` + name + `","email":"` + email + `","password":"secret123","password_confirmation":"secret123"}`
	rec := e.do(t, http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (e *testEnv) createSimulation(t *testing.T, token, body string) int64 {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/simulations", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Simulation struct {
			ID int64 `json:"id"`
		} `json:"simulation"`
	}
	decodeBody(t, rec, &out)
	return out.Simulation.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &out)
	return out.Error
}

func newRequest(method, path, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	return httptest.NewRequest(method, path, rd)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
