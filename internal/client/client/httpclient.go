package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/client/models"
	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/netx"
)

// HTTPClient talks JSON to the SimKeeper API.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for baseURL (e.g. "http://127.0.0.1:8000")
// whose calls are bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with every call. Empty clears it.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, in models.Registration) (*models.Session, error) {
	var out models.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var out models.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) VerifyTum(ctx context.Context, tumID, password string) (*models.User, error) {
	body := map[string]string{"tum_id": tumID, "password": password}

	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-tum", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) ListSimulations(ctx context.Context, p models.ListParams) (*models.SimulationPage, error) {
	path := "/api/simulations"
	if q := p.Values().Encode(); q != "" {
		path += "?" + q
	}

	var out models.SimulationPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateSimulation(ctx context.Context, in models.NewSimulation) (*models.Simulation, error) {
	var out simulationEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/simulations", in, &out); err != nil {
		return nil, err
	}
	return out.Simulation, nil
}

func (c *HTTPClient) GetSimulation(ctx context.Context, id int64) (*models.Simulation, error) {
	var out models.Simulation
	if err := c.do(ctx, http.MethodGet, simulationPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateSimulation(ctx context.Context, id int64, changes models.SimulationChanges) (*models.Simulation, error) {
	if changes == nil {
		changes = models.SimulationChanges{}
	}

	var out simulationEnvelope
	if err := c.do(ctx, http.MethodPut, simulationPath(id), changes, &out); err != nil {
		return nil, err
	}
	return out.Simulation, nil
}

func (c *HTTPClient) DeleteSimulation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, simulationPath(id), nil, nil)
}

func (c *HTTPClient) BulkDeleteSimulations(ctx context.Context, ids []int64) error {
	body := map[string][]int64{"ids": ids}
	return c.do(ctx, http.MethodPost, "/api/simulations/bulk-delete", body, nil)
}

type simulationEnvelope struct {
	Message    string             `json:"message"`
	Simulation *models.Simulation `json:"simulation"`
}

type errorEnvelope struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

func simulationPath(id int64) string {
	return "/api/simulations/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	req, err := netx.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	return c.mapError(netx.DoJSON(c.http, req, out))
}

func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var se *netx.StatusError
	if !errors.As(err, &se) {
		return err
	}

	apiErr := &APIError{StatusCode: se.StatusCode}
	var env errorEnvelope
	if json.Unmarshal(se.Body, &env) == nil {
		apiErr.Message = env.Error
		apiErr.Errors = env.Errors
	}
	return apiErr
}
