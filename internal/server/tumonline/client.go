// Package tumonline talks to the TUMonline authentication endpoint used to
// confirm that a user owns a TUM account.
package tumonline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/netx"
)

type authenticateRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// Client verifies TUM credentials against {baseURL}/authenticate.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
}

// NewClient returns a Client whose calls are bounded by timeout.
func NewClient(baseURL, clientID, clientSecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
}

// Verify returns nil when the provider accepts the credentials and
// common.ErrorUnauthorized when it answers with a 4xx status. Transport
// failures and any other status are wrapped in common.ErrUpstream.
func (c *Client) Verify(ctx context.Context, username, password string) error {
	req, err := netx.NewJSONRequest(ctx, http.MethodPost, c.baseURL+"/authenticate", authenticateRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Username:     username,
		Password:     password,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}

	err = netx.DoJSON(c.http, req, nil)
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return common.ErrorUnauthorized
	}
	return fmt.Errorf("%w: %v", common.ErrUpstream, err)
}
