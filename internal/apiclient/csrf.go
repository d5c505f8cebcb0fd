package apiclient

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/Iron-Ham/adminkit/internal/errors"
)

// Init prepares the client for use. With CSRF enabled it fetches a token
// unless one has already been installed with SetCSRFToken.
func (c *Client) Init(ctx context.Context) error {
	if !c.cfg.CSRF.Enabled || c.CSRFToken() != "" {
		return nil
	}
	_, err := c.RefreshCSRFToken(ctx)
	return err
}

// CSRFToken returns the token currently sent with requests.
func (c *Client) CSRFToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers.Get(c.csrfHeader())
}

// SetCSRFToken installs token as the CSRF header value.
func (c *Client) SetCSRFToken(token string) {
	c.SetHeader(c.csrfHeader(), token)
}

func (c *Client) csrfHeader() string {
	if c.cfg.CSRF.Header != "" {
		return c.cfg.CSRF.Header
	}
	return DefaultConfig().CSRF.Header
}

// RefreshCSRFToken fetches a new token from the CSRF endpoint and installs
// it. Concurrent refreshes share one fetch.
func (c *Client) RefreshCSRFToken(ctx context.Context) (string, error) {
	v, err, _ := c.csrf.Do("csrf", func() (any, error) {
		return c.fetchCSRFToken(ctx)
	})
	if err != nil {
		return "", err
	}
	token := v.(string)
	c.SetCSRFToken(token)
	c.logger.Debug("csrf token installed")
	return token, nil
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	endpoint := c.cfg.CSRF.Endpoint
	if endpoint == "" {
		endpoint = DefaultConfig().CSRF.Endpoint
	}
	field := c.cfg.CSRF.Field
	if field == "" {
		field = DefaultConfig().CSRF.Field
	}

	resp, err := c.Request(ctx, http.MethodGet, endpoint, &RequestOptions{Retries: Retries(0)})
	if err != nil {
		return "", errors.NewAPIError("failed to fetch csrf token", errors.Join(errors.ErrCSRFToken, err))
	}

	token := gjson.GetBytes(resp.Data, field).String()
	if token == "" {
		token = gjson.GetBytes(resp.Raw, field).String()
	}
	if token == "" {
		token = resp.Header.Get(c.csrfHeader())
	}
	if token == "" {
		return "", errors.NewAPIError("csrf endpoint returned no token", errors.ErrCSRFToken).
			WithRequest(http.MethodGet, endpoint).WithStatus(resp.Status)
	}
	return token, nil
}
