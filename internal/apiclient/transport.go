package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Iron-Ham/adminkit/internal/errors"
)

// maxBodySize bounds the response body read into memory.
const maxBodySize = 16 << 20

// attempt performs a single transport round trip. The returned error carries
// the retry classification.
func (c *Client) attempt(ctx context.Context, method, u string, opts *RequestOptions, timeout time.Duration) (*Response, *errors.APIError) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewAPIError("rate limit wait aborted", errors.Join(errors.ErrCanceled, err)).WithRetryable(false)
		}
	}

	spec := &RequestSpec{
		Method: method,
		URL:    u,
		Header: c.Headers(),
		Data:   opts.Data,
	}
	for k, vs := range opts.Header {
		spec.Header[k] = append([]string(nil), vs...)
	}

	reqICs, respICs := c.interceptors()
	for _, ic := range reqICs {
		if err := ic(ctx, spec); err != nil {
			return nil, errors.NewAPIError("request interceptor failed", err).WithRetryable(false)
		}
	}

	body, contentType, err := encodeBody(spec.Data)
	if err != nil {
		return nil, errors.NewAPIError("failed to encode request body", err).WithRetryable(false)
	}

	actx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(actx, spec.Method, spec.URL, reader)
	if err != nil {
		return nil, errors.NewAPIError("failed to build request", err).WithRetryable(false)
	}
	req.Header = spec.Header
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, actx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransportError(ctx, actx, err)
	}

	raw := &RawResponse{
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    data,
		Request: spec,
	}
	for _, ic := range respICs {
		if err := ic(ctx, raw); err != nil {
			return nil, errors.NewAPIError("response interceptor failed", err).WithStatus(raw.Status).WithRetryable(false)
		}
	}

	normalized, nerr := normalize(raw)
	if raw.Status < 200 || raw.Status >= 300 {
		msg := http.StatusText(raw.Status)
		if normalized != nil && normalized.Message != "" {
			msg = normalized.Message
		}
		return nil, errors.NewAPIError(msg, fmt.Errorf("%w %d", errors.ErrHTTPStatus, raw.Status)).WithStatus(raw.Status)
	}
	if nerr != nil {
		return nil, errors.NewAPIError("invalid response body", nerr).WithStatus(raw.Status).WithRetryable(false)
	}
	return normalized, nil
}

// classifyTransportError maps a failed round trip to an APIError: caller
// cancellation and attempt timeouts are final, anything else is a network
// failure worth retrying.
func classifyTransportError(ctx, actx context.Context, err error) *errors.APIError {
	switch {
	case ctx.Err() != nil:
		return errors.NewAPIError("request canceled", errors.Join(errors.ErrCanceled, err)).WithRetryable(false)
	case errors.Is(actx.Err(), context.DeadlineExceeded):
		return errors.NewAPIError("request timed out", errors.Join(errors.ErrTimeout, err)).WithRetryable(false)
	default:
		return errors.NewAPIError("network error", err).WithRetryable(true)
	}
}
