package apiclient

import (
	"context"
	"net/http"
)

// RequestSpec is the outgoing request as seen by request interceptors.
// Interceptors may change any field.
type RequestSpec struct {
	Method string
	URL    string
	Header http.Header
	Data   any
}

// RawResponse is the transport response as seen by response interceptors.
// Interceptors may change any field before normalization.
type RawResponse struct {
	Status  int
	Header  http.Header
	Body    []byte
	Request *RequestSpec
}

// RequestInterceptor runs before every transport attempt. A returned error
// fails the request without retrying.
type RequestInterceptor func(ctx context.Context, req *RequestSpec) error

// ResponseInterceptor runs after every transport attempt that produced a
// response. A returned error fails the request without retrying.
type ResponseInterceptor func(ctx context.Context, resp *RawResponse) error

// AddRequestInterceptor appends a request interceptor.
func (c *Client) AddRequestInterceptor(ic RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqInterceptors = append(c.reqInterceptors, ic)
}

// AddResponseInterceptor appends a response interceptor.
func (c *Client) AddResponseInterceptor(ic ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.respInterceptors = append(c.respInterceptors, ic)
}

func (c *Client) interceptors() ([]RequestInterceptor, []ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RequestInterceptor(nil), c.reqInterceptors...),
		append([]ResponseInterceptor(nil), c.respInterceptors...)
}
