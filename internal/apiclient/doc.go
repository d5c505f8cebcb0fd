// Package apiclient is the HTTP client adminkit components use to talk to the
// admin backend.
//
// Every call funnels through [Client.Request], which layers, in order:
//
//   - response caching for GET requests that opt in ([RequestOptions.Cache]),
//     bounded by an LRU and a TTL checked lazily on read
//   - de-duplication: concurrent calls with the same "METHOD:URL" key share
//     one in-flight request and receive the same [*Response]
//   - retries with exponential backoff (base * 2^attempt) for 5xx and network
//     failures; 4xx responses, timeouts and cancellation fail immediately
//   - request and response interceptors, run in registration order
//   - normalization of the body into a [Response] envelope
//
// Failures are returned as [*errors.APIError].
//
// # CSRF
//
// When CSRF protection is enabled, [Client.Init] fetches a token from the
// configured endpoint and adds it to the default headers. [Client.SetCSRFToken]
// installs a token obtained elsewhere, e.g. from a meta tag.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use.
package apiclient
