package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/Iron-Ham/adminkit/internal/apiclient"
	"github.com/Iron-Ham/adminkit/internal/app"
	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <endpoint>",
	Short: "Call an API endpoint through the client",
	Long: `Call an API endpoint through the configured API client and print the
normalized response data.

The request goes through the same pipeline the dashboard uses: CSRF
token acquisition, default headers, interceptors, retries with backoff
and response envelope normalization.

Examples:
  adminkit fetch /users
  adminkit fetch /users --param page=2 --path 'data.#.name'
  adminkit fetch /users -X POST --data '{"name":"ada"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	addFetchFlags(fetchCmd.Flags())
	rootCmd.AddCommand(fetchCmd)
}

func addFetchFlags(fs *pflag.FlagSet) {
	fs.StringP("method", "X", http.MethodGet, "HTTP method")
	fs.StringP("data", "d", "", "request body (sent as JSON when it parses as JSON)")
	fs.StringArrayP("param", "p", nil, "query parameter as key=value (repeatable)")
	fs.StringArrayP("header", "H", nil, "request header as 'Name: value' (repeatable)")
	fs.String("path", "", "gjson path selecting part of the response data")
	fs.Bool("raw", false, "print the raw response body")
	fs.Bool("status", false, "print the HTTP status before the body")
}

// fetchOptions are the parsed fetch flags.
type fetchOptions struct {
	method     string
	data       string
	params     url.Values
	header     http.Header
	path       string
	raw        bool
	showStatus bool
}

func parseFetchFlags(flags *pflag.FlagSet) (fetchOptions, error) {
	var o fetchOptions
	o.method, _ = flags.GetString("method")
	o.method = strings.ToUpper(o.method)
	o.data, _ = flags.GetString("data")
	o.path, _ = flags.GetString("path")
	o.raw, _ = flags.GetBool("raw")
	o.showStatus, _ = flags.GetBool("status")

	params, _ := flags.GetStringArray("param")
	for _, p := range params {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return o, fmt.Errorf("invalid --param %q: expected key=value", p)
		}
		if o.params == nil {
			o.params = url.Values{}
		}
		o.params.Add(k, v)
	}

	headers, _ := flags.GetStringArray("header")
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return o, fmt.Errorf("invalid --header %q: expected 'Name: value'", h)
		}
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return o, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	opts, err := parseFetchFlags(cmd.Flags())
	if err != nil {
		return err
	}

	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return fetch(ctx, a, args[0], opts, cmd.OutOrStdout())
}

// fetch starts a and writes the response of one request to w.
func fetch(ctx context.Context, a *app.App, endpoint string, o fetchOptions, w io.Writer) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	req := &apiclient.RequestOptions{
		Params: o.params,
		Header: o.header,
	}
	if o.data != "" {
		req.Data = jsonOrText(o.data)
	}

	resp, err := a.API().Request(ctx, o.method, endpoint, req)
	if err != nil {
		if msg := userMessage(err); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}

	if o.showStatus {
		fmt.Fprintf(w, "%d %s\n", resp.Status, http.StatusText(resp.Status))
	}
	if o.raw {
		_, err = w.Write(resp.Raw)
		return err
	}
	if !resp.Success && resp.Message != "" {
		fmt.Fprintf(w, "request reported failure: %s\n", resp.Message)
	}
	if len(resp.Data) == 0 {
		return nil
	}

	path := "@pretty"
	if o.path != "" {
		path = o.path + "|@pretty"
	}
	result := resp.Get(path)
	if !result.Exists() {
		return fmt.Errorf("path %q matched nothing", o.path)
	}
	fmt.Fprintln(w, strings.TrimRight(result.String(), "\n"))
	return nil
}

// jsonOrText sends s as a JSON document when it is one.
func jsonOrText(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') && gjson.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return s
}

// userMessage returns a short explanation for errors a user can act on.
func userMessage(err error) string {
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	switch {
	case errors.Is(err, errors.ErrCSRFToken):
		return "could not obtain a CSRF token"
	case errors.Is(err, errors.ErrTimeout):
		return "the API did not respond in time"
	case apiErr.Status >= 500:
		return "the API failed"
	case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
		return "the API rejected the credentials"
	}
	return ""
}
