package apiclient

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Iron-Ham/adminkit/internal/errors"
	"github.com/Iron-Ham/adminkit/internal/util"
)

// Response is the normalized result of a request.
//
// JSON bodies shaped like {"success": bool, "data": ..., "message": ...} are
// unwrapped into the matching fields. Any other JSON body becomes Data with
// Success set. Text bodies become a JSON string in Data.
type Response struct {
	Success   bool
	Data      json.RawMessage
	Message   string
	Status    int
	Header    http.Header
	Raw       []byte
	FromCache bool
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return errors.NewValidationError("response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Get returns the value at a gjson path inside Data, e.g. "users.0.name".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Data, path)
}

// normalize converts a raw response into a Response. The result is non-nil
// whenever the body could be read, even if err reports a malformed body.
func normalize(raw *RawResponse) (*Response, error) {
	resp := &Response{
		Success: true,
		Status:  raw.Status,
		Header:  raw.Header,
		Raw:     raw.Body,
	}

	body := raw.Body
	if len(strings.TrimSpace(string(body))) == 0 {
		return resp, nil
	}

	mediaType, _, err := mime.ParseMediaType(raw.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"),
		mediaType == "" && gjson.ValidBytes(body):
		if !gjson.ValidBytes(body) {
			return resp, errors.NewValidationError("malformed JSON body").WithValue(util.Snippet(string(body), 64))
		}
		unwrapEnvelope(resp, body)
	case strings.HasPrefix(mediaType, "text/"), mediaType == "":
		b, _ := json.Marshal(string(body))
		resp.Data = b
	default:
		b, _ := json.Marshal(body)
		resp.Data = b
	}
	return resp, nil
}

func unwrapEnvelope(resp *Response, body []byte) {
	doc := gjson.ParseBytes(body)
	success := doc.Get("success")
	if !doc.IsObject() || (success.Type != gjson.True && success.Type != gjson.False) {
		resp.Data = json.RawMessage(body)
		return
	}

	resp.Success = success.Bool()
	resp.Message = doc.Get("message").String()
	if data := doc.Get("data"); data.Exists() {
		resp.Data = json.RawMessage(data.Raw)
	}
}
