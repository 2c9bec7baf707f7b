package withings

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// Envelope is the {status, body} wrapper returned by every resource call.
type Envelope struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Field looks up path inside the body using gjson path syntax.
func (e *Envelope) Field(path string) gjson.Result {
	return gjson.GetBytes(e.Body, path)
}

// Decode unmarshals the body value at path into v. An empty path decodes
// the whole body.
func (e *Envelope) Decode(path string, v any) error {
	raw := []byte(e.Body)
	if path != "" {
		res := e.Field(path)
		if !res.Exists() {
			return fmt.Errorf("withings: response body has no %q field", path)
		}
		raw = []byte(res.Raw)
	}
	if len(raw) == 0 {
		return fmt.Errorf("withings: response has no body")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode response body %q: %w", path, err)
	}
	return nil
}

// Number returns the body value at path as a float64. Withings reports some
// counters as strings, so both JSON numbers and numeric strings are accepted.
func (e *Envelope) Number(path string) (float64, error) {
	res := e.Field(path)
	if !res.Exists() {
		return 0, fmt.Errorf("withings: response body has no %q field", path)
	}
	var n Number
	if err := n.UnmarshalJSON([]byte(res.Raw)); err != nil {
		return 0, err
	}
	return float64(n), nil
}

// decodeEnvelope parses resp and converts a non-zero status into an error.
func decodeEnvelope(resp *http.Response) (*Envelope, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}

	if env.Status != statusOK {
		var reqURL *url.URL
		if resp.Request != nil {
			reqURL = resp.Request.URL
		}
		return nil, mapStatusError(&env, reqURL)
	}

	return &env, nil
}

// Number is a float64 that decodes from either a JSON number or a numeric
// string.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	switch res.Type {
	case gjson.Null:
		*n = 0
		return nil
	case gjson.Number:
		*n = Number(res.Float())
		return nil
	case gjson.String:
		f, err := strconv.ParseFloat(res.Str, 64)
		if err != nil {
			return fmt.Errorf("withings: %q is not numeric", res.Str)
		}
		*n = Number(f)
		return nil
	default:
		return fmt.Errorf("withings: %s is not numeric", string(data))
	}
}
