package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Code is a business code. The backend sends numbers; the client's own
// sentinels are strings. Both decode into the same representation.
type Code string

// UnmarshalJSON accepts a JSON number or string.
func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

// Int returns the numeric value of a numeric code.
func (c Code) Int() (int, bool) {
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SuccessFunc decides whether an envelope code means success.
type SuccessFunc func(Code) bool

// DefaultSuccess accepts 0 and 200, the two conventions the backend uses.
func DefaultSuccess(c Code) bool {
	return c == "0" || c == "200"
}

// Envelope is the business wrapper returned by the backend.
type Envelope struct {
	Code    Code            `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// Text returns the server message, accepting either field name.
func (e *Envelope) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Msg
}

// Response flows through the response interceptor chain. The transport
// fills StatusCode, Header and Body; the envelope interceptor sets Data to the
// unwrapped payload.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Data is the payload handed to the caller. It is always valid JSON or nil.
	Data json.RawMessage

	// Envelope is set once the body has been decoded as a business envelope.
	Envelope *Envelope
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Data) == 0 {
		return errors.New("httpx: empty response data")
	}
	return json.Unmarshal(r.Data, v)
}

func isNullJSON(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// rawOrString returns body when it is valid JSON, else body encoded as a
// JSON string.
func rawOrString(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) > 0 && json.Valid(body) {
		return append(json.RawMessage(nil), body...)
	}
	b, _ := json.Marshal(string(body))
	return b
}
