package transport

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vibast-solutions/portal-payments/app/apierror"
)

type Pagination struct {
	Total   *int  `json:"total,omitempty"`
	Limit   int   `json:"limit,omitempty"`
	Offset  int   `json:"offset,omitempty"`
	HasMore *bool `json:"hasMore,omitempty"`
}

// Response is a successful backend reply. Data holds the payload: the "data"
// member of a {success, message, data} envelope, or the whole body for
// endpoints that answer with a bare payload (Legacy).
type Response struct {
	Status     int
	Legacy     bool
	Message    string
	Data       json.RawMessage
	Raw        json.RawMessage
	Pagination *Pagination
	RequestID  string
}

// Decode unmarshals the payload into v. An absent or null payload leaves v untouched.
func (r *Response) Decode(v interface{}) error {
	if isNull(r.Data) {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// DecodeRaw unmarshals the whole body, for endpoints that put fields next to
// the envelope members.
func (r *Response) DecodeRaw(v interface{}) error {
	if isNull(r.Raw) {
		return nil
	}
	return json.Unmarshal(r.Raw, v)
}

func (r *Response) HasData() bool {
	return !isNull(r.Data)
}

// DataIsArray reports whether the payload is a JSON array.
func (r *Response) DataIsArray() bool {
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Total      *int            `json:"total"`
}

func parseEnvelope(status int, raw []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(raw)
	out := &Response{Status: status, Raw: json.RawMessage(trimmed)}

	if len(trimmed) == 0 || trimmed[0] != '{' {
		out.Legacy = true
		out.Data = out.Raw
		return out, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: status, Message: "Invalid response from server", Err: err}
	}

	if env.Success == nil {
		out.Legacy = true
		out.Data = out.Raw
		return out, nil
	}

	out.Message = strings.TrimSpace(env.Message)
	if !*env.Success {
		message := out.Message
		if message == "" {
			message = strings.TrimSpace(env.Error)
		}
		if message == "" {
			message = "Request failed"
		}
		return nil, &apierror.Error{Kind: apierror.KindRequest, Status: status, Message: message}
	}

	out.Data = env.Data
	out.Pagination = env.Pagination
	if out.Pagination == nil && env.Total != nil {
		out.Pagination = &Pagination{Total: env.Total}
	}
	return out, nil
}

// extractMessage returns the "message" (or "error") member of a JSON error body.
func extractMessage(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var body struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return ""
	}
	if s, ok := body.Message.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if s, ok := body.Error.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
