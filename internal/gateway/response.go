package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/me/entrena/pkg/model"
)

// Response is the outcome of one gateway call. Status 0 means the request never
// completed at the network level; Err then holds the cause.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	Err       error
	RequestID string
	URL       string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// NetworkError reports whether this is a synthetic transport-failure response.
func (r *Response) NetworkError() bool {
	return r.Status == 0
}

// Unauthorized reports a 401 or 403 status.
func (r *Response) Unauthorized() bool {
	return r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden
}

// JSON decodes the body into v. For a transport failure it decodes
// {"error":"network error","detail":<cause>}.
func (r *Response) JSON(v any) error {
	body := r.Body
	if r.NetworkError() {
		body = r.syntheticBody()
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.Status, err)
	}
	return nil
}

// Text returns the body as a string, or the transport error message.
func (r *Response) Text() string {
	if r.NetworkError() {
		if r.Err == nil {
			return ""
		}
		return r.Err.Error()
	}
	return string(r.Body)
}

// Payload returns the decoded JSON body, falling back to the raw text when the
// body is not JSON.
func (r *Response) Payload() any {
	var v any
	if err := r.JSON(&v); err != nil {
		return r.Text()
	}
	return v
}

func (r *Response) syntheticBody() []byte {
	data, _ := json.Marshal(model.ErrorBody{Error: "network error", Detail: r.Text()})
	return data
}
