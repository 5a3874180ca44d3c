package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/me/entrena/internal/gateway"
	"github.com/me/entrena/pkg/model"
)

// ErrNetwork matches StatusErrors for requests that never completed.
var ErrNetwork = errors.New("network error")

// ErrNoToken is returned when a successful login carries no token.
var ErrNoToken = errors.New("login response has no token")

// ErrIncompleteLogin is returned when a successful login lacks user_id or role.
var ErrIncompleteLogin = errors.New("login response has no user_id or role")

// StatusError is returned for any non-2xx outcome. Status 0 means the request
// failed at the network level and Err holds the cause.
type StatusError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *StatusError) Error() string {
	if e.Status == 0 {
		if e.Err == nil {
			return ErrNetwork.Error()
		}
		return fmt.Sprintf("%s: %v", ErrNetwork, e.Err)
	}
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// Unwrap exposes ErrNetwork and the transport cause for status 0.
func (e *StatusError) Unwrap() []error {
	if e.Status != 0 {
		return nil
	}
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// Message returns the server's error text, or the raw body when it is not the
// usual {"error": ...} shape.
func (e *StatusError) Message() string {
	var body model.ErrorBody
	if err := json.Unmarshal(e.Body, &body); err == nil {
		if msg := body.Message(); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(e.Body))
}

// StatusCode returns the HTTP status of err if it is a *StatusError, or -1.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return -1
}

// check turns a non-2xx response into a *StatusError.
func check(resp *gateway.Response) error {
	if resp.OK() {
		return nil
	}
	return &StatusError{Status: resp.Status, Body: resp.Body, Err: resp.Err}
}
