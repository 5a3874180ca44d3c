package model

import "fmt"

// ErrorBody is the common shape of error responses, e.g.
// {"error":"invalid credentials"} or {"error":"db error","detail":"..."}.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Message renders the body for display.
func (b ErrorBody) Message() string {
	switch {
	case b.Error == "" && b.Detail == "":
		return ""
	case b.Detail == "":
		return b.Error
	case b.Error == "":
		return b.Detail
	}
	return fmt.Sprintf("%s: %s", b.Error, b.Detail)
}
