package gateway

import (
	"fmt"
	"strings"
)

// Policy selects how authorization failures are handled.
type Policy string

const (
	// PolicyNotifyOnly shows a notice and keeps the session.
	PolicyNotifyOnly Policy = "notifyOnly"
	// PolicyForceLogout shows a notice, clears the session and redirects to the
	// landing route.
	PolicyForceLogout Policy = "forceLogout"
)

// ParsePolicy accepts "notifyOnly"/"forceLogout" in any case, with or without
// a hyphen. An empty string selects PolicyNotifyOnly.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "", "notifyonly":
		return PolicyNotifyOnly, nil
	case "forcelogout":
		return PolicyForceLogout, nil
	}
	return "", fmt.Errorf("unknown auth policy %q (want notifyOnly or forceLogout)", s)
}

func (p Policy) String() string { return string(p) }
