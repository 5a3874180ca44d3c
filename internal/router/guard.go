package router

import "strings"

// Decision is the outcome of evaluating a navigation intent.
type Decision struct {
	Allowed bool
	// Target is where navigation ends up: the requested path when allowed, the
	// landing route otherwise.
	Target string
}

// Guard redirects unauthenticated navigation away from protected prefixes.
type Guard struct {
	Protected []string
	Landing   string
}

// DefaultGuard protects the client, trainer and admin sections.
func DefaultGuard() Guard {
	return Guard{
		Protected: []string{"/cliente", "/entrenador", "/admin"},
		Landing:   "/",
	}
}

// IsProtected reports whether path falls under a protected prefix. A prefix
// matches itself and anything below it ("/cliente" matches "/cliente/mediciones"
// but not "/clientela").
func (g Guard) IsProtected(path string) bool {
	for _, p := range g.Protected {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Evaluate decides a navigation to target given whether the session is complete.
// The requested target is not remembered when redirecting.
func (g Guard) Evaluate(target string, sessionComplete bool) Decision {
	if g.IsProtected(stripQuery(target)) && !sessionComplete {
		return Decision{Allowed: false, Target: g.Landing}
	}
	return Decision{Allowed: true, Target: target}
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
