// Package router guards navigation between application sections.
//
// A Guard is pure: it maps a target path and the session's completeness to a
// Decision. Router adds the current-route state and notifies observers, which
// is how a pending forced-logout redirect learns that the user already reached
// the landing route.
package router
