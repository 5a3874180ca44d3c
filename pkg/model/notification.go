package model

import "time"

// Notification is a transient user-visible message.
type Notification struct {
	ID       string        `json:"id"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	ShownAt  time.Time     `json:"shown_at"`
}

// ExpiresAt returns when the notification disappears.
func (n Notification) ExpiresAt() time.Time {
	return n.ShownAt.Add(n.Duration)
}
