package notify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/me/entrena/pkg/model"
)

// DefaultDuration is used when Show is given a non-positive duration.
const DefaultDuration = 2 * time.Second

// ErrNoHost is returned by hosts that cannot display anything.
var ErrNoHost = errors.New("notification host unavailable")

// Host is the surface notifications are placed on.
type Host interface {
	Place(n model.Notification) error
	Remove(id string)
}

// Notifier is what other components depend on.
type Notifier interface {
	Show(message string, d time.Duration) string
}

// Channel places notifications on a Host and dismisses them on their timers.
type Channel struct {
	host   Host
	alert  io.Writer
	clock  clockwork.Clock
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*entry
}

type entry struct {
	n     model.Notification
	timer clockwork.Timer
}

// Option configures a Channel.
type Option func(*Channel)

// WithClock sets the clock driving dismissal timers.
func WithClock(c clockwork.Clock) Option {
	return func(ch *Channel) { ch.clock = c }
}

// WithAlert sets the writer used when the host is unavailable. Defaults to stderr.
func WithAlert(w io.Writer) Option {
	return func(ch *Channel) { ch.alert = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ch *Channel) { ch.logger = l }
}

// NewChannel creates a Channel. host may be nil, in which case every message
// falls back to the alert writer.
func NewChannel(host Host, opts ...Option) *Channel {
	ch := &Channel{
		host:   host,
		alert:  os.Stderr,
		clock:  clockwork.NewRealClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		active: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(ch)
	}
	ch.logger = ch.logger.With("component", "notify")
	return ch
}

// Show displays message for d (DefaultDuration when d <= 0) and returns the
// notification ID. It never blocks on the host and never panics.
func (c *Channel) Show(message string, d time.Duration) string {
	if d <= 0 {
		d = DefaultDuration
	}
	n := model.Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Duration: d,
		ShownAt:  c.clock.Now(),
	}

	if err := c.place(n); err != nil {
		c.logger.Debug("host unavailable, falling back to alert", "error", err)
		c.fallback(message)
		return n.ID
	}

	c.mu.Lock()
	c.active[n.ID] = &entry{
		n:     n,
		timer: c.clock.AfterFunc(d, func() { c.dismiss(n.ID) }),
	}
	c.mu.Unlock()

	c.logger.Debug("notification shown", "id", n.ID, "duration", d)
	return n.ID
}

// Active returns the visible notifications, oldest first. A notification past
// its expiry is not reported even if its dismissal has not run yet.
func (c *Channel) Active() []model.Notification {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, 0, len(c.active))
	for _, e := range c.active {
		if !now.Before(e.n.ExpiresAt()) {
			continue
		}
		out = append(out, e.n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShownAt.Before(out[j].ShownAt) })
	return out
}

// Close stops every pending timer and removes the visible notifications.
func (c *Channel) Close() {
	c.mu.Lock()
	entries := c.active
	c.active = make(map[string]*entry)
	c.mu.Unlock()

	for id, e := range entries {
		e.timer.Stop()
		c.remove(id)
	}
}

func (c *Channel) dismiss(id string) {
	c.mu.Lock()
	_, ok := c.active[id]
	delete(c.active, id)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.remove(id)
	c.logger.Debug("notification dismissed", "id", id)
}

func (c *Channel) place(n model.Notification) (err error) {
	if c.host == nil {
		return ErrNoHost
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()
	return c.host.Place(n)
}

func (c *Channel) remove(id string) {
	if c.host == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("host panic on remove", "id", id, "panic", r)
		}
	}()
	c.host.Remove(id)
}

func (c *Channel) fallback(message string) {
	if c.alert == nil {
		return
	}
	if _, err := fmt.Fprintf(c.alert, "ALERT: %s\n", message); err != nil {
		c.logger.Warn("alert fallback failed", "error", err)
	}
}
