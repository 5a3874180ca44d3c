package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/me/entrena/internal/logging"
	"github.com/me/entrena/pkg/model"
)

// TerminalHost renders notifications as lines on a writer, typically stderr.
// On a terminal the line is highlighted; otherwise it is plain text.
type TerminalHost struct {
	mu      sync.Mutex
	w       io.Writer
	color   bool
	visible map[string]model.Notification
}

// NewTerminalHost creates a host writing to w. A nil w yields a host that
// reports ErrNoHost.
func NewTerminalHost(w io.Writer) *TerminalHost {
	return &TerminalHost{
		w:       w,
		color:   w != nil && logging.IsTerminal(w),
		visible: make(map[string]model.Notification),
	}
}

// Place writes the notification, indented by how many are already stacked.
func (h *TerminalHost) Place(n model.Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.w == nil {
		return ErrNoHost
	}

	indent := strings.Repeat("  ", len(h.visible))
	line := fmt.Sprintf("%s» %s\n", indent, n.Message)
	if h.color {
		line = fmt.Sprintf("%s\x1b[7m %s \x1b[0m\n", indent, n.Message)
	}
	if _, err := io.WriteString(h.w, line); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	h.visible[n.ID] = n
	return nil
}

// Remove forgets the notification. Written lines cannot be erased from a
// scrolling terminal; removal only affects stacking.
func (h *TerminalHost) Remove(id string) {
	h.mu.Lock()
	delete(h.visible, id)
	h.mu.Unlock()
}

// Visible returns how many notifications are currently stacked.
func (h *TerminalHost) Visible() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.visible)
}
