package testutil

import (
	"context"
	"sync"

	"github.com/finops/ffc-billing/internal/domain/notification"
)

// RecordingNotifier implements notification.Sender by keeping what it was asked to send
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Send(_ context.Context, msg *notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *RecordingNotifier) Sent() []*notification.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*notification.Notification(nil), n.sent...)
}

func (n *RecordingNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}
