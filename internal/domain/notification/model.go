package notification

import (
	"context"

	"github.com/finops/ffc-billing/internal/types"
)

// Details is a table rendered below the notification text
type Details struct {
	Header []string
	Rows   [][]string
}

type Notification struct {
	Level   types.NotificationLevel
	Title   string
	Text    string
	Details *Details
}

// Sender delivers notifications to operators
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}
