// Package transport dispatches enriched events to the collection endpoint.
// Delivery is fire and forget: failures are reported to the caller for
// logging and nothing else.
package transport

import (
	"context"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
)

// Sink receives completed events. Implementations must not retry; the
// tracking pipeline abandons failed sends by design.
type Sink interface {
	Send(ctx context.Context, ev events.Event) error
	Close() error
}
