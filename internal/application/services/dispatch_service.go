// Package services contains the application services composing the tracking
// pipeline: enrichment, uniqueness, session boundaries, and dispatch.
package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/transport"
)

// DefaultQueueSize bounds the dispatch backlog. Tracking calls never block
// on the network; a full queue drops the event with a log line.
const DefaultQueueSize = 256

const sendTimeout = 15 * time.Second

// Dispatcher decouples event building from delivery with a buffered queue
// and a single worker goroutine. Delivery outcomes surface only as log
// lines; nothing feeds back into the tracking pipeline.
type Dispatcher struct {
	sink   transport.Sink
	logger *logging.ChanneledLogger
	queue  chan events.Event
	done   chan struct{}
	closed atomic.Bool
}

// NewDispatcher starts the delivery worker immediately.
func NewDispatcher(sink transport.Sink, logger *logging.ChanneledLogger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan events.Event, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sink.Send(ctx, ev); err != nil {
			d.logger.Transport().Warn("Event delivery failed",
				"event", ev.Name, "id", ev.ID, "error", err.Error())
		} else {
			d.logger.Transport().Debug("Event delivered", "event", ev.Name, "id", ev.ID)
		}
		cancel()
	}
}

// Enqueue hands an event to the worker without blocking. It reports whether
// the event was accepted.
func (d *Dispatcher) Enqueue(ev events.Event) bool {
	if d.closed.Load() {
		d.logger.Transport().Warn("Event dropped, dispatcher closed", "event", ev.Name)
		return false
	}
	select {
	case d.queue <- ev:
		return true
	default:
		d.logger.Transport().Warn("Event dropped, dispatch queue full", "event", ev.Name)
		return false
	}
}

// Close stops accepting events and waits for the worker to drain the
// backlog, so events enqueued during termination still get their one
// delivery attempt.
func (d *Dispatcher) Close() {
	if d.closed.Swap(true) {
		return
	}
	close(d.queue)
	<-d.done
}
