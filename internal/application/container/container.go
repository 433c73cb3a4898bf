// Package container wires the tracking pipeline's services together from
// resolved configuration.
package container

import (
	"time"

	"github.com/AtRiskMedia/beacon-go/internal/application/services"
	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/domain/periods"
	"github.com/AtRiskMedia/beacon-go/internal/domain/session"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/metadata"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/persistence/state"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/transport"
)

// Options holds the fully resolved dependencies and flags the tracker runs
// with. Defaults are applied by the public surface before construction.
type Options struct {
	Logger   *logging.ChanneledLogger
	Clock    func() time.Time
	Sink     transport.Sink
	Store    state.Store
	Metadata metadata.Provider

	SessionTimeout time.Duration
	QueueSize      int

	CollectMetadata bool
	AutomaticEvents bool
	UniqueEvents    bool
	UniqueScopes    []periods.Scope
	Debug           bool
}

// Container holds the wired singleton services for one tracker instance.
type Container struct {
	Logger     *logging.ChanneledLogger
	Clock      func() time.Time
	Machine    *session.Machine
	Uniqueness *services.UniquenessService
	Enricher   *services.Enricher
	Dispatcher *services.Dispatcher
	Sessions   *services.SessionService
}

// New wires all services. The dispatcher's worker starts here; the caller
// owns Close.
func New(opts Options) *Container {
	now := opts.Clock()

	machine := session.NewMachine(opts.SessionTimeout)
	uniqueness := services.NewUniquenessService(opts.UniqueEvents, opts.UniqueScopes, opts.Store, opts.Logger, now)
	dispatcher := services.NewDispatcher(opts.Sink, opts.Logger, opts.QueueSize)
	enricher := services.NewEnricher(services.EnricherOptions{
		Clock:           opts.Clock,
		Logger:          opts.Logger,
		Dispatcher:      dispatcher,
		Uniqueness:      uniqueness,
		Metadata:        opts.Metadata,
		CollectMetadata: opts.CollectMetadata,
		Debug:           opts.Debug,
		ConfigBits:      configBits(opts),
	})
	sessions := services.NewSessionService(services.SessionServiceOptions{
		Machine:    machine,
		Enricher:   enricher,
		Uniqueness: uniqueness,
		Logger:     opts.Logger,
		Automatic:  opts.AutomaticEvents,
	})

	return &Container{
		Logger:     opts.Logger,
		Clock:      opts.Clock,
		Machine:    machine,
		Uniqueness: uniqueness,
		Enricher:   enricher,
		Dispatcher: dispatcher,
		Sessions:   sessions,
	}
}

// Close stops the dispatch worker after draining its backlog.
func (c *Container) Close() {
	c.Dispatcher.Close()
}

func configBits(opts Options) int {
	bits := 0
	if opts.CollectMetadata {
		bits |= events.ConfigBitMetadata
	}
	if opts.AutomaticEvents {
		bits |= events.ConfigBitAutomatic
	}
	if opts.UniqueEvents {
		bits |= events.ConfigBitUnique
	}
	if opts.Debug {
		bits |= events.ConfigBitDebug
	}
	return bits
}
