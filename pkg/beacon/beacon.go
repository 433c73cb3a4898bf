// Package beacon is the public surface of the event tracking library:
// a Config describing one project's tracking setup and a Tracker built
// from it.
//
// Construction replaces the configure-then-use pattern common in analytics
// SDKs: a Tracker cannot exist without a valid Config, so there is no
// "used before configured" failure mode.
package beacon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AtRiskMedia/beacon-go/internal/application/container"
	"github.com/AtRiskMedia/beacon-go/internal/domain/periods"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/lifecycle"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/metadata"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/persistence/state"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/transport"
)

// DefaultEndpoint is the production collection endpoint.
const DefaultEndpoint = "https://collect.atriskmedia.com"

// DefaultSessionTimeout is how long the app must stay backgrounded before
// the next foreground transition counts as a new session.
const DefaultSessionTimeout = 60 * time.Second

// Config describes one project's tracking setup. ProjectID and ProjectToken
// are required; everything else has working defaults.
type Config struct {
	ProjectID    string // routing identifier, sent as a query parameter
	ProjectToken string // bearer credential for the collection endpoint
	Endpoint     string // collection base URL; DefaultEndpoint when empty

	DisableEventMetadata   bool  // drop the device/app/locale metadata block
	DisableAutomaticEvents bool  // suppress internally generated lifecycle events
	TrackUniqueEvents      bool  // enable multi-period uniqueness tracking and persistence
	UniqueScopes           []Scope // tracked calendar scopes; all of them when empty
	Debug                  bool  // mark outbound events as debug traffic

	SessionTimeout time.Duration // DefaultSessionTimeout when zero

	AppVersion     string    // host application version for the metadata block
	AppInstallDate time.Time // host application install date for the metadata block

	// Injectable collaborators. Each nil field gets a default: HTTP sink,
	// file store, host metadata provider, console logger, time.Now.
	Store     Store
	Sink      Sink
	Metadata  MetadataProvider
	Lifecycle LifecycleSource
	Logger    *logging.ChanneledLogger
	Clock     func() time.Time

	// QueueSize bounds the dispatch backlog; services.DefaultQueueSize
	// when zero.
	QueueSize int
}

// Validate checks the required fields.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("beacon: Config.ProjectID is required")
	}
	if c.ProjectToken == "" {
		return fmt.Errorf("beacon: Config.ProjectToken is required")
	}
	for _, s := range c.UniqueScopes {
		if _, ok := periods.Rank(s); !ok {
			return fmt.Errorf("beacon: Config.UniqueScopes contains unknown scope %q", s)
		}
	}
	return nil
}

// Tracker is the long-lived tracking pipeline for one project. All methods
// are safe for concurrent use; one mutex serializes the mutable pipeline
// state. No method ever panics into the host.
type Tracker struct {
	mu     sync.Mutex
	c      *container.Container
	store  state.Store
	sink   transport.Sink
	closed bool

	ownStore bool
	ownSink  bool
}

// New builds a Tracker, restores persisted uniqueness state, and fires the
// first session's start event. When cfg.Lifecycle is set, a goroutine
// consumes its signals; hosts without a signal stream call the Notify
// methods and Close directly.
func New(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewChanneledLogger(logging.DefaultLoggerConfig())
		if err != nil {
			return nil, fmt.Errorf("beacon: create logger: %w", err)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	sessionTimeout := cfg.SessionTimeout
	if sessionTimeout == 0 {
		sessionTimeout = DefaultSessionTimeout
	}

	sink := cfg.Sink
	ownSink := false
	if sink == nil {
		var err error
		sink, err = transport.NewHTTPSink(endpoint, cfg.ProjectID, cfg.ProjectToken)
		if err != nil {
			return nil, err
		}
		ownSink = true
	}

	store := cfg.Store
	ownStore := false
	if store == nil {
		if cfg.TrackUniqueEvents {
			var err error
			store, err = state.DefaultFileStore()
			if err != nil {
				return nil, err
			}
			ownStore = true
		} else {
			store = state.NewMemoryStore()
		}
	}

	provider := cfg.Metadata
	if provider == nil {
		provider = metadata.HostProvider{
			AppVersion:     cfg.AppVersion,
			AppInstallDate: cfg.AppInstallDate,
		}
	}

	scopes := cfg.UniqueScopes
	if cfg.TrackUniqueEvents && len(scopes) == 0 {
		scopes = periods.CalendarScopes
	}

	c := container.New(container.Options{
		Logger:          logger,
		Clock:           clock,
		Sink:            sink,
		Store:           store,
		Metadata:        provider,
		SessionTimeout:  sessionTimeout,
		QueueSize:       cfg.QueueSize,
		CollectMetadata: !cfg.DisableEventMetadata,
		AutomaticEvents: !cfg.DisableAutomaticEvents,
		UniqueEvents:    cfg.TrackUniqueEvents,
		UniqueScopes:    scopes,
		Debug:           cfg.Debug,
	})

	t := &Tracker{c: c, store: store, sink: sink, ownStore: ownStore, ownSink: ownSink}

	loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	c.Uniqueness.Load(loadCtx, clock())
	cancel()

	c.Sessions.Start()
	logger.Startup().Info("Tracker started",
		"projectId", cfg.ProjectID,
		"token", logging.MaskToken(cfg.ProjectToken),
		"uniqueEvents", cfg.TrackUniqueEvents)

	if cfg.Lifecycle != nil {
		go t.consume(cfg.Lifecycle)
	}
	return t, nil
}

func (t *Tracker) consume(src lifecycle.Source) {
	for sig := range src.Signals() {
		switch sig {
		case lifecycle.Backgrounded:
			t.NotifyBackground()
		case lifecycle.Foregrounded:
			t.NotifyForeground()
		case lifecycle.Terminated:
			t.Close()
			return
		}
	}
}

// Track submits one event. Names starting with the reserved automatic
// prefix are logged and dropped. Properties are merged over the super
// properties, caller values winning on collision.
func (t *Tracker) Track(name string, props *Properties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.c.Logger.Track().Warn("Event dropped, tracker closed", "event", name)
		return
	}
	t.c.Enricher.TrackUser(name, props)
}

// SetSuperProperties replaces the session-wide properties wholesale. They
// reset to empty at the next session boundary.
func (t *Tracker) SetSuperProperties(props *Properties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.c.Enricher.SetSuperProperties(props)
}

// NotifyBackground records that the host application left the foreground.
func (t *Tracker) NotifyBackground() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.c.Sessions.Background()
}

// NotifyForeground records that the host application returned to the
// foreground, starting a new session when the background stay exceeded the
// session timeout.
func (t *Tracker) NotifyForeground() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.c.Sessions.Foreground()
}

// Close terminates the tracker: the session end event fires, uniqueness
// state persists synchronously, and the dispatch backlog drains. Close is
// idempotent; the first error wins.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := t.c.Sessions.Terminate(ctx)
	t.c.Close()

	if t.ownSink {
		if cerr := t.sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if t.ownStore {
		if cerr := t.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	t.c.Logger.Shutdown().Info("Tracker closed")
	return err
}
