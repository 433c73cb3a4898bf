package services

import (
	"time"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/domain/periods"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/metadata"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
)

// EnricherOptions carries the construction-time inputs of the Enricher.
type EnricherOptions struct {
	Clock           func() time.Time
	Logger          *logging.ChanneledLogger
	Dispatcher      *Dispatcher
	Uniqueness      *UniquenessService
	Metadata        metadata.Provider
	CollectMetadata bool
	Debug           bool
	ConfigBits      int
}

// Enricher assembles outbound events: identity, timestamps, merged
// properties, the metadata block, previous-event linkage, and uniqueness
// flags. It owns the session-scoped mutable state the pipeline reads while
// building: super properties, the linkage, and the cached metadata
// snapshot.
type Enricher struct {
	clock      func() time.Time
	logger     *logging.ChanneledLogger
	dispatcher *Dispatcher
	uniqueness *UniquenessService
	provider   metadata.Provider

	collectMetadata bool
	debug           bool
	configBits      int

	snapshot   metadata.Snapshot
	superProps *events.Properties
	prevName   string
	prevUTC    string
}

// NewEnricher captures the first session's metadata snapshot. Providers are
// queried once per session, never per event.
func NewEnricher(opts EnricherOptions) *Enricher {
	e := &Enricher{
		clock:           opts.Clock,
		logger:          opts.Logger,
		dispatcher:      opts.Dispatcher,
		uniqueness:      opts.Uniqueness,
		provider:        opts.Metadata,
		collectMetadata: opts.CollectMetadata,
		debug:           opts.Debug,
		configBits:      opts.ConfigBits,
	}
	e.refreshSnapshot()
	return e
}

// SetSuperProperties replaces the super properties wholesale. There is no
// merge between successive calls.
func (e *Enricher) SetSuperProperties(props *events.Properties) {
	e.superProps = props.Clone()
	e.logger.Track().Debug("Super properties replaced", "count", e.superProps.Len())
}

// ResetSession clears the per-session mutable state at a session boundary:
// super properties, previous-event linkage, and the cached metadata
// snapshot.
func (e *Enricher) ResetSession() {
	e.superProps = nil
	e.prevName = ""
	e.prevUTC = ""
	e.refreshSnapshot()
}

// TrackUser builds and dispatches one caller-submitted event. Reserved and
// malformed names are logged and dropped; nothing propagates to the host.
func (e *Enricher) TrackUser(name string, props *events.Properties) {
	if err := events.ValidateCallerName(name); err != nil {
		e.logger.Track().Warn("Event rejected", "event", name, "error", err.Error())
		return
	}
	e.build(name, props)
}

// TrackAutomatic builds and dispatches one internally generated lifecycle
// event. The caller gates on the automatic-events flag; names must carry
// the reserved prefix.
func (e *Enricher) TrackAutomatic(name string) {
	if err := events.ValidateName(name); err != nil {
		e.logger.Track().Error("Invalid automatic event name", "event", name, "error", err.Error())
		return
	}
	e.build(name, nil)
}

func (e *Enricher) build(name string, props *events.Properties) {
	now := e.clock()

	ev := events.Event{
		ID:            events.NewID(),
		Name:          name,
		DatetimeUTC:   now.UTC().Format(time.RFC3339),
		Client:        events.ClientType,
		ClientVersion: events.ClientVersion,
		ClientConfig:  e.configBits,
		Debug:         e.debug,
	}
	if loc := now.Location(); loc != time.UTC {
		ev.DatetimeLocal = now.Format(time.RFC3339)
		ev.Timezone = loc.String()
		if ev.Timezone == "Local" {
			ev.Timezone, _ = now.Zone()
		}
	}

	merged := events.Merge(e.superProps, props)
	encoded, err := merged.Encode()
	if err != nil {
		// Encoding failures degrade to an empty properties field.
		e.logger.Track().Warn("Could not encode event properties", "event", name, "error", err.Error())
		encoded = ""
	}
	ev.Properties = encoded

	if e.collectMetadata {
		e.applyMetadata(&ev)
	}

	// Linkage updates unconditionally so automatic events participate in
	// the chain too.
	ev.PreviousEventName = e.prevName
	ev.PreviousEventDatetimeUTC = e.prevUTC
	e.prevName = ev.Name
	e.prevUTC = ev.DatetimeUTC

	firstOfSession, flags := e.uniqueness.Check(name, now)
	ev.FirstOfSession = firstOfSession
	for scope, first := range flags {
		applyScopeFlag(&ev, scope, first)
	}

	e.dispatcher.Enqueue(ev)
	e.logger.Track().Debug("Event enriched", "event", name, "id", ev.ID, "firstOfSession", firstOfSession)
}

func (e *Enricher) refreshSnapshot() {
	if e.provider == nil {
		e.snapshot = metadata.Snapshot{}
		return
	}
	e.snapshot = e.provider.Snapshot()
}

func (e *Enricher) applyMetadata(ev *events.Event) {
	snap := e.snapshot
	ev.Language = snap.Language
	ev.AppVersion = snap.AppVersion
	if !snap.AppInstallDate.IsZero() {
		ev.AppInstallDate = snap.AppInstallDate.UTC().Format(time.RFC3339)
	}
	ev.OSName = snap.OSName
	ev.OSMajorVersion = snap.OSMajorVersion
	ev.DeviceModel = snap.DeviceModel
	ev.DeviceManufacturer = snap.DeviceManufacturer
}

func applyScopeFlag(ev *events.Event, scope periods.Scope, first bool) {
	v := first
	switch scope {
	case periods.ScopeHour:
		ev.FirstOfHour = &v
	case periods.ScopeDay:
		ev.FirstOfDay = &v
	case periods.ScopeWeek:
		ev.FirstOfWeek = &v
	case periods.ScopeMonth:
		ev.FirstOfMonth = &v
	case periods.ScopeQuarter:
		ev.FirstOfQuarter = &v
	}
}
