package beacon

import (
	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/domain/periods"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/lifecycle"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/metadata"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/persistence/state"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/transport"
)

// Aliases exposing the types a host needs without reaching into internal
// packages.
type (
	// Event is the wire shape handed to a Sink.
	Event = events.Event
	// Properties is an insertion-ordered property mapping.
	Properties = events.Properties
	// Value is a closed-union property value.
	Value = events.Value

	// Scope names a tracked period granularity.
	Scope = periods.Scope

	// Store persists uniqueness state across restarts.
	Store = state.Store
	// Sink receives completed events.
	Sink = transport.Sink

	// MetadataProvider supplies session-scoped host facts.
	MetadataProvider = metadata.Provider
	// MetadataSnapshot is one session's metadata block.
	MetadataSnapshot = metadata.Snapshot

	// LifecycleSource streams background/foreground/terminate signals.
	LifecycleSource = lifecycle.Source
	// LifecycleSignal is one lifecycle notification.
	LifecycleSignal = lifecycle.Signal
)

// Property value constructors.
var (
	NewProperties = events.NewProperties
	String        = events.String
	Number        = events.Number
	Bool          = events.Bool
	Null          = events.Null
	List          = events.List
	Object        = events.Object
)

// Tracked period scopes.
const (
	ScopeHour    = periods.ScopeHour
	ScopeDay     = periods.ScopeDay
	ScopeWeek    = periods.ScopeWeek
	ScopeMonth   = periods.ScopeMonth
	ScopeQuarter = periods.ScopeQuarter
)

// ReservedPrefix marks event names owned by the library.
const ReservedPrefix = events.ReservedPrefix

// Lifecycle signal values for custom sources.
const (
	Backgrounded = lifecycle.Backgrounded
	Foregrounded = lifecycle.Foregrounded
	Terminated   = lifecycle.Terminated
)

// NewManualLifecycleSource returns a source the host pushes signals into.
var NewManualLifecycleSource = lifecycle.NewManualSource

// NewOSLifecycleSource returns a source translating SIGINT/SIGTERM into a
// terminate signal.
var NewOSLifecycleSource = lifecycle.NewOSSource

// Store constructors for common deployments.
var (
	NewMemoryStore = state.NewMemoryStore
	NewFileStore   = state.NewFileStore
	NewSQLStore    = state.NewSQLStore
	NewRedisStore  = state.NewRedisStore
)

// StaticMetadata wraps a fixed metadata snapshot as a provider.
func StaticMetadata(snap MetadataSnapshot) MetadataProvider {
	return metadata.StaticProvider{Value: snap}
}
