package services

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/domain/periods"
	"github.com/AtRiskMedia/beacon-go/internal/domain/session"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/metadata"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/persistence/state"
)

type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *captureSink) Send(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) all() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, len(s.events))
	copy(out, s.events)
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type pipeline struct {
	clock      *fakeClock
	sink       *captureSink
	store      state.Store
	dispatcher *Dispatcher
	enricher   *Enricher
	uniqueness *UniquenessService
	sessions   *SessionService
}

type pipelineConfig struct {
	unique    bool
	automatic bool
	metadata  bool
	store     state.Store
	provider  metadata.Provider
}

func newPipeline(t *testing.T, cfg pipelineConfig) *pipeline {
	t.Helper()
	logger := logging.NewSilentLogger()
	clock := &fakeClock{now: time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)}
	sink := &captureSink{}
	store := cfg.store
	if store == nil {
		store = state.NewMemoryStore()
	}

	uniqueness := NewUniquenessService(cfg.unique, periods.CalendarScopes, store, logger, clock.Now())
	uniqueness.Load(context.Background(), clock.Now())
	dispatcher := NewDispatcher(sink, logger, 16)
	enricher := NewEnricher(EnricherOptions{
		Clock:           clock.Now,
		Logger:          logger,
		Dispatcher:      dispatcher,
		Uniqueness:      uniqueness,
		Metadata:        cfg.provider,
		CollectMetadata: cfg.metadata,
	})
	sessions := NewSessionService(SessionServiceOptions{
		Machine:    session.NewMachine(60 * time.Second),
		Enricher:   enricher,
		Uniqueness: uniqueness,
		Logger:     logger,
		Automatic:  cfg.automatic,
	})
	return &pipeline{
		clock:      clock,
		sink:       sink,
		store:      store,
		dispatcher: dispatcher,
		enricher:   enricher,
		uniqueness: uniqueness,
		sessions:   sessions,
	}
}

// drain stops the dispatcher so every enqueued event has been delivered.
func (p *pipeline) drain() []events.Event {
	p.dispatcher.Close()
	return p.sink.all()
}

func TestReservedNameIsDropped(t *testing.T) {
	p := newPipeline(t, pipelineConfig{})

	p.enricher.TrackUser(events.ReservedPrefix+"sessionStart", nil)
	p.enricher.TrackUser("", nil)

	if got := p.drain(); len(got) != 0 {
		t.Errorf("rejected names dispatched %d events, want 0", len(got))
	}
}

func TestTrackDispatchesExactlyOnce(t *testing.T) {
	p := newPipeline(t, pipelineConfig{})
	p.enricher.TrackUser("purchase", nil)

	got := p.drain()
	if len(got) != 1 {
		t.Fatalf("dispatched %d events, want 1", len(got))
	}
	ev := got[0]
	if ev.Name != "purchase" || ev.ID == "" || ev.DatetimeUTC == "" {
		t.Errorf("incomplete event: %+v", ev)
	}
	if ev.Client != events.ClientType || ev.ClientVersion != events.ClientVersion {
		t.Error("client descriptors missing")
	}
}

func TestLinkageChaining(t *testing.T) {
	p := newPipeline(t, pipelineConfig{})

	p.enricher.TrackUser("X", nil)
	p.clock.Advance(time.Minute)
	p.enricher.TrackUser("Y", nil)

	got := p.drain()
	if len(got) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(got))
	}
	x, y := got[0], got[1]
	if x.PreviousEventName != "" {
		t.Error("first event of a lineage must have no previous-event linkage")
	}
	if y.PreviousEventName != "X" || y.PreviousEventDatetimeUTC != x.DatetimeUTC {
		t.Errorf("Y linkage = (%q, %q), want (X, %q)",
			y.PreviousEventName, y.PreviousEventDatetimeUTC, x.DatetimeUTC)
	}
}

func TestAutomaticEventsJoinLinkageChain(t *testing.T) {
	p := newPipeline(t, pipelineConfig{automatic: true})

	p.sessions.Start()
	p.enricher.TrackUser("firstTap", nil)

	got := p.drain()
	if len(got) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(got))
	}
	if got[0].Name != events.EventSessionStart {
		t.Fatalf("first event = %q, want session start", got[0].Name)
	}
	if got[1].PreviousEventName != events.EventSessionStart {
		t.Error("automatic events must participate in the linkage chain")
	}
}

func TestFirstOfDayFlags(t *testing.T) {
	p := newPipeline(t, pipelineConfig{unique: true})

	for _, name := range []string{"A", "A", "B"} {
		p.enricher.TrackUser(name, nil)
	}

	got := p.drain()
	want := []bool{true, false, true}
	for i, ev := range got {
		if ev.FirstOfDay == nil {
			t.Fatalf("event %d has no first_of_day flag", i)
		}
		if *ev.FirstOfDay != want[i] {
			t.Errorf("event %d first_of_day = %v, want %v", i, *ev.FirstOfDay, want[i])
		}
	}
}

func TestUniquenessFlagsAbsentWhenDisabled(t *testing.T) {
	p := newPipeline(t, pipelineConfig{unique: false})
	p.enricher.TrackUser("A", nil)

	got := p.drain()
	if len(got) != 1 {
		t.Fatalf("dispatched %d events, want 1", len(got))
	}
	ev := got[0]
	if !ev.FirstOfSession {
		t.Error("first_of_session is always computed")
	}
	if ev.FirstOfHour != nil || ev.FirstOfDay != nil || ev.FirstOfWeek != nil ||
		ev.FirstOfMonth != nil || ev.FirstOfQuarter != nil {
		t.Error("calendar scope flags must be absent when unique tracking is off")
	}
}

func TestSuperPropertyMergeAndWholesaleReplace(t *testing.T) {
	p := newPipeline(t, pipelineConfig{})

	p.enricher.SetSuperProperties(events.NewProperties().
		Set("a", events.Number(1)).
		Set("b", events.Number(2)))
	p.enricher.TrackUser("first", events.NewProperties().Set("b", events.Number(3)))

	p.enricher.SetSuperProperties(events.NewProperties().Set("c", events.Number(4)))
	p.enricher.TrackUser("second", nil)

	got := p.drain()
	if got[0].Properties != `{"a":1,"b":3}` {
		t.Errorf("merged properties = %s, want caller winning on collision", got[0].Properties)
	}
	if got[1].Properties != `{"c":4}` {
		t.Errorf("properties = %s; SetSuperProperties must replace wholesale", got[1].Properties)
	}
}

func TestEncodeFailureDegradesToEmptyProperties(t *testing.T) {
	p := newPipeline(t, pipelineConfig{})

	p.enricher.TrackUser("broken", events.NewProperties().
		Set("nan", events.Number(math.NaN())))

	got := p.drain()
	if len(got) != 1 {
		t.Fatalf("dispatched %d events, want 1", len(got))
	}
	if got[0].Properties != "" {
		t.Errorf("properties = %q, want empty string on encode failure", got[0].Properties)
	}
}

func TestMetadataAttachedFromSessionSnapshot(t *testing.T) {
	provider := metadata.StaticProvider{Value: metadata.Snapshot{
		Language:           "en",
		AppVersion:         "2.3.1",
		OSName:             "linux",
		OSMajorVersion:     "6",
		DeviceModel:        "amd64",
		DeviceManufacturer: "generic",
	}}
	p := newPipeline(t, pipelineConfig{metadata: true, provider: provider})

	p.enricher.TrackUser("view", nil)

	got := p.drain()
	ev := got[0]
	if ev.Language != "en" || ev.AppVersion != "2.3.1" || ev.OSName != "linux" ||
		ev.DeviceModel != "amd64" || ev.DeviceManufacturer != "generic" {
		t.Errorf("metadata block incomplete: %+v", ev)
	}
}

func TestMetadataOmittedWhenDisabled(t *testing.T) {
	provider := metadata.StaticProvider{Value: metadata.Snapshot{Language: "en"}}
	p := newPipeline(t, pipelineConfig{metadata: false, provider: provider})

	p.enricher.TrackUser("view", nil)

	if got := p.drain(); got[0].Language != "" {
		t.Error("metadata must be absent when collection is disabled")
	}
}

func TestSessionBoundaryResetsState(t *testing.T) {
	p := newPipeline(t, pipelineConfig{automatic: true})

	p.sessions.Start()
	p.enricher.SetSuperProperties(events.NewProperties().Set("plan", events.String("pro")))
	p.enricher.TrackUser("beforeBoundary", nil)

	p.sessions.Background()
	p.clock.Advance(61 * time.Second)
	p.sessions.Foreground()

	p.enricher.TrackUser("afterBoundary", nil)

	got := p.drain()
	// sessionStart, beforeBoundary, sessionStart, afterBoundary
	if len(got) != 4 {
		t.Fatalf("dispatched %d events, want 4", len(got))
	}
	if got[2].Name != events.EventSessionStart {
		t.Fatalf("boundary did not emit a session start, got %q", got[2].Name)
	}
	if got[2].PreviousEventName != "" {
		t.Error("previous-event linkage must be cleared at a session boundary")
	}
	if !got[3].FirstOfSession {
		t.Error("session-scope seen list must be cleared at a session boundary")
	}
	if got[3].Properties != "{}" {
		t.Errorf("super properties must reset at a session boundary, got %s", got[3].Properties)
	}
}

func TestShortBackgroundResumesSilently(t *testing.T) {
	p := newPipeline(t, pipelineConfig{automatic: true})

	p.sessions.Start()
	p.enricher.TrackUser("before", nil)

	p.sessions.Background()
	p.clock.Advance(59 * time.Second)
	p.sessions.Foreground()

	p.enricher.TrackUser("after", nil)

	got := p.drain()
	// sessionStart, before, after — no second sessionStart
	if len(got) != 3 {
		t.Fatalf("dispatched %d events, want 3", len(got))
	}
	if got[2].PreviousEventName != "before" {
		t.Error("linkage must be untouched when the session resumes")
	}
	if got[2].FirstOfSession {
		t.Error("session seen list must survive a short background stay")
	}
}

func TestTerminatePersistsCompactedState(t *testing.T) {
	store := state.NewMemoryStore()
	p := newPipeline(t, pipelineConfig{unique: true, automatic: false, store: store})

	p.enricher.TrackUser("A", nil)
	p.enricher.TrackUser("B", nil)

	if err := p.sessions.Terminate(context.Background()); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	p.drain()

	blob, err := store.Load(context.Background(), StorageKey)
	if err != nil {
		t.Fatalf("no blob persisted: %v", err)
	}
	var snap periods.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		t.Fatalf("persisted blob is not a snapshot: %v", err)
	}
	if len(snap[periods.ScopeHour].Events) != 2 {
		t.Errorf("hour scope persisted %v, want [A B]", snap[periods.ScopeHour].Events)
	}
	if len(snap[periods.ScopeDay].Events) != 0 {
		t.Error("longer scopes must persist compacted against shorter ones")
	}
}

func TestRestartRestoresUniquenessState(t *testing.T) {
	store := state.NewMemoryStore()

	p1 := newPipeline(t, pipelineConfig{unique: true, store: store})
	p1.enricher.TrackUser("A", nil)
	if err := p1.sessions.Terminate(context.Background()); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	p1.drain()

	p2 := newPipeline(t, pipelineConfig{unique: true, store: store})
	p2.enricher.TrackUser("A", nil)

	got := p2.drain()
	ev := got[0]
	if !ev.FirstOfSession {
		t.Error("session scope is memory-resident and must not survive a restart")
	}
	if *ev.FirstOfDay {
		t.Error("day scope must survive the restart via the persisted blob")
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	p := newPipeline(t, pipelineConfig{automatic: true})

	p.sessions.Terminate(context.Background())
	p.sessions.Terminate(context.Background())

	got := p.drain()
	count := 0
	for _, ev := range got {
		if ev.Name == events.EventSessionEnd {
			count++
		}
	}
	if count != 1 {
		t.Errorf("session end emitted %d times, want 1", count)
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	logger := logging.NewSilentLogger()
	sink := &blockingSink{active: make(chan struct{}, 1), release: make(chan struct{})}
	d := NewDispatcher(sink, logger, 1)

	if !d.Enqueue(events.Event{Name: "one"}) {
		t.Fatal("empty queue rejected an event")
	}
	// Wait until the worker holds "one", so "two" definitely fills the
	// buffer and "three" finds it full.
	select {
	case <-sink.active:
	case <-time.After(time.Second):
		t.Fatal("worker never picked up the first event")
	}
	if !d.Enqueue(events.Event{Name: "two"}) {
		t.Fatal("queue with free capacity rejected an event")
	}
	if d.Enqueue(events.Event{Name: "three"}) {
		t.Error("a full queue must drop instead of blocking")
	}

	close(sink.release)
	d.Close()
}

type blockingSink struct {
	active  chan struct{}
	release chan struct{}
}

func (s *blockingSink) Send(_ context.Context, _ events.Event) error {
	select {
	case s.active <- struct{}{}:
	default:
	}
	<-s.release
	return nil
}

func (s *blockingSink) Close() error { return nil }
