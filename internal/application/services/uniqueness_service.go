package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AtRiskMedia/beacon-go/internal/domain/periods"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/persistence/state"
)

// StorageKey is the fixed key the uniqueness state blob lives under.
const StorageKey = "beacon:unique-events"

// UniquenessService answers first-of-period queries. The session scope is
// always tracked in memory; the calendar scopes run only when multi-period
// tracking is enabled, and only those survive restarts through the store.
type UniquenessService struct {
	enabled     bool
	ledger      *periods.Ledger
	sessionSeen map[string]bool
	store       state.Store
	logger      *logging.ChanneledLogger
}

// NewUniquenessService builds fresh tracking state. Call Load afterwards to
// adopt persisted calendar state from a previous process.
func NewUniquenessService(enabled bool, scopes []periods.Scope, store state.Store, logger *logging.ChanneledLogger, now time.Time) *UniquenessService {
	u := &UniquenessService{
		enabled:     enabled,
		sessionSeen: make(map[string]bool),
		store:       store,
		logger:      logger,
	}
	if enabled {
		u.ledger = periods.NewLedger(scopes, now)
	}
	return u
}

// Enabled reports whether calendar-scope tracking is on.
func (u *UniquenessService) Enabled() bool { return u.enabled }

// Check records name and returns its first-of-session flag plus, when
// calendar tracking is enabled, one flag per enabled scope. Recording and
// querying are a single step per scope.
func (u *UniquenessService) Check(name string, now time.Time) (firstOfSession bool, flags map[periods.Scope]bool) {
	firstOfSession = !u.sessionSeen[name]
	u.sessionSeen[name] = true
	if u.enabled {
		flags = u.ledger.RecordAndCheck(name, now)
	}
	return firstOfSession, flags
}

// ResetSession clears the session-scoped seen list at a session boundary.
// Calendar sets are untouched; they roll over by ordinal, not by session.
func (u *UniquenessService) ResetSession() {
	u.sessionSeen = make(map[string]bool)
	u.logger.Unique().Debug("Session uniqueness state reset")
}

// Load adopts persisted calendar state. Missing or malformed blobs and
// scopes whose stored ordinal no longer matches are silently discarded;
// stale uniqueness state is never an error.
func (u *UniquenessService) Load(ctx context.Context, now time.Time) {
	if !u.enabled {
		return
	}
	blob, err := u.store.Load(ctx, StorageKey)
	if errors.Is(err, state.ErrNotFound) {
		return
	}
	if err != nil {
		u.logger.Store().Warn("Could not load uniqueness state", "key", StorageKey, "error", err.Error())
		return
	}
	var snap periods.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		u.logger.Store().Warn("Discarding malformed uniqueness state", "key", StorageKey, "error", err.Error())
		return
	}
	u.ledger.Restore(snap, now)
	u.logger.Unique().Info("Uniqueness state restored", "scopes", len(snap))
}

// Persist compacts and writes the calendar state. It runs synchronously;
// at termination the process may not survive past the caller.
func (u *UniquenessService) Persist(ctx context.Context) error {
	if !u.enabled {
		return nil
	}
	blob, err := json.Marshal(u.ledger.Snapshot())
	if err != nil {
		return err
	}
	if err := u.store.Save(ctx, StorageKey, blob); err != nil {
		return err
	}
	u.logger.Store().Info("Uniqueness state persisted", "key", StorageKey, "bytes", len(blob))
	return nil
}
