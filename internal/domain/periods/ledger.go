package periods

import (
	"sort"
	"time"
)

// PeriodState is the persisted form of one scope's tracking set.
type PeriodState struct {
	PeriodOrdinal int64    `json:"periodOrdinal"`
	Events        []string `json:"events"`
}

// Snapshot maps scope names to their compacted persisted state. It is the
// JSON-encodable shape written to the persistence store at termination.
type Snapshot map[Scope]PeriodState

// Ledger owns one TrackingSet per enabled calendar scope. Recording an event
// inserts it into every enabled scope, so at runtime longer periods are
// always supersets of shorter ones.
type Ledger struct {
	scopes []Scope
	sets   map[Scope]*TrackingSet
}

// NewLedger builds fresh sets for the given calendar scopes, pinned to the
// current ordinal for now. Unknown and session scopes are ignored.
func NewLedger(scopes []Scope, now time.Time) *Ledger {
	l := &Ledger{sets: make(map[Scope]*TrackingSet)}
	for _, s := range scopes {
		if _, ok := Rank(s); !ok {
			continue
		}
		if _, dup := l.sets[s]; dup {
			continue
		}
		l.scopes = append(l.scopes, s)
		l.sets[s] = NewTrackingSet(CurrentOrdinal(s, now))
	}
	sort.Slice(l.scopes, func(i, j int) bool {
		ri, _ := Rank(l.scopes[i])
		rj, _ := Rank(l.scopes[j])
		return ri < rj
	})
	return l
}

// Scopes returns the enabled calendar scopes, shortest first.
func (l *Ledger) Scopes() []Scope {
	out := make([]Scope, len(l.scopes))
	copy(out, l.scopes)
	return out
}

// RecordAndCheck records name against every enabled scope and reports, per
// scope, whether it was first for the current period instance.
func (l *Ledger) RecordAndCheck(name string, now time.Time) map[Scope]bool {
	flags := make(map[Scope]bool, len(l.scopes))
	for _, s := range l.scopes {
		flags[s] = l.sets[s].RecordAndCheck(name, CurrentOrdinal(s, now))
	}
	return flags
}

// Snapshot produces the compacted persisted form: each scope's set minus the
// union of all strictly shorter scopes' sets. The containment invariant makes
// those entries redundant in storage; Restore reverses the subtraction.
func (l *Ledger) Snapshot() Snapshot {
	snap := make(Snapshot, len(l.scopes))
	shorter := make(map[string]bool)
	for _, s := range l.scopes {
		set := l.sets[s]
		names := make([]string, 0, set.Len())
		for _, name := range set.Names() {
			if !shorter[name] {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		snap[s] = PeriodState{PeriodOrdinal: set.Ordinal(), Events: names}
		for _, name := range set.Names() {
			shorter[name] = true
		}
	}
	return snap
}

// Restore overwrites the ledger from a persisted snapshot. A scope's stored
// state is adopted only when its ordinal still matches the current one;
// otherwise the scope keeps its fresh empty set. After filtering, each
// surviving scope's names are unioned into every strictly longer scope,
// undoing the save-time compaction.
//
// Longer scopes whose ordinals did not match are left empty rather than
// backfilled from surviving shorter scopes: compaction subtracts on save
// only, and a period the process never observed gets no fabricated history.
func (l *Ledger) Restore(snap Snapshot, now time.Time) {
	for _, s := range l.scopes {
		stored, ok := snap[s]
		if !ok {
			continue
		}
		if stored.PeriodOrdinal != CurrentOrdinal(s, now) {
			continue
		}
		set := NewTrackingSet(stored.PeriodOrdinal)
		for _, name := range stored.Events {
			set.add(name)
		}
		l.sets[s] = set
	}
	for i, s := range l.scopes {
		for _, name := range l.sets[s].Names() {
			for _, longer := range l.scopes[i+1:] {
				l.sets[longer].add(name)
			}
		}
	}
}

// Contains reports whether name is currently recorded for scope, without
// recording. Unknown scopes read as absent.
func (l *Ledger) Contains(s Scope, name string) bool {
	set, ok := l.sets[s]
	return ok && set.Contains(name)
}
