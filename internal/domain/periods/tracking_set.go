package periods

// TrackingSet holds the event names seen during one instance of a period.
// Staleness is detected lazily: a lookup carrying a fresh ordinal that does
// not match the stored one resets the set before answering.
type TrackingSet struct {
	ordinal int64
	events  map[string]bool
}

// NewTrackingSet returns an empty set pinned to the given period ordinal.
func NewTrackingSet(ordinal int64) *TrackingSet {
	return &TrackingSet{ordinal: ordinal, events: make(map[string]bool)}
}

// RecordAndCheck reports whether name is first in the period identified by
// ordinal, inserting it as a side effect. Query and insert are one step so
// callers never observe a gap between them. An ordinal mismatch evicts the
// stale period first, which makes the event trivially first.
func (ts *TrackingSet) RecordAndCheck(name string, ordinal int64) bool {
	if ts.ordinal != ordinal {
		ts.ordinal = ordinal
		ts.events = make(map[string]bool)
	}
	if ts.events[name] {
		return false
	}
	ts.events[name] = true
	return true
}

// Ordinal returns the period instance the set currently belongs to.
func (ts *TrackingSet) Ordinal() int64 { return ts.ordinal }

// Contains reports membership without recording. Rollover is not applied;
// this is a read-only view of the set as last recorded.
func (ts *TrackingSet) Contains(name string) bool { return ts.events[name] }

// Len returns the number of names recorded for the current period.
func (ts *TrackingSet) Len() int { return len(ts.events) }

// Names returns the recorded names in unspecified order.
func (ts *TrackingSet) Names() []string {
	out := make([]string, 0, len(ts.events))
	for name := range ts.events {
		out = append(out, name)
	}
	return out
}

func (ts *TrackingSet) add(name string) { ts.events[name] = true }
