// Package periods implements first-of-period tracking: calendar ordinals,
// per-scope name sets with lazy rollover, and the compacted snapshot form
// used for persistence.
package periods

import "fmt"

// Scope identifies a tracked period granularity.
type Scope string

const (
	ScopeSession Scope = "session"
	ScopeHour    Scope = "hour"
	ScopeDay     Scope = "day"
	ScopeWeek    Scope = "week"
	ScopeMonth   Scope = "month"
	ScopeQuarter Scope = "quarter"
)

// CalendarScopes lists the persistable scopes ordered shortest to longest.
// The session scope is memory-resident only and is never part of this order.
var CalendarScopes = []Scope{ScopeHour, ScopeDay, ScopeWeek, ScopeMonth, ScopeQuarter}

var scopeRank = map[Scope]int{
	ScopeHour:    0,
	ScopeDay:     1,
	ScopeWeek:    2,
	ScopeMonth:   3,
	ScopeQuarter: 4,
}

// Rank returns the position of a calendar scope in shortest-to-longest order.
func Rank(s Scope) (int, bool) {
	r, ok := scopeRank[s]
	return r, ok
}

// ParseScope validates a scope name from configuration or persisted state.
func ParseScope(name string) (Scope, error) {
	s := Scope(name)
	if _, ok := scopeRank[s]; ok {
		return s, nil
	}
	if s == ScopeSession {
		return s, nil
	}
	return "", fmt.Errorf("unknown period scope %q", name)
}
