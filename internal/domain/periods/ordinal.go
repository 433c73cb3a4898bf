package periods

import "time"

// CurrentOrdinal computes the integer identifying which instance of a
// calendar period contains t. Ordinals are calendar-composed so persisted
// state stays legible (20260825 is a day, 2026082514 an hour), and rollover
// detection is plain integer inequality. All ordinals derive from UTC so a
// device changing zones cannot re-enter a finished period.
//
// The session scope has no ordinal; CurrentOrdinal returns 0 for it.
func CurrentOrdinal(s Scope, t time.Time) int64 {
	t = t.UTC()
	switch s {
	case ScopeHour:
		return dayOrdinal(t)*100 + int64(t.Hour())
	case ScopeDay:
		return dayOrdinal(t)
	case ScopeWeek:
		year, week := t.ISOWeek()
		return int64(year)*100 + int64(week)
	case ScopeMonth:
		return int64(t.Year())*100 + int64(t.Month())
	case ScopeQuarter:
		quarter := (int64(t.Month())-1)/3 + 1
		return int64(t.Year())*10 + quarter
	}
	return 0
}

func dayOrdinal(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}
