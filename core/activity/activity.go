// Package activity turns first/last activity rows into activity periods and
// derives duration metrics (age, idle time) from them.
package activity

import (
	"time"

	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// Period is the span between an actor's first and last observed activity.
// Start <= End is not enforced; a single activity yields Start == End.
type Period struct {
	Start time.Time
	End   time.Time
}

// Entry is the activity period of a single actor.
type Entry struct {
	ID     string
	Name   string
	Period Period
}

// ActivityList is an ordered, immutable sequence of entries.
// Order is the order rows came back from the query.
type ActivityList struct {
	entries []Entry
}

// NewActivityList builds a list from entries. The slice is copied.
func NewActivityList(entries ...Entry) ActivityList {
	return ActivityList{entries: append([]Entry(nil), entries...)}
}

// Len returns the number of entries.
func (l ActivityList) Len() int { return len(l.entries) }

// Entries returns a copy of the entries.
func (l ActivityList) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Active keeps entries whose period intersects the window.
// An entry is kept when End >= after and Start <= before; a zero bound is unbounded.
func (l ActivityList) Active(after, before time.Time) ActivityList {
	kept := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if !after.IsZero() && e.Period.End.Before(after) {
			continue
		}
		if !before.IsZero() && e.Period.Start.After(before) {
			continue
		}
		kept = append(kept, e)
	}
	return ActivityList{entries: kept}
}

// Age returns snapshot - Start + offset for every entry.
// Entries that start after snapshot are not dropped and yield negative durations;
// call Active with before=snapshot first to keep only actors born by then.
func (l ActivityList) Age(snapshot time.Time, offset time.Duration) ActorsDuration {
	out := make([]Duration, len(l.entries))
	for i, e := range l.entries {
		out[i] = Duration{ID: e.ID, Name: e.Name, Value: snapshot.Sub(e.Period.Start) + offset}
	}
	return ActorsDuration{Snapshot: snapshot, Kind: schema.AgeDuration, entries: out}
}

// Idle returns zero for entries still active at snapshot and
// snapshot - End + offset for everyone else.
func (l ActivityList) Idle(snapshot time.Time, offset time.Duration) ActorsDuration {
	out := make([]Duration, len(l.entries))
	for i, e := range l.entries {
		var d time.Duration
		if e.Period.End.Before(snapshot) {
			d = snapshot.Sub(e.Period.End) + offset
		}
		out[i] = Duration{ID: e.ID, Name: e.Name, Value: d}
	}
	return ActorsDuration{Snapshot: snapshot, Kind: schema.IdleDuration, entries: out}
}

// MaxEnd returns the latest End across all entries.
func (l ActivityList) MaxEnd() (time.Time, error) {
	if len(l.entries) == 0 {
		return time.Time{}, errs.New(errs.KindEmptyList, "activity.MaxEnd",
			"cannot take the latest activity of an empty list; a snapshot must be given explicitly")
	}
	latest := l.entries[0].Period.End
	for _, e := range l.entries[1:] {
		if e.Period.End.After(latest) {
			latest = e.Period.End
		}
	}
	return latest, nil
}
