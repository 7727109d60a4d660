package activity

import (
	"time"

	"github.com/huangsam/tenure/schema"
)

// Duration is the derived duration of one actor.
type Duration struct {
	ID    string
	Name  string
	Value time.Duration
}

// Days returns the duration in fractional days.
func (d Duration) Days() float64 { return d.Value.Hours() / 24 }

// ActorsDuration is the terminal output of Age or Idle.
type ActorsDuration struct {
	Snapshot time.Time
	Kind     schema.DurationKind
	entries  []Duration
}

// Len returns the number of actors.
func (a ActorsDuration) Len() int { return len(a.entries) }

// Entries returns a copy of the per-actor durations.
func (a ActorsDuration) Entries() []Duration {
	return append([]Duration(nil), a.entries...)
}

// Document renders the columnar output document.
func (a ActorsDuration) Document() schema.DurationDocument {
	doc := schema.DurationDocument{
		Date:  a.Snapshot,
		Kind:  a.Kind,
		IDs:   make([]string, len(a.entries)),
		Names: make([]string, len(a.entries)),
		Days:  make([]float64, len(a.entries)),
	}
	for i, e := range a.entries {
		doc.IDs[i] = e.ID
		doc.Names[i] = e.Name
		doc.Days[i] = e.Days()
	}
	return doc
}
