package activity

import (
	"time"

	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// Modifier adjusts how DurationPersons computes its result after the query ran.
type Modifier interface {
	Modify(p *DurationPersons)
}

// Snapshot fixes the instant used as "now" for duration math.
type Snapshot struct {
	At time.Time
}

// Modify implements Modifier.
func (s Snapshot) Modify(p *DurationPersons) { p.snapshot = s.At }

// ActiveWindow restricts the list to actors active in [After, Before] before
// durations are computed. A zero bound is unbounded.
type ActiveWindow struct {
	After  time.Time
	Before time.Time
}

// Modify implements Modifier.
func (w ActiveWindow) Modify(p *DurationPersons) {
	p.windows = append(p.windows, w)
}

// Offset is added to computed durations. Idle actors still active at the
// snapshot stay at zero.
type Offset struct {
	By time.Duration
}

// Modify implements Modifier.
func (o Offset) Modify(p *DurationPersons) { p.offset += o.By }

// DurationPersons derives an ActorsDuration from an ActivityList.
type DurationPersons struct {
	kind     schema.DurationKind
	list     ActivityList
	snapshot time.Time
	offset   time.Duration
	windows  []ActiveWindow
}

// NewDurationPersons applies modifiers in order to a fresh DurationPersons.
func NewDurationPersons(kind schema.DurationKind, list ActivityList, mods ...Modifier) *DurationPersons {
	p := &DurationPersons{kind: kind, list: list}
	for _, m := range mods {
		m.Modify(p)
	}
	return p
}

// Result computes the durations. Without a Snapshot modifier the snapshot
// is the latest activity in the unfiltered list.
func (p *DurationPersons) Result() (ActorsDuration, error) {
	if p.kind != schema.AgeDuration && p.kind != schema.IdleDuration {
		return ActorsDuration{}, errs.New(errs.KindInvalidArgument, "activity.DurationPersons", "unknown duration kind %q", p.kind)
	}
	snapshot := p.snapshot
	if snapshot.IsZero() {
		latest, err := p.list.MaxEnd()
		if err != nil {
			return ActorsDuration{}, err
		}
		snapshot = latest
	}
	list := p.list
	for _, w := range p.windows {
		list = list.Active(w.After, w.Before)
	}
	if p.kind == schema.IdleDuration {
		return list.Idle(snapshot, p.offset), nil
	}
	return list.Age(snapshot, p.offset), nil
}
