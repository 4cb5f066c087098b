package graph

import "sync"

// Object is the common surface every GraphObject (Node, Edge, Group)
// exposes to the scheduler. Concrete types embed Base to get it for free.
type Object interface {
	ObjID() ID
	ObjKind() Kind
	ObjStatus() Status
	ObjText() string
}

// Base is the embedded GraphObject root (spec.md §3): an id, display text,
// kind tag, current status, and the dependency list the resolver consults.
// It carries no graph-structural fields (those belong to Node/Edge/Group)
// so it stays reusable across all three.
type Base struct {
	ID   ID
	Text string
	Kind Kind

	mu           sync.Mutex
	status       Status
	Dependencies []Dependency
	Warning      string
}

func (b *Base) ObjID() ID      { return b.ID }
func (b *Base) ObjKind() Kind   { return b.Kind }
func (b *Base) ObjText() string { return b.Text }

// ObjStatus returns the object's current status. Safe for concurrent use.
func (b *Base) ObjStatus() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// initPending sets the object's starting status without emitting an
// UpdateEvent; Compile calls this once per vertex before the scheduler
// starts, since entering Pending is not itself a transition (spec.md §8).
func (b *Base) initPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusPending
}

// resetToPending returns a terminal object to Pending for the next loop
// iteration of an enclosing Repeat/While group, and returns the event to
// emit (spec.md §4.6).
func (b *Base) resetToPending() (UpdateEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == StatusPending {
		return UpdateEvent{}, false
	}
	b.status = StatusPending
	b.Warning = ""
	return UpdateEvent{Object: b.ID, Status: StatusPending, Message: ""}, true
}

// setStatus transitions the object and returns the event to emit, or false
// if the transition is a no-op (same status re-applied, which must never
// happen per spec.md §8 but is guarded against defensively).
func (b *Base) setStatus(s Status, msg string) (UpdateEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == s {
		return UpdateEvent{}, false
	}
	b.status = s
	b.Warning = msg
	return UpdateEvent{Object: b.ID, Status: s, Message: msg}, true
}
