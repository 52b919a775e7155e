package app

// Cyclic is a closed status cycle. The zero value's Default is the status of
// an entity that has never been touched.
type Cyclic[S any] interface {
	comparable
	Next() S
	Default() S
	Terminal() bool
}

// Tracker holds the statuses of a group of entities. Only non-default
// statuses are stored.
type Tracker[S Cyclic[S]] struct {
	statuses map[string]S
}

func NewTracker[S Cyclic[S]](initial map[string]S) *Tracker[S] {
	t := &Tracker[S]{statuses: make(map[string]S, len(initial))}
	for id, s := range initial {
		t.Set(id, s)
	}
	return t
}

// Status returns the status of id, the default when it was never set.
func (t *Tracker[S]) Status(id string) S {
	if s, ok := t.statuses[id]; ok {
		return s
	}
	var zero S
	return zero.Default()
}

// Set stores s for id, dropping the entry when s is the default.
func (t *Tracker[S]) Set(id string, s S) {
	var zero S
	if s == zero || s == zero.Default() {
		delete(t.statuses, id)
		return
	}
	t.statuses[id] = s
}

// Cycle advances id one step and returns the new status.
func (t *Tracker[S]) Cycle(id string) S {
	next := t.Status(id).Next()
	t.Set(id, next)
	return next
}

// Done counts the ids in the terminal status.
func (t *Tracker[S]) Done(ids []string) int {
	done := 0
	for _, id := range ids {
		if t.Status(id).Terminal() {
			done++
		}
	}
	return done
}

// Percentage is the share of ids in the terminal status.
func (t *Tracker[S]) Percentage(ids []string) int {
	return Percentage(t.Done(ids), len(ids))
}

// Statuses returns a copy of the stored (non-default) statuses.
func (t *Tracker[S]) Statuses() map[string]S {
	out := make(map[string]S, len(t.statuses))
	for id, s := range t.statuses {
		out[id] = s
	}
	return out
}
