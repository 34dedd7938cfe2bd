// internal/sched/registry.go

package sched

// registries bundles the three side-tables keyed by task identity (§3, C7):
// timeouts, defers, and terminal errors awaiting a single read by their
// awaiter. Each map holds at most one entry per identity at any moment —
// a later yield of the same kind replaces the earlier one, per the
// explicit "replace, not accumulate" contract in §9's open question.
type registries struct {
	timeouts map[uint64]*Timeout
	defers   map[uint64]*Defer
	errors   map[uint64]error
}

func newRegistries() *registries {
	return &registries{
		timeouts: make(map[uint64]*Timeout),
		defers:   make(map[uint64]*Defer),
		errors:   make(map[uint64]error),
	}
}

func (r *registries) setTimeout(id uint64, t *Timeout) { r.timeouts[id] = t }
func (r *registries) getTimeout(id uint64) (*Timeout, bool) {
	t, ok := r.timeouts[id]
	return t, ok
}
func (r *registries) clearTimeout(id uint64) { delete(r.timeouts, id) }

func (r *registries) setDefer(id uint64, d *Defer) { r.defers[id] = d }
func (r *registries) getDefer(id uint64) (*Defer, bool) {
	d, ok := r.defers[id]
	return d, ok
}
func (r *registries) clearDefer(id uint64) { delete(r.defers, id) }

func (r *registries) setError(id uint64, err error) { r.errors[id] = err }

// takeError reads and removes the terminal error for id, satisfying the
// "exactly once read by the awaiter" half of invariant 2 in §3.
func (r *registries) takeError(id uint64) (error, bool) {
	err, ok := r.errors[id]
	if ok {
		delete(r.errors, id)
	}
	return err, ok
}

func (r *registries) clear() {
	r.timeouts = make(map[uint64]*Timeout)
	r.defers = make(map[uint64]*Defer)
	r.errors = make(map[uint64]error)
}
