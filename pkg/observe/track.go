package observe

// registration locates one observation entry inside one registrar.
type registration struct {
	registrar *Registrar
	id        uint64
}

// trackingState is the lock-guarded state shared by every registration a
// tracking scope produced. One scope may register against several
// registrars; the fired flag is the single guard that keeps the shared
// onChange callback one-shot across all of them.
type trackingState struct {
	fired         bool
	cancelled     bool
	registrations []registration
}

// Tracking is the handle for one armed tracking scope. It is returned by
// StartTracking and supports explicit cancellation before the scope
// fires. A Tracking that is never mutated and never cancelled simply
// stays registered until its registrars are garbage collected with their
// owners.
type Tracking struct {
	onChange func()
	state    guarded[trackingState]
}

// notify is the willSet observer registered on every registrar the scope
// touched. The first registrar to fire wins; it tears down the
// registrations on all other registrars and invokes onChange exactly
// once. onChange runs with no locks held, so it may freely mutate tracked
// state or start a new tracking scope.
func (t *Tracking) notify(PropertyKey) {
	var regs []registration
	fired := false
	t.state.critical(func(s *trackingState) {
		if s.fired || s.cancelled {
			return
		}
		s.fired = true
		fired = true
		regs = s.registrations
		s.registrations = nil
	})
	if !fired {
		return
	}

	// The registration that delivered this notification was already
	// removed by its registrar's claim; cancelling it again is a no-op.
	for _, reg := range regs {
		reg.registrar.cancel(reg.id)
	}

	if sink := currentInstrumentation(); sink != nil {
		sink.TrackingFired()
	}
	t.onChange()
}

// add records a registration on the handle. If the scope already fired or
// was cancelled while registrations were still being installed, the new
// entry is removed again immediately so it can never fire.
func (t *Tracking) add(r *Registrar, id uint64) {
	stale := false
	t.state.critical(func(s *trackingState) {
		if s.fired || s.cancelled {
			stale = true
			return
		}
		s.registrations = append(s.registrations, registration{registrar: r, id: id})
	})
	if stale {
		r.cancel(id)
	}
}

// Cancel removes every not-yet-fired registration of this scope. After
// Cancel returns, onChange will never be invoked. Cancelling a fired or
// already-cancelled Tracking is a no-op.
func (t *Tracking) Cancel() {
	var regs []registration
	cancelled := false
	t.state.critical(func(s *trackingState) {
		if s.fired || s.cancelled {
			return
		}
		s.cancelled = true
		cancelled = true
		regs = s.registrations
		s.registrations = nil
	})
	if !cancelled {
		return
	}

	for _, reg := range regs {
		reg.registrar.cancel(reg.id)
	}
	if sink := currentInstrumentation(); sink != nil {
		sink.TrackingCancelled()
	}
}

// installTracking registers onChange against every (registrar, key set)
// entry the access list collected and returns the shared handle.
func installTracking(list *accessList, onChange func()) *Tracking {
	t := &Tracking{onChange: onChange}
	for r, keys := range list.entries {
		id := r.registerTracking(keys, t.notify, nil)
		t.add(r, id)
	}
	if sink := currentInstrumentation(); sink != nil {
		sink.TrackingStarted(len(list.entries), list.keyCount())
	}
	return t
}

// collectAccesses runs apply with a fresh access list installed on the
// calling goroutine. The previous list is restored on every exit path,
// and in the nested case the new list's entries are merged into it so the
// enclosing scope also observes everything this scope observed.
func collectAccesses[R any](apply func() R) (*accessList, R) {
	list := newAccessList()
	prev := setCurrentAccessList(list)
	defer func() {
		setCurrentAccessList(prev)
		if prev != nil {
			prev.merge(list)
		}
	}()

	result := apply()
	return list, result
}

// WithTracking runs apply, records every tracked property it reads, and
// arms onChange as a one-shot callback on all of them. onChange is
// invoked at most once, on the first subsequent mutation of any recorded
// property, no matter how many objects or properties were read. apply's
// return value is passed through; a panic in apply propagates unchanged
// and arms nothing.
//
// Tracking scopes nest: an inner WithTracking on the same goroutine
// contributes its accesses to the enclosing scope as well, so both
// callbacks arm independently.
func WithTracking[R any](apply func() R, onChange func()) R {
	if onChange == nil {
		panic("[OBSERVE E002] WithTracking requires a non-nil onChange callback")
	}

	list, result := collectAccesses(apply)
	if !list.empty() {
		installTracking(list, onChange)
	}
	return result
}

// StartTracking is WithTracking for callers that need the handle: it runs
// apply, arms onChange, and returns a Tracking that can cancel the scope
// before it fires.
func StartTracking(apply func(), onChange func()) *Tracking {
	if onChange == nil {
		panic("[OBSERVE E002] StartTracking requires a non-nil onChange callback")
	}

	list, _ := collectAccesses(func() struct{} {
		apply()
		return struct{}{}
	})
	return installTracking(list, onChange)
}

// Untracked runs fn with access recording suppressed on the calling
// goroutine. Reads inside fn do not become dependencies of any enclosing
// tracking scope.
func Untracked(fn func()) {
	prev := setCurrentAccessList(nil)
	defer setCurrentAccessList(prev)
	fn()
}
