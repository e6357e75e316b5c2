package observe

import (
	"fmt"
	"sort"
)

// observation is one registered association between a set of property
// keys and a pair of notification callbacks. Observations are one-shot:
// the first matching mutation removes the entry before delivering it.
type observation struct {
	// id orders observations by registration time. Delivery within one
	// mutation happens in ascending id order.
	id uint64

	// keys are the property keys this observation is armed on.
	keys keySet

	// willSet fires before the mutation body runs, didSet after. Either
	// may be nil. Both phases belong to the same logical mutation and the
	// same one-shot claim.
	willSet func(PropertyKey)
	didSet  func(PropertyKey)
}

// registry is the lock-guarded state of a Registrar: the observation
// entries plus a per-key index into them.
type registry struct {
	observations map[uint64]*observation
	lookups      map[PropertyKey]map[uint64]struct{}
}

func (reg *registry) insert(o *observation) {
	if reg.observations == nil {
		reg.observations = make(map[uint64]*observation)
		reg.lookups = make(map[PropertyKey]map[uint64]struct{})
	}
	reg.observations[o.id] = o
	for key := range o.keys {
		ids, ok := reg.lookups[key]
		if !ok {
			ids = make(map[uint64]struct{})
			reg.lookups[key] = ids
		}
		ids[o.id] = struct{}{}
	}
}

// remove deletes the observation with the given id from the entry map and
// from every key's index. Returns nil if the id is not registered (it may
// already have fired).
func (reg *registry) remove(id uint64) *observation {
	o, ok := reg.observations[id]
	if !ok {
		return nil
	}
	delete(reg.observations, id)
	for key := range o.keys {
		ids := reg.lookups[key]
		delete(ids, id)
		if len(ids) == 0 {
			delete(reg.lookups, key)
		}
	}
	return o
}

// mutationBatch is the set of observations claimed by one WillSet,
// carried on the goroutine's mutation stack until the matching DidSet
// delivers the second phase.
type mutationBatch struct {
	registrar *Registrar
	key       PropertyKey
	claimed   []*observation
}

// Registrar is the per-object (or explicitly shared) hub that records
// property accesses and delivers one-shot mutation notifications. The
// zero value is ready to use, so a Registrar can be embedded directly in
// observed types; Base does exactly that.
//
// A Registrar may be shared by several observed objects. The registrar,
// not the object, is the unit of locking and of access-list grouping, so
// sharing one simply merges the objects into one notification domain.
//
// All methods are safe for concurrent use. Observer callbacks are always
// invoked with the registrar's lock released.
type Registrar struct {
	state guarded[registry]
}

// NewRegistrar returns a standalone Registrar for callers that manage
// observation outside an embedded Base.
func NewRegistrar() *Registrar {
	return &Registrar{}
}

// Access records that the given property was read. When a tracking scope
// is active on the calling goroutine the (registrar, key) pair is
// appended to its access list; otherwise this is a cheap no-op. Tracked
// getters call this before returning the stored value.
func (r *Registrar) Access(key PropertyKey) {
	if l := currentAccessList(); l != nil {
		l.record(r, key)
	}
}

// WithMutation performs body as a tracked mutation of the given property.
// Observations armed on the key are claimed (removed, one-shot) first,
// then notified in two phases around the body: willSet before, didSet
// after. The didSet phase runs even if body panics; the panic propagates
// unchanged. Tracked setters wrap the actual store in this call.
func (r *Registrar) WithMutation(key PropertyKey, body func()) {
	r.WillSet(key)
	defer r.DidSet(key)
	body()
}

// Mutate is WithMutation for mutation bodies that return a value. It
// exists as a free function because Go methods cannot be generic.
func Mutate[R any](r *Registrar, key PropertyKey, body func() R) R {
	var result R
	r.WithMutation(key, func() {
		result = body()
	})
	return result
}

// WillSet begins a two-phase mutation of the given property: it claims
// every observation armed on the key and delivers their willSet phase.
// Each WillSet must be balanced by a DidSet on the same goroutine with
// the same registrar and key; prefer WithMutation, which pairs them
// structurally. Nested mutations balance LIFO.
func (r *Registrar) WillSet(key PropertyKey) {
	batch := &mutationBatch{registrar: r, key: key, claimed: r.claim(key)}
	pushMutation(batch)

	if n := len(batch.claimed); n > 0 {
		if sink := currentInstrumentation(); sink != nil {
			sink.MutationDelivered(key, n)
		}
	}
	for _, o := range batch.claimed {
		if o.willSet != nil {
			o.willSet(key)
		}
	}
}

// DidSet completes a two-phase mutation begun by WillSet, delivering the
// didSet phase to the observations that WillSet claimed. Calling DidSet
// without a matching WillSet is a programming error and panics.
func (r *Registrar) DidSet(key PropertyKey) {
	batch := popMutation()
	if batch == nil {
		panic(fmt.Sprintf("[OBSERVE E001] DidSet(%s) without matching WillSet", key))
	}
	if batch.registrar != r || batch.key != key {
		panic(fmt.Sprintf("[OBSERVE E001] DidSet(%s) does not match in-flight WillSet(%s)", key, batch.key))
	}
	for _, o := range batch.claimed {
		if o.didSet != nil {
			o.didSet(key)
		}
	}
}

// claim removes every observation armed on key and returns them in
// registration order. Removal happens atomically under the lock, so each
// observation is delivered at most once even under concurrent mutations
// of the same property. Callbacks are invoked by the caller after the
// lock is released.
func (r *Registrar) claim(key PropertyKey) []*observation {
	var claimed []*observation
	r.state.critical(func(reg *registry) {
		ids := reg.lookups[key]
		if len(ids) == 0 {
			return
		}
		claimed = make([]*observation, 0, len(ids))
		for id := range ids {
			if o := reg.remove(id); o != nil {
				claimed = append(claimed, o)
			}
		}
	})
	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].id < claimed[j].id
	})
	return claimed
}

// registerTracking arms willSet/didSet callbacks on a set of property
// keys and returns the registration id. Invoked by the tracking
// orchestration with the key set collected for this registrar.
func (r *Registrar) registerTracking(keys keySet, willSet, didSet func(PropertyKey)) uint64 {
	o := &observation{
		id:      nextID(),
		keys:    keys.clone(),
		willSet: willSet,
		didSet:  didSet,
	}
	r.state.critical(func(reg *registry) {
		reg.insert(o)
	})
	return o.id
}

// cancel removes a not-yet-fired observation. Returns false if the id is
// unknown, which usually means the observation already fired.
func (r *Registrar) cancel(id uint64) bool {
	removed := false
	r.state.critical(func(reg *registry) {
		removed = reg.remove(id) != nil
	})
	return removed
}

// pendingObservations returns the number of registered observation
// entries. Intended for tests and diagnostics.
func (r *Registrar) pendingObservations() int {
	n := 0
	r.state.critical(func(reg *registry) {
		n = len(reg.observations)
	})
	return n
}
