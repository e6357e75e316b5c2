package observe

import (
	"runtime"
	"sync"
)

// trackingContext holds the observation state for a goroutine.
// Each goroutine has its own context, so access recording never needs a
// lock: only the owning goroutine reads or writes its slot.
type trackingContext struct {
	// accessList is the access list of the innermost active tracking
	// scope. nil means no tracking (reads record nothing).
	accessList *accessList

	// mutations is the stack of in-flight two-phase mutations for split
	// WillSet/DidSet delivery. Mutations nest LIFO on one goroutine.
	mutations []*mutationBatch
}

// empty reports whether the context carries no state and can be dropped.
func (c *trackingContext) empty() bool {
	return c.accessList == nil && len(c.mutations) == 0
}

// trackingContexts stores per-goroutine tracking contexts.
// Using sync.Map for concurrent access from multiple goroutines.
var trackingContexts sync.Map

// goroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
// Note: This is an implementation detail and should not be relied upon externally.
func goroutineID() uint64 {
	// Use a buffer to read the stack
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	// Parse the ID from the stack trace
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine.
// If no context exists, creates a new one.
func getTrackingContext() *trackingContext {
	gid := goroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// releaseTrackingContext drops the current goroutine's context if it no
// longer carries state. Goroutine IDs are reused by the runtime, so an
// emptied context must not linger as a stale handle.
func releaseTrackingContext(ctx *trackingContext) {
	if ctx.empty() {
		trackingContexts.Delete(goroutineID())
	}
}

// currentAccessList returns the access list of the innermost active
// tracking scope on this goroutine, or nil when no scope is active.
// This is the hot path called on every tracked property read; when no
// context exists for the goroutine it costs one sync.Map lookup.
func currentAccessList() *accessList {
	gid := goroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext).accessList
	}
	return nil
}

// setCurrentAccessList installs a new access list for the current
// goroutine and returns the previous one so it can be restored.
func setCurrentAccessList(l *accessList) *accessList {
	ctx := getTrackingContext()
	old := ctx.accessList
	ctx.accessList = l
	if l == nil {
		releaseTrackingContext(ctx)
	}
	return old
}

// pushMutation records an in-flight WillSet batch awaiting its DidSet.
func pushMutation(b *mutationBatch) {
	ctx := getTrackingContext()
	ctx.mutations = append(ctx.mutations, b)
}

// popMutation removes and returns the innermost in-flight mutation.
// Returns nil if no mutation is in flight on this goroutine.
func popMutation() *mutationBatch {
	ctx := getTrackingContext()
	if len(ctx.mutations) == 0 {
		releaseTrackingContext(ctx)
		return nil
	}
	b := ctx.mutations[len(ctx.mutations)-1]
	ctx.mutations = ctx.mutations[:len(ctx.mutations)-1]
	releaseTrackingContext(ctx)
	return b
}
