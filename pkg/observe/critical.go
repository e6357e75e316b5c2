package observe

import "sync"

// guarded wraps state with a mutex and grants scoped exclusive access to
// it. The lock is released on every exit path, including panics. The
// mutex is not reentrant: the body must never call back into code that
// could re-enter the same critical region, which is why the registrar
// always leaves the region before invoking observer callbacks.
type guarded[T any] struct {
	mu    sync.Mutex
	state T
}

// critical runs body with exclusive access to the guarded state.
func (g *guarded[T]) critical(body func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	body(&g.state)
}
