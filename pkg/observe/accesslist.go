package observe

// accessList is the set of (registrar, property key) pairs read during
// one tracking scope. Entries are grouped by registrar identity so that
// registration happens once per registrar with the full key set.
//
// An access list is confined to the goroutine that created it while its
// scope is active; it is only handed off (merged or consumed) after the
// scope's read block has finished.
type accessList struct {
	entries map[*Registrar]keySet
}

func newAccessList() *accessList {
	return &accessList{}
}

// record adds one (registrar, key) pair. Called from Registrar.Access on
// every tracked read inside an active scope.
func (l *accessList) record(r *Registrar, key PropertyKey) {
	if l.entries == nil {
		l.entries = make(map[*Registrar]keySet)
	}
	keys, ok := l.entries[r]
	if !ok {
		keys = make(keySet)
		l.entries[r] = keys
	}
	keys.add(key)
}

// merge folds other's entries into l. Used when an inner tracking scope
// closes so the enclosing scope also observes everything the inner scope
// observed.
func (l *accessList) merge(other *accessList) {
	for r, keys := range other.entries {
		for key := range keys {
			l.record(r, key)
		}
	}
}

// empty reports whether no accesses were recorded.
func (l *accessList) empty() bool {
	return len(l.entries) == 0
}

// keyCount returns the total number of distinct (registrar, key) pairs.
func (l *accessList) keyCount() int {
	n := 0
	for _, keys := range l.entries {
		n += len(keys)
	}
	return n
}
