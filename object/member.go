package object

import "sync"

// Member is one slot in a member table. The class template and every
// instance hold their own records for regular members; static members and
// promoted inherited members share a single record, so the record carries
// its own lock rather than relying on any one holder's.
type Member struct {
	mu        sync.RWMutex
	value     Value
	owner     *Class
	modifiers Modifier

	// ambiguous marks a slot inherited from several parents with no local
	// override. Set during the merge, fixed afterwards.
	ambiguous bool
}

func newMember(v Value, owner *Class, mods Modifier) *Member {
	return &Member{value: v, owner: owner, modifiers: mods}
}

// Value returns the current payload.
func (m *Member) Value() Value {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

func (m *Member) setValue(v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

// Owner returns the class whose description declared this member. Access
// checks and serialization key off the owner, not the holder; hot reload
// re-homes it to the replacement class.
func (m *Member) Owner() *Class {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner
}

func (m *Member) setOwner(cls *Class) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner = cls
}

// Modifiers returns the declared qualifier set.
func (m *Member) Modifiers() Modifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modifiers
}

func (m *Member) setModifiers(mods Modifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifiers = mods
}

// Ambiguous reports whether unqualified access to this slot is forbidden.
func (m *Member) Ambiguous() bool {
	return m.ambiguous
}

// clone copies the record. Shared cells (statics) are not cloned; callers
// keep the pointer instead.
func (m *Member) clone() *Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Member{
		value:     m.value,
		owner:     m.owner,
		modifiers: m.modifiers,
		ambiguous: m.ambiguous,
	}
}

// visibleFrom reports whether code scoped to the given class may touch
// this member. A nil scope is external code.
func (m *Member) visibleFrom(scope *Class) bool {
	switch m.Modifiers().Visibility() {
	case ModPrivate:
		return scope != nil && scope == m.Owner()
	case ModProtected:
		return scope != nil && scope.isDescendantOf(m.Owner())
	default:
		return true
	}
}

// isFunction reports whether the payload is callable.
func (m *Member) isFunction() bool {
	return m.Value().Type == TypeFunc
}
