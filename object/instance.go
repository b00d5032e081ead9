package object

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Instance is one member table: either the class template (live=false) or
// an independently owned clone of it (live=true). Regular member records
// belong to the instance; static records are shared with the class object.
type Instance struct {
	id          string
	class       *Class
	members     map[string]*Member
	live        bool
	constructed bool
	finalized   bool

	// mu guards the member map and the lifecycle flags. Record values
	// carry their own locks; shared cells outlive any one holder.
	mu sync.RWMutex
}

// newInstance creates an empty member table for cls.
func newInstance(cls *Class, live bool) *Instance {
	return &Instance{
		id:      generateID(cls.name),
		class:   cls,
		members: make(map[string]*Member),
		live:    live,
	}
}

// generateID produces a unique instance identifier of the form
// classname_uuid, with namespace separators flattened.
func generateID(className string) string {
	flat := strings.ToLower(strings.ReplaceAll(className, "::", "_"))
	return flat + "_" + uuid.New().String()
}

// ID returns the unique instance identifier.
func (i *Instance) ID() string {
	return i.id
}

// Class returns the class this instance was built from.
func (i *Instance) Class() *Class {
	return i.class
}

// Live reports whether this is a real instance rather than a class
// template.
func (i *Instance) Live() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.live
}

// Constructed reports whether the constructor chain has run.
func (i *Instance) Constructed() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.constructed
}

// constructOnce claims the right to run the constructor. Exactly one
// caller per instance ever gets true.
func (i *Instance) constructOnce() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.constructed {
		return false
	}
	i.constructed = true
	return true
}

// finalizeOnce claims the right to run the finalizer.
func (i *Instance) finalizeOnce() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.finalized {
		return false
	}
	i.finalized = true
	return true
}

// Ref wraps the instance in an externally scoped reference: private and
// protected members are not visible through it.
func (i *Instance) Ref() *Ref {
	return &Ref{inst: i}
}

// member looks up a record under the read lock.
func (i *Instance) member(name string) (*Member, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	rec, ok := i.members[name]
	return rec, ok
}

// memberNames returns the table's keys, unordered.
func (i *Instance) memberNames() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.members))
	for name := range i.members {
		names = append(names, name)
	}
	return names
}
