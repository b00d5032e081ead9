package object

import (
	"sort"
	"sync"
	"weak"

	"github.com/tliron/commonlog"
)

// Hook signatures. Each hook may veto by returning an error or substitute
// the value it receives.
type (
	// BeforeRegisterHook runs before a description is merged.
	BeforeRegisterHook func(Description) (Description, error)
	// AfterRegisterHook runs after the class object is built, before it
	// becomes visible.
	AfterRegisterHook func(*Class) (*Class, error)
	// AfterCreateHook runs after an instance is constructed.
	AfterCreateHook func(*Ref) (*Ref, error)
)

// Registry owns every class for one object space. It is created explicitly
// and injected into whatever loads class descriptions; there is no ambient
// global table.
type Registry struct {
	log commonlog.Logger

	mu      sync.RWMutex
	classes map[string]*Class

	// live tracks instances weakly, per class, so hot reload can re-sync
	// surviving member tables without keeping anything alive.
	live map[string][]weak.Pointer[Instance]

	beforeRegister []BeforeRegisterHook
	afterRegister  []AfterRegisterHook
	afterCreate    []AfterCreateHook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		log:     commonlog.GetLogger("tabletalk.object"),
		classes: make(map[string]*Class),
		live:    make(map[string][]weak.Pointer[Instance]),
	}
}

// OnBeforeRegister appends a pre-merge hook.
func (r *Registry) OnBeforeRegister(h BeforeRegisterHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeRegister = append(r.beforeRegister, h)
}

// OnAfterRegister appends a post-merge hook.
func (r *Registry) OnAfterRegister(h AfterRegisterHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterRegister = append(r.afterRegister, h)
}

// OnAfterCreate appends a post-construction hook.
func (r *Registry) OnAfterCreate(h AfterCreateHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCreate = append(r.afterCreate, h)
}

// Register merges a description into a class object and publishes it.
// Submitting the same name again from the same source is a no-op returning
// the existing class; a different source is a definition error. A failed
// registration leaves the registry untouched.
func (r *Registry) Register(desc Description) (*Class, error) {
	var err error
	for _, h := range r.beforeHooks() {
		if desc, err = h(desc); err != nil {
			return nil, err
		}
	}

	if existing, ok := r.Lookup(desc.Name); ok {
		return r.checkDuplicate(existing, desc)
	}

	cls, err := buildClass(r, desc)
	if err != nil {
		r.log.Errorf("registration of %s failed: %s", desc.Name, err.Error())
		return nil, err
	}
	for _, h := range r.afterHooks() {
		if cls, err = h(cls); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	if existing, ok := r.classes[desc.Name]; ok {
		r.mu.Unlock()
		return r.checkDuplicate(existing, desc)
	}
	r.classes[desc.Name] = cls
	r.mu.Unlock()

	r.log.Infof("registered class %s (parents: %d, members: %d)",
		cls.name, len(cls.parents), len(cls.template.members))
	return cls, nil
}

func (r *Registry) checkDuplicate(existing *Class, desc Description) (*Class, error) {
	if existing.source == desc.Source {
		r.log.Debugf("class %s resubmitted from %s, keeping existing", desc.Name, desc.Source)
		return existing, nil
	}
	return nil, &DefinitionError{
		Class:   desc.Name,
		Message: "already registered from source " + strquote(existing.source),
	}
}

func strquote(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}

// Lookup resolves a fully qualified class name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cls, ok := r.classes[name]
	return cls, ok
}

// Has reports whether a class name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// Names returns all registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered classes, sorted by name.
func (r *Registry) All() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	classes := make([]*Class, 0, len(r.classes))
	for _, cls := range r.classes {
		classes = append(classes, cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].name < classes[j].name })
	return classes
}

// Reset drops every class and tracked instance. Meant for tests and full
// reloads; existing instances keep working against their old classes.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes = make(map[string]*Class)
	r.live = make(map[string][]weak.Pointer[Instance])
}

func (r *Registry) beforeHooks() []BeforeRegisterHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BeforeRegisterHook, len(r.beforeRegister))
	copy(out, r.beforeRegister)
	return out
}

func (r *Registry) afterHooks() []AfterRegisterHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AfterRegisterHook, len(r.afterRegister))
	copy(out, r.afterRegister)
	return out
}

func (r *Registry) createHooks() []AfterCreateHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AfterCreateHook, len(r.afterCreate))
	copy(out, r.afterCreate)
	return out
}

// runAfterCreate threads a fresh instance through the creation hooks.
func (r *Registry) runAfterCreate(ref *Ref) (*Ref, error) {
	var err error
	for _, h := range r.createHooks() {
		if ref, err = h(ref); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

// track remembers an instance weakly for redefinition re-sync.
func (r *Registry) track(inst *Instance) {
	w := weak.Make(inst)
	r.mu.Lock()
	defer r.mu.Unlock()
	name := inst.class.name
	tracked := append(r.live[name], w)
	if len(tracked)%128 == 0 {
		tracked = compactTracked(tracked)
	}
	r.live[name] = tracked
}

// alive strongly resolves the tracked instances of one class and compacts
// the reclaimed entries away.
func (r *Registry) alive(name string) []*Instance {
	r.mu.Lock()
	tracked := r.live[name]
	compacted := tracked[:0]
	var out []*Instance
	for _, w := range tracked {
		if inst := w.Value(); inst != nil {
			out = append(out, inst)
			compacted = append(compacted, w)
		}
	}
	r.live[name] = compacted
	r.mu.Unlock()
	return out
}

func compactTracked(tracked []weak.Pointer[Instance]) []weak.Pointer[Instance] {
	kept := tracked[:0]
	for _, w := range tracked {
		if w.Value() != nil {
			kept = append(kept, w)
		}
	}
	return kept
}

// ---------------------------------------------------------------------------
// Redefinition
// ---------------------------------------------------------------------------

// Redefine replaces a registered class wholesale and re-syncs the member
// tables of every surviving instance: added members appear with their
// declared defaults, removed declared members vanish, function payloads are
// swapped for the new implementations, and data values are left untouched.
// Runtime extension members always survive. Redefinition is not safe
// concurrently with method execution on affected instances; quiesce first.
func (r *Registry) Redefine(desc Description) (*Class, error) {
	var err error
	for _, h := range r.beforeHooks() {
		if desc, err = h(desc); err != nil {
			return nil, err
		}
	}

	old, ok := r.Lookup(desc.Name)
	if !ok {
		return r.Register(desc)
	}

	cls, err := buildClass(r, desc)
	if err != nil {
		r.log.Errorf("redefinition of %s failed: %s", desc.Name, err.Error())
		return nil, err
	}
	for _, h := range r.afterHooks() {
		if cls, err = h(cls); err != nil {
			return nil, err
		}
	}

	carryStatics(old, cls)

	r.mu.Lock()
	r.classes[desc.Name] = cls
	r.mu.Unlock()

	survivors := r.alive(desc.Name)
	for _, inst := range survivors {
		syncInstance(inst, cls)
	}
	r.log.Infof("redefined class %s, re-synced %d instances", cls.name, len(survivors))
	return cls, nil
}

// carryStatics copies current static values from the old class cells into
// the replacement's cells for every static name both declare.
func carryStatics(old, next *Class) {
	for name, oldRec := range old.template.members {
		if !oldRec.modifiers.Has(ModStatic) || oldRec.Owner() != old {
			continue
		}
		newRec, ok := next.template.members[name]
		if !ok || !newRec.modifiers.Has(ModStatic) {
			continue
		}
		newRec.setValue(oldRec.Value())
	}
}

// syncInstance reshapes one live member table against the replacement
// class template.
func syncInstance(inst *Instance, next *Class) {
	c := &cloner{
		instances: make(map[*Instance]*Instance),
		records:   make(map[*Member]*Member),
		lists:     make(map[*List]*List),
		maps:      make(map[*Map]*Map),
		live:      true,
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	for name, newRec := range next.template.members {
		oldRec, ok := inst.members[name]
		if !ok {
			inst.members[name] = c.record(newRec)
			continue
		}
		switch {
		case newRec.modifiers.Has(ModStatic):
			// Point at the replacement's shared cell; carryStatics has
			// already preserved the value.
			inst.members[name] = newRec
		case newRec.modifiers.Has(ModParent):
			// Keep the existing sub-instance and its state.
			oldRec.setOwner(newRec.Owner())
			oldRec.setModifiers(newRec.modifiers)
		case newRec.isFunction() || oldRec.isFunction():
			oldRec.setValue(newRec.Value())
			oldRec.setOwner(newRec.Owner())
			oldRec.setModifiers(newRec.modifiers)
		default:
			// Data member: value untouched, identity re-homed.
			oldRec.setOwner(newRec.Owner())
			oldRec.setModifiers(newRec.modifiers)
		}
	}

	for name, rec := range inst.members {
		if rec.modifiers.Has(modExtension) {
			continue
		}
		if _, ok := next.template.members[name]; !ok {
			delete(inst.members, name)
		}
	}

	inst.class = next
}
