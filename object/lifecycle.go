package object

import (
	"runtime"

	"github.com/tliron/commonlog"
)

// New instantiates the class: the abstract gate runs first, then a deep
// clone of the template with parent sub-instances re-homed and static cells
// shared, then the locally owned constructor, finalizer registration, and
// the creation hooks. A hook may substitute the returned reference.
func (c *Class) New(args ...Value) (*Ref, error) {
	if c.IsAbstract() {
		return nil, &AbstractError{Class: c.name, Missing: c.MissingAbstract()}
	}
	inst := c.template.cloneTree(true)
	ref := &Ref{inst: inst}
	if err := construct(ref, args); err != nil {
		return nil, err
	}
	c.registerFinalizer(inst)
	c.registry.track(inst)
	return c.registry.runAfterCreate(ref)
}

// New is registry-level sugar: resolve the class by name and instantiate.
func (r *Registry) New(name string, args ...Value) (*Ref, error) {
	cls, ok := r.Lookup(name)
	if !ok {
		return nil, &ResolutionError{Class: name, Message: "class is not registered"}
	}
	return cls.New(args...)
}

// Clone produces a structural duplicate of the instance: no constructor
// runs and current values carry over, transients included. The copy gets
// its own parent sub-instance tree and identity; static cells stay shared.
func (r *Ref) Clone() (*Ref, error) {
	src := r.inst
	dup := src.cloneTree(src.Live())
	cls := src.class
	if dup.live {
		cls.registerFinalizer(dup)
		cls.registry.track(dup)
	}
	return cls.registry.runAfterCreate(&Ref{inst: dup})
}

// construct runs the constructor chain entry at most once. Only a
// constructor the instance's own class declared runs implicitly; inherited
// constructors are chained explicitly through qualified parent access.
func construct(r *Ref, args []Value) error {
	if !r.inst.constructOnce() {
		return nil
	}
	rec, ok := r.inst.member(ConstructorName)
	if !ok || rec.Owner() != r.inst.class {
		return nil
	}
	v := rec.Value()
	if v.Type != TypeFunc || v.FuncVal == nil {
		return nil
	}
	_, err := invoke(v.FuncVal, &Ref{inst: r.inst, scope: rec.Owner()}, args)
	return err
}

// registerFinalizer arms the reclamation hook when the class locally owns
// a finalizer member.
func (c *Class) registerFinalizer(inst *Instance) {
	rec, ok := inst.member(FinalizerName)
	if !ok || rec.Owner() != c {
		return
	}
	if rec.Value().Type != TypeFunc {
		return
	}
	log := c.registry.log
	// AddCleanup cannot reach the object it guards, and the finalizer body
	// needs the instance as receiver, so SetFinalizer it is.
	runtime.SetFinalizer(inst, func(i *Instance) {
		finalize(i, log)
	})
}

// finalize runs the finalizer body at most once. Errors and panics are
// turned into logged faults; nothing escapes into the reclamation pass.
func finalize(inst *Instance, log commonlog.Logger) {
	if !inst.finalizeOnce() {
		return
	}
	rec, ok := inst.member(FinalizerName)
	if !ok {
		return
	}
	v := rec.Value()
	if v.Type != TypeFunc || v.FuncVal == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			fault := &FinalizerFault{Class: inst.class.name, Cause: p}
			log.Errorf("%s", fault.Error())
		}
	}()
	if _, err := invoke(v.FuncVal, &Ref{inst: inst, scope: rec.Owner()}, nil); err != nil {
		fault := &FinalizerFault{Class: inst.class.name, Cause: err}
		log.Errorf("%s", fault.Error())
	}
}
