package object

import "strings"

// Ref is an access-controlled handle on an instance or class template.
// Every read, write, and call goes through it. The scope is the class whose
// method body is currently executing, nil for external code; it travels
// explicitly on the handle rather than as ambient state, so concurrent and
// reentrant invocations cannot corrupt each other's checks.
type Ref struct {
	inst  *Instance
	scope *Class
}

// Instance returns the underlying instance.
func (r *Ref) Instance() *Instance {
	return r.inst
}

// Class returns the instance's class.
func (r *Ref) Class() *Class {
	return r.inst.class
}

// ID returns the instance identifier.
func (r *Ref) ID() string {
	return r.inst.id
}

// String renders the instance via its __tostring metamethod when present.
func (r *Ref) String() string {
	return r.MetaString()
}

// Has reports whether a member record exists under name, regardless of
// whether this scope may access it.
func (r *Ref) Has(name string) bool {
	_, ok := r.inst.member(name)
	return ok
}

// Get reads a member. Parent references come back without access checks,
// absent names fall through to the __index metamethod and then to nil,
// and everything else is checked against the scope: ambiguity first, then
// private/protected visibility. Static reads hit the shared class cell.
func (r *Ref) Get(name string) (Value, error) {
	rec, ok := r.inst.member(name)
	if !ok {
		if v, handled, err := r.indexFallback(name); handled {
			return v, err
		}
		return Nil, nil
	}
	if rec.Modifiers().Has(ModParent) {
		if rec.Ambiguous() {
			return Nil, r.ambiguityError(name)
		}
		return rec.Value(), nil
	}
	if rec.Ambiguous() {
		return Nil, r.ambiguityError(name)
	}
	if err := r.checkVisible(rec, name); err != nil {
		return Nil, err
	}
	return rec.Value(), nil
}

// Set writes a member. Resolution and checks mirror Get, then const and
// callable members reject the write. Static writes land in the shared
// class cell. Writing an undeclared name on a live instance falls through
// to the __newindex metamethod when declared, and otherwise extends the
// instance with a fresh public transient member.
func (r *Ref) Set(name string, v Value) error {
	rec, ok := r.inst.member(name)
	if !ok {
		if handled, err := r.newindexFallback(name, v); handled {
			return err
		}
		return r.extend(name, v)
	}
	if rec.Modifiers().Has(ModParent) {
		return &AccessError{Class: r.inst.class.name, Member: name, Reason: "member is a parent reference"}
	}
	if rec.Ambiguous() {
		return r.ambiguityError(name)
	}
	if err := r.checkVisible(rec, name); err != nil {
		return err
	}
	if rec.Modifiers().Has(ModConst) {
		return &AccessError{Class: r.inst.class.name, Member: name, Reason: "member is const"}
	}
	if rec.isFunction() {
		return &AccessError{Class: r.inst.class.name, Member: name, Reason: "function members are immutable"}
	}
	rec.setValue(v)
	return nil
}

// Call resolves a function member and invokes it with the receiver bound
// to the resolved record's declaring class. Which override runs is decided
// by the receiver's table; which privates the body sees is decided by the
// declaring class. Instance-valued members dispatch through their __call
// metamethod.
func (r *Ref) Call(name string, args ...Value) (Value, error) {
	fn, owner, err := r.resolveFunc(name)
	if err != nil {
		return Nil, err
	}
	if fn == nil {
		// Dynamic member produced by __index; runs unprivileged.
		v, _, ferr := r.indexFallback(name)
		if ferr != nil {
			return Nil, ferr
		}
		switch {
		case v.Type == TypeFunc:
			return invoke(v.FuncVal, &Ref{inst: r.inst}, args)
		case v.Type == TypeInstance && v.InstanceVal != nil:
			return (&Ref{inst: v.InstanceVal, scope: r.scope}).Invoke(args...)
		}
		return Nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "no such function member"}
	}
	switch name {
	case ConstructorName:
		// However the constructor is reached, the body runs at most once.
		if !r.inst.constructOnce() {
			return Nil, nil
		}
	case FinalizerName:
		if !r.inst.finalizeOnce() {
			return Nil, nil
		}
	}
	return invoke(fn, &Ref{inst: r.inst, scope: owner}, args)
}

// Bind resolves a function member now and returns a standalone function
// value that always runs against this receiver with the declaring scope
// captured here, no matter what context later invokes it.
func (r *Ref) Bind(name string) (Value, error) {
	if name == ConstructorName || name == FinalizerName {
		return Nil, &AccessError{Class: r.inst.class.name, Member: name, Reason: "lifecycle member cannot be bound"}
	}
	fn, owner, err := r.resolveFunc(name)
	if err != nil {
		return Nil, err
	}
	if fn == nil {
		return Nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "no such function member"}
	}
	self := &Ref{inst: r.inst, scope: owner}
	bound := NewFunc(name, func(c *Call) (Value, error) {
		return invoke(fn, self, c.Args)
	})
	return FuncValue(bound), nil
}

// Qual resolves a parent by name and returns a handle on its sub-instance
// with the current scope preserved. Short names work while unambiguous;
// full names always resolve.
func (r *Ref) Qual(name string) (*Ref, error) {
	rec, ok := r.inst.member(name)
	if !ok {
		return nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "no such parent"}
	}
	if !rec.Modifiers().Has(ModParent) {
		return nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "member is not a parent reference"}
	}
	if rec.Ambiguous() {
		return nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "parent short name is shared by several parents; use the full name"}
	}
	sub := rec.Value().InstanceVal
	if sub == nil {
		return nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "parent reference is empty"}
	}
	return &Ref{inst: sub, scope: r.scope}, nil
}

// resolveFunc looks up a callable member and applies the read-side checks.
// A nil function with nil error means the name is absent from the table.
func (r *Ref) resolveFunc(name string) (*Func, *Class, error) {
	rec, ok := r.inst.member(name)
	if !ok {
		return nil, nil, nil
	}
	if rec.Modifiers().Has(ModParent) {
		return nil, nil, &AccessError{Class: r.inst.class.name, Member: name, Reason: "parent reference is not callable"}
	}
	if rec.Ambiguous() {
		return nil, nil, r.ambiguityError(name)
	}
	if err := r.checkVisible(rec, name); err != nil {
		return nil, nil, err
	}
	if rec.Modifiers().Has(ModAbstract) {
		return nil, nil, &AccessError{Class: r.inst.class.name, Member: name, Reason: "abstract member has no implementation"}
	}
	v := rec.Value()
	if v.Type != TypeFunc || v.FuncVal == nil {
		return nil, nil, &AccessError{Class: r.inst.class.name, Member: name, Reason: "member is not callable"}
	}
	return v.FuncVal, rec.Owner(), nil
}

// checkVisible enforces private and protected visibility against the
// handle's scope.
func (r *Ref) checkVisible(rec *Member, name string) error {
	if rec.visibleFrom(r.scope) {
		return nil
	}
	owner := rec.Owner()
	reason := "private to " + owner.name
	if rec.Modifiers().Visibility() == ModProtected {
		reason = "protected by " + owner.name
	}
	return &AccessError{Class: r.inst.class.name, Member: name, Reason: reason}
}

func (r *Ref) ambiguityError(name string) error {
	return &AccessError{
		Class:  r.inst.class.name,
		Member: name,
		Reason: "inherited from several parents; qualify the parent",
	}
}

// extend creates a public transient member for an undeclared write. Only
// live instances are open for extension; templates hold declared shape
// only.
func (r *Ref) extend(name string, v Value) error {
	if name == "" {
		return &AccessError{Class: r.inst.class.name, Member: name, Reason: "member name is empty"}
	}
	if strings.HasPrefix(name, "__") {
		return &AccessError{Class: r.inst.class.name, Member: name, Reason: "reserved name cannot be created by assignment"}
	}

	r.inst.mu.Lock()
	defer r.inst.mu.Unlock()
	if !r.inst.live {
		return &AccessError{Class: r.inst.class.name, Member: name, Reason: "class template is not open for extension"}
	}
	if rec, ok := r.inst.members[name]; ok {
		// Lost a race with another writer creating the same member.
		rec.setValue(v)
		return nil
	}
	r.inst.members[name] = newMember(v, r.inst.class, ModPublic|ModTransient|modExtension)
	return nil
}
