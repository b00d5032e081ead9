package object

import "fmt"

// Metamethod member names. A member under one of these names must carry
// the meta modifier; it is then consulted instead of the default behavior
// for the corresponding operation.
const (
	MetaToString = "__tostring"
	MetaCall     = "__call"
	MetaEq       = "__eq"
	MetaLt       = "__lt"
	MetaLe       = "__le"
	MetaAdd      = "__add"
	MetaSub      = "__sub"
	MetaMul      = "__mul"
	MetaDiv      = "__div"
	MetaMod      = "__mod"
	MetaPow      = "__pow"
	MetaUnm      = "__unm"
	MetaConcat   = "__concat"
	MetaLen      = "__len"
	MetaIndex    = "__index"
	MetaNewindex = "__newindex"
)

var metamethodNames = map[string]bool{
	MetaToString: true,
	MetaCall:     true,
	MetaEq:       true,
	MetaLt:       true,
	MetaLe:       true,
	MetaAdd:      true,
	MetaSub:      true,
	MetaMul:      true,
	MetaDiv:      true,
	MetaMod:      true,
	MetaPow:      true,
	MetaUnm:      true,
	MetaConcat:   true,
	MetaLen:      true,
	MetaIndex:    true,
	MetaNewindex: true,
}

func isMetamethodName(name string) bool {
	return metamethodNames[name]
}

// metamethod resolves a declared metamethod implementation. Dispatch is a
// runtime concern, not an access, so visibility is not checked; the meta
// modifier and a function payload are required.
func (r *Ref) metamethod(name string) (*Func, *Class, bool) {
	rec, ok := r.inst.member(name)
	if !ok || rec.Ambiguous() || !rec.Modifiers().Has(ModMeta) {
		return nil, nil, false
	}
	v := rec.Value()
	if v.Type != TypeFunc || v.FuncVal == nil {
		return nil, nil, false
	}
	return v.FuncVal, rec.Owner(), true
}

// Meta dispatches a metamethod by name. The boolean reports whether the
// class declares it; callers fall back to their default behavior when it
// does not.
func (r *Ref) Meta(name string, args ...Value) (Value, bool, error) {
	fn, owner, ok := r.metamethod(name)
	if !ok {
		return Nil, false, nil
	}
	v, err := invoke(fn, &Ref{inst: r.inst, scope: owner}, args)
	return v, true, err
}

// MetaString renders the instance through __tostring, falling back to the
// instance identifier.
func (r *Ref) MetaString() string {
	v, ok, err := r.Meta(MetaToString)
	if !ok || err != nil {
		return r.inst.id
	}
	return v.AsString()
}

// Invoke calls the instance itself through its __call metamethod.
func (r *Ref) Invoke(args ...Value) (Value, error) {
	v, ok, err := r.Meta(MetaCall, args...)
	if !ok {
		return Nil, &ResolutionError{Class: r.inst.class.name, Member: MetaCall, Message: "class does not define the metamethod"}
	}
	return v, err
}

// Equals compares through __eq when declared, identity otherwise.
func (r *Ref) Equals(other Value) (bool, error) {
	v, ok, err := r.Meta(MetaEq, other)
	if err != nil {
		return false, err
	}
	if ok {
		return v.IsTruthy(), nil
	}
	return InstanceValue(r.inst).Equal(other), nil
}

// Less compares through __lt.
func (r *Ref) Less(other Value) (bool, error) {
	return r.compare(MetaLt, other)
}

// LessEq compares through __le.
func (r *Ref) LessEq(other Value) (bool, error) {
	return r.compare(MetaLe, other)
}

func (r *Ref) compare(name string, other Value) (bool, error) {
	v, ok, err := r.Meta(name, other)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "class does not define the metamethod"}
	}
	return v.IsTruthy(), nil
}

// Arith dispatches a binary arithmetic metamethod (MetaAdd through
// MetaPow) with the right-hand operand as argument.
func (r *Ref) Arith(name string, other Value) (Value, error) {
	v, ok, err := r.Meta(name, other)
	if err != nil {
		return Nil, err
	}
	if !ok {
		return Nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "class does not define the metamethod"}
	}
	return v, nil
}

// Negate dispatches __unm.
func (r *Ref) Negate() (Value, error) {
	return r.unary(MetaUnm)
}

// Length dispatches __len.
func (r *Ref) Length() (Value, error) {
	return r.unary(MetaLen)
}

func (r *Ref) unary(name string) (Value, error) {
	v, ok, err := r.Meta(name)
	if err != nil {
		return Nil, err
	}
	if !ok {
		return Nil, &ResolutionError{Class: r.inst.class.name, Member: name, Message: "class does not define the metamethod"}
	}
	return v, nil
}

// Concat dispatches __concat, falling back to string concatenation of the
// two operands' renderings.
func (r *Ref) Concat(other Value) (Value, error) {
	v, ok, err := r.Meta(MetaConcat, other)
	if err != nil {
		return Nil, err
	}
	if ok {
		return v, nil
	}
	return StringValue(r.MetaString() + other.AsString()), nil
}

// indexFallback consults __index for an absent member read.
func (r *Ref) indexFallback(name string) (Value, bool, error) {
	v, ok, err := r.Meta(MetaIndex, StringValue(name))
	if !ok {
		return Nil, false, nil
	}
	return v, true, err
}

// newindexFallback consults __newindex for an undeclared member write.
func (r *Ref) newindexFallback(name string, v Value) (bool, error) {
	_, ok, err := r.Meta(MetaNewindex, StringValue(name), v)
	if !ok {
		return false, nil
	}
	return true, err
}

// GoString makes %#v render the class and identifier rather than the raw
// struct.
func (r *Ref) GoString() string {
	return fmt.Sprintf("object.Ref{%s %s}", r.inst.class.name, r.inst.id)
}
