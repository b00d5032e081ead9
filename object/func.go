package object

// Func is a callable member payload. Implementations receive a Call
// carrying the bound receiver and the argument list.
type Func struct {
	// Name is the member name the function was declared under. Informational.
	Name string

	// Impl is the host implementation.
	Impl func(c *Call) (Value, error)
}

// NewFunc wraps a host implementation.
func NewFunc(name string, impl func(c *Call) (Value, error)) *Func {
	return &Func{Name: name, Impl: impl}
}

// Call is the invocation context passed to function members. Self is the
// receiver bound to the scope of the class that declared the resolved
// member, so private and protected members of that class are reachable
// while the method runs.
type Call struct {
	// Self is the bound receiver.
	Self *Ref

	// Args holds the positional arguments.
	Args []Value
}

// Arg returns the i-th argument, or nil when absent.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) {
		return Nil
	}
	return c.Args[i]
}

// NArgs returns the number of arguments.
func (c *Call) NArgs() int {
	return len(c.Args)
}

// Ref binds an instance value to the calling method's scope. Privacy is
// class-level: a method may touch private members of any instance of its
// own class, not just the receiver.
func (c *Call) Ref(v Value) (*Ref, error) {
	if v.Type != TypeInstance || v.InstanceVal == nil {
		return nil, &AccessError{Member: "(ref)", Reason: "value is not an instance"}
	}
	var scope *Class
	if c.Self != nil {
		scope = c.Self.scope
	}
	return &Ref{inst: v.InstanceVal, scope: scope}, nil
}

// invoke runs fn with the given receiver and arguments.
func invoke(fn *Func, self *Ref, args []Value) (Value, error) {
	if fn == nil || fn.Impl == nil {
		name := "(anonymous)"
		if fn != nil {
			name = fn.Name
		}
		return Nil, &ResolutionError{Member: name, Message: "function has no implementation"}
	}
	return fn.Impl(&Call{Self: self, Args: args})
}
