package object

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Basic read/write tests
// ---------------------------------------------------------------------------

func TestGetSetPublicMember(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Box",
		Members: []MemberDecl{dataDecl("content", StringValue("empty"), 0)},
	})

	b := mustNew(t, cls)
	if got := mustGet(t, b, "content"); got.AsString() != "empty" {
		t.Errorf("content = %q, want %q", got.AsString(), "empty")
	}
	mustSet(t, b, "content", StringValue("gold"))
	if got := mustGet(t, b, "content"); got.AsString() != "gold" {
		t.Errorf("content = %q, want %q", got.AsString(), "gold")
	}
}

func TestGetAbsentMemberReturnsNil(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{Name: "Empty"})

	e := mustNew(t, cls)
	v, err := e.Get("nothing")
	if err != nil {
		t.Fatalf("absent read should not fail: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("absent read = %v, want nil", v)
	}
}

func TestInstanceValuesAreIndependent(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Counter",
		Members: []MemberDecl{dataDecl("n", IntValue(0), 0)},
	})

	a := mustNew(t, cls)
	b := mustNew(t, cls)
	mustSet(t, a, "n", IntValue(10))

	if got := mustGet(t, b, "n"); got.AsInt() != 0 {
		t.Errorf("b.n = %d, want 0", got.AsInt())
	}
	if a.ID() == b.ID() {
		t.Error("instances should have distinct identifiers")
	}
}

func TestTemplateWriteChangesDefaults(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Widget",
		Members: []MemberDecl{dataDecl("size", IntValue(1), 0)},
	})

	before := mustNew(t, cls)
	if got := mustGet(t, before, "size"); got.AsInt() != 1 {
		t.Fatalf("size = %d, want 1", got.AsInt())
	}

	// The class object is the zeroth instance; writing it rewrites the
	// default future instances clone.
	if err := cls.Set("size", IntValue(7)); err != nil {
		t.Fatalf("template write failed: %v", err)
	}
	after := mustNew(t, cls)
	if got := mustGet(t, after, "size"); got.AsInt() != 7 {
		t.Errorf("size = %d, want 7", got.AsInt())
	}
	// Instances cloned earlier keep their own cells.
	if got := mustGet(t, before, "size"); got.AsInt() != 1 {
		t.Errorf("existing instance size = %d, want 1", got.AsInt())
	}
}

// ---------------------------------------------------------------------------
// Visibility tests
// ---------------------------------------------------------------------------

func TestPrivateMemberExternalAccessDenied(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name: "Vault",
		Members: []MemberDecl{
			dataDecl("secret", IntValue(99), ModPrivate),
			funcDecl("reveal", 0, func(c *Call) (Value, error) {
				return c.Self.Get("secret")
			}),
		},
	})

	v := mustNew(t, cls)
	_, err := v.Get("secret")
	var accErr *AccessError
	if !errors.As(err, &accErr) {
		t.Fatalf("external private read: err = %v, want AccessError", err)
	}
	if err := v.Set("secret", IntValue(0)); err == nil {
		t.Error("external private write should fail")
	}

	// The class's own method reaches it.
	if got := mustCall(t, v, "reveal"); got.AsInt() != 99 {
		t.Errorf("reveal = %d, want 99", got.AsInt())
	}
}

func TestPrivateMemberHiddenFromSubclass(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, Description{
		Name: "Vault",
		Members: []MemberDecl{
			dataDecl("secret", IntValue(99), ModPrivate),
			funcDecl("reveal", 0, func(c *Call) (Value, error) {
				return c.Self.Get("secret")
			}),
		},
	})
	child := mustRegister(t, reg, Description{
		Name:    "GlassVault",
		Parents: []string{"Vault"},
		Members: []MemberDecl{
			funcDecl("peek", 0, func(c *Call) (Value, error) {
				return c.Self.Get("secret")
			}),
		},
	})

	g := mustNew(t, child)

	// A method the subclass declares runs in the subclass's scope and may
	// not see the parent's private state.
	if _, err := g.Call("peek"); err == nil {
		t.Error("subclass method should not reach parent private member")
	}

	// The inherited method keeps its declaring class's scope.
	if got := mustCall(t, g, "reveal"); got.AsInt() != 99 {
		t.Errorf("inherited reveal = %d, want 99", got.AsInt())
	}
}

func TestPrivateIsClassLevelNotInstanceLevel(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name: "Account",
		Members: []MemberDecl{
			dataDecl("balance", IntValue(100), ModPrivate),
			funcDecl("balanceOf", 0, func(c *Call) (Value, error) {
				other, err := c.Ref(c.Arg(0))
				if err != nil {
					return Nil, err
				}
				return other.Get("balance")
			}),
		},
	})

	a := mustNew(t, cls)
	b := mustNew(t, cls)

	// a's method reads b's private balance; privacy is per class.
	got := mustCall(t, a, "balanceOf", InstanceValue(b.Instance()))
	if got.AsInt() != 100 {
		t.Errorf("balanceOf = %d, want 100", got.AsInt())
	}
}

func TestProtectedMemberVisibility(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, Description{
		Name: "Animal",
		Members: []MemberDecl{
			dataDecl("sound", StringValue("..."), ModProtected),
		},
	})
	dog := mustRegister(t, reg, Description{
		Name:    "Dog",
		Parents: []string{"Animal"},
		Members: []MemberDecl{
			funcDecl("speak", 0, func(c *Call) (Value, error) {
				return c.Self.Get("sound")
			}),
		},
	})

	d := mustNew(t, dog)

	// Descendant scope reaches protected state.
	mustCall(t, d, "speak")

	// External scope does not.
	_, err := d.Get("sound")
	var accErr *AccessError
	if !errors.As(err, &accErr) {
		t.Fatalf("external protected read: err = %v, want AccessError", err)
	}
}

// ---------------------------------------------------------------------------
// Write restriction tests
// ---------------------------------------------------------------------------

func TestConstMemberWriteRejected(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name: "Config",
		Members: []MemberDecl{
			dataDecl("limit", IntValue(10), ModConst),
			funcDecl("tamper", 0, func(c *Call) (Value, error) {
				return Nil, c.Self.Set("limit", IntValue(0))
			}),
		},
	})

	cfg := mustNew(t, cls)
	if got := mustGet(t, cfg, "limit"); got.AsInt() != 10 {
		t.Errorf("limit = %d, want 10", got.AsInt())
	}
	if err := cfg.Set("limit", IntValue(0)); err == nil {
		t.Error("external const write should fail")
	}
	// Const binds the declaring class's own methods too.
	if _, err := cfg.Call("tamper"); err == nil {
		t.Error("method const write should fail")
	}
}

func TestFunctionMemberWriteRejected(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Machine",
		Members: []MemberDecl{funcDecl("run", 0, nop)},
	})

	m := mustNew(t, cls)
	if err := m.Set("run", IntValue(1)); err == nil {
		t.Error("write over a function member should fail")
	}
}

func TestParentReferenceWriteRejected(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, Description{Name: "Base"})
	child := mustRegister(t, reg, Description{Name: "Child", Parents: []string{"Base"}})

	c := mustNew(t, child)
	if err := c.Set("Base", IntValue(1)); err == nil {
		t.Error("write over a parent reference should fail")
	}
}

// ---------------------------------------------------------------------------
// Static member tests
// ---------------------------------------------------------------------------

func TestStaticMemberSharedAcrossInstances(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Counter",
		Members: []MemberDecl{dataDecl("count", IntValue(0), ModStatic)},
	})

	a := mustNew(t, cls)
	b := mustNew(t, cls)

	mustSet(t, a, "count", IntValue(42))
	if got := mustGet(t, b, "count"); got.AsInt() != 42 {
		t.Errorf("b.count = %d, want 42", got.AsInt())
	}
	if got, _ := cls.Get("count"); got.AsInt() != 42 {
		t.Errorf("class count = %d, want 42", got.AsInt())
	}
}

func TestStaticMemberSharedWithSubclass(t *testing.T) {
	reg := NewRegistry()
	base := mustRegister(t, reg, Description{
		Name:    "Counter",
		Members: []MemberDecl{dataDecl("count", IntValue(0), ModStatic)},
	})
	derived := mustRegister(t, reg, Description{
		Name:    "FastCounter",
		Parents: []string{"Counter"},
	})

	d := mustNew(t, derived)
	mustSet(t, d, "count", IntValue(7))

	b := mustNew(t, base)
	if got := mustGet(t, b, "count"); got.AsInt() != 7 {
		t.Errorf("base instance count = %d, want 7", got.AsInt())
	}
}

// ---------------------------------------------------------------------------
// Call and bind tests
// ---------------------------------------------------------------------------

func TestCallUnknownFunction(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{Name: "Empty"})

	e := mustNew(t, cls)
	_, err := e.Call("nothing")
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("err = %v, want ResolutionError", err)
	}
}

func TestCallDataMemberRejected(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Holder",
		Members: []MemberDecl{dataDecl("x", IntValue(1), 0)},
	})

	h := mustNew(t, cls)
	if _, err := h.Call("x"); err == nil {
		t.Error("calling a data member should fail")
	}
}

func TestCallAbstractMemberRejected(t *testing.T) {
	reg := NewRegistry()
	shape, _ := registerShapes(t, reg)

	// The template is reachable even for abstract classes.
	if _, err := shape.Call("area"); err == nil {
		t.Error("calling an abstract member should fail")
	}
}

func TestBindCapturesReceiverAndScope(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name: "Greeter",
		Members: []MemberDecl{
			dataDecl("greeting", StringValue("hello"), ModPrivate),
			funcDecl("greet", 0, func(c *Call) (Value, error) {
				g, err := c.Self.Get("greeting")
				if err != nil {
					return Nil, err
				}
				return StringValue(g.AsString() + " " + c.Arg(0).AsString()), nil
			}),
		},
	})

	g := mustNew(t, cls)
	bound, err := g.Bind("greet")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if bound.Type != TypeFunc {
		t.Fatalf("bound value type = %v, want function", bound.Type)
	}

	// The bound function runs with the captured receiver and the declaring
	// scope, wherever it is invoked from.
	got, err := bound.FuncVal.Impl(&Call{Args: []Value{StringValue("world")}})
	if err != nil {
		t.Fatalf("bound call failed: %v", err)
	}
	if got.AsString() != "hello world" {
		t.Errorf("bound call = %q, want %q", got.AsString(), "hello world")
	}
}

func TestBindLifecycleMemberRejected(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Built",
		Members: []MemberDecl{funcDecl(ConstructorName, 0, nop)},
	})

	b := mustNew(t, cls)
	if _, err := b.Bind(ConstructorName); err == nil {
		t.Error("binding the constructor should fail")
	}
	if _, err := b.Bind(FinalizerName); err == nil {
		t.Error("binding the finalizer should fail")
	}
}

func TestQualPreservesCallerScope(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, Description{
		Name: "Base",
		Members: []MemberDecl{
			dataDecl("hidden", IntValue(5), ModPrivate),
			dataDecl("open", IntValue(6), 0),
		},
	})
	child := mustRegister(t, reg, Description{Name: "Child", Parents: []string{"Base"}})

	c := mustNew(t, child)
	sub, err := c.Qual("Base")
	if err != nil {
		t.Fatalf("Qual failed: %v", err)
	}

	// External scope travels into the qualified handle.
	if _, err := sub.Get("hidden"); err == nil {
		t.Error("qualified access should not bypass privacy")
	}
	if got := mustGet(t, sub, "open"); got.AsInt() != 6 {
		t.Errorf("open = %d, want 6", got.AsInt())
	}
}

func TestQualNonParentRejected(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{
		Name:    "Plain",
		Members: []MemberDecl{dataDecl("x", IntValue(1), 0)},
	})

	p := mustNew(t, cls)
	if _, err := p.Qual("x"); err == nil {
		t.Error("qualifying a data member should fail")
	}
	if _, err := p.Qual("missing"); err == nil {
		t.Error("qualifying an absent name should fail")
	}
}

// ---------------------------------------------------------------------------
// Extension tests
// ---------------------------------------------------------------------------

func TestUndeclaredWriteExtendsLiveInstance(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{Name: "Bag"})

	b := mustNew(t, cls)
	mustSet(t, b, "extra", StringValue("ad hoc"))

	if got := mustGet(t, b, "extra"); got.AsString() != "ad hoc" {
		t.Errorf("extra = %q, want %q", got.AsString(), "ad hoc")
	}
	if !b.Has("extra") {
		t.Error("extension member should exist on the instance")
	}

	// Other instances are untouched.
	other := mustNew(t, cls)
	if other.Has("extra") {
		t.Error("extension must not leak to sibling instances")
	}
}

func TestExtensionIsTransient(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{Name: "Bag"})

	b := mustNew(t, cls)
	mustSet(t, b, "extra", IntValue(1))

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if _, ok := data["extra"]; ok {
		t.Error("extension members should not serialize")
	}
}

func TestTemplateNotOpenForExtension(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{Name: "Sealed"})

	err := cls.Set("fresh", IntValue(1))
	var accErr *AccessError
	if !errors.As(err, &accErr) {
		t.Fatalf("template extension: err = %v, want AccessError", err)
	}
}

func TestExtensionReservedNameRejected(t *testing.T) {
	reg := NewRegistry()
	cls := mustRegister(t, reg, Description{Name: "Bag"})

	b := mustNew(t, cls)
	if err := b.Set("__sneaky", IntValue(1)); err == nil {
		t.Error("reserved-prefix extension should fail")
	}
}
