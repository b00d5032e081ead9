package object

import "testing"

// ---------------------------------------------------------------------------
// Shared test infrastructure for object package tests.
//
// Registries are cheap, so every test builds its own; nothing leaks between
// tests through shared class tables or hooks.
// ---------------------------------------------------------------------------

// dataDecl declares a plain data member.
func dataDecl(name string, v Value, mods Modifier) MemberDecl {
	return MemberDecl{Name: name, Value: v, Modifiers: mods}
}

// funcDecl declares a function member backed by a host implementation.
func funcDecl(name string, mods Modifier, impl func(c *Call) (Value, error)) MemberDecl {
	return MemberDecl{Name: name, Value: FuncValue(NewFunc(name, impl)), Modifiers: mods}
}

// abstractDecl declares an abstract member with an empty payload.
func abstractDecl(name string, mods Modifier) MemberDecl {
	return MemberDecl{Name: name, Value: Nil, Modifiers: mods | ModAbstract}
}

func mustRegister(t *testing.T, reg *Registry, desc Description) *Class {
	t.Helper()
	cls, err := reg.Register(desc)
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", desc.Name, err)
	}
	return cls
}

func mustNew(t *testing.T, cls *Class, args ...Value) *Ref {
	t.Helper()
	ref, err := cls.New(args...)
	if err != nil {
		t.Fatalf("New(%s) failed: %v", cls.Name(), err)
	}
	return ref
}

func mustGet(t *testing.T, ref *Ref, name string) Value {
	t.Helper()
	v, err := ref.Get(name)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", name, err)
	}
	return v
}

func mustSet(t *testing.T, ref *Ref, name string, v Value) {
	t.Helper()
	if err := ref.Set(name, v); err != nil {
		t.Fatalf("Set(%s) failed: %v", name, err)
	}
}

func mustCall(t *testing.T, ref *Ref, name string, args ...Value) Value {
	t.Helper()
	v, err := ref.Call(name, args...)
	if err != nil {
		t.Fatalf("Call(%s) failed: %v", name, err)
	}
	return v
}

// registerShapes builds the classic two-level geometry hierarchy used by
// several tests: an abstract Geo::Shape with a sides count and an area
// contract, and a concrete Geo::Rect with width, height, and a constructor.
func registerShapes(t *testing.T, reg *Registry) (*Class, *Class) {
	t.Helper()
	shape := mustRegister(t, reg, Description{
		Name:   "Geo::Shape",
		Source: "test",
		Members: []MemberDecl{
			dataDecl("sides", IntValue(4), 0),
			abstractDecl("area", 0),
		},
	})
	rect := mustRegister(t, reg, Description{
		Name:    "Geo::Rect",
		Parents: []string{"Geo::Shape"},
		Source:  "test",
		Members: []MemberDecl{
			dataDecl("w", IntValue(0), 0),
			dataDecl("h", IntValue(0), 0),
			funcDecl(ConstructorName, 0, func(c *Call) (Value, error) {
				if err := c.Self.Set("w", c.Arg(0)); err != nil {
					return Nil, err
				}
				return Nil, c.Self.Set("h", c.Arg(1))
			}),
			funcDecl("area", 0, func(c *Call) (Value, error) {
				w, err := c.Self.Get("w")
				if err != nil {
					return Nil, err
				}
				h, err := c.Self.Get("h")
				if err != nil {
					return Nil, err
				}
				return IntValue(w.AsInt() * h.AsInt()), nil
			}),
		},
	})
	return shape, rect
}
