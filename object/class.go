package object

import (
	"sort"
	"strings"
)

// Reserved lifecycle member names. A member declared under ConstructorName
// runs once when a locally-owning class is instantiated; FinalizerName runs
// at most once when the host reclaims the instance.
const (
	ConstructorName = "__init"
	FinalizerName   = "__del"
)

// memberNameTag is the serializer's class tag; member declarations may not
// use it.
const memberNameTag = "name"

// MemberDecl declares one member of a class description.
type MemberDecl struct {
	Name      string
	Value     Value
	Modifiers Modifier
}

// Description is the declarative input to class registration: a qualified
// name, an ordered parent list, the member declarations, and a source
// identity used for duplicate-registration detection.
type Description struct {
	Name    string
	Parents []string
	Members []MemberDecl
	Source  string
}

// Class is the singleton runtime representation of a registered class. It
// doubles as the zeroth instance: its template holds the flattened,
// conflict-annotated member table, the declared defaults, and the shared
// static cells.
type Class struct {
	name     string
	short    string
	source   string
	parents  []*Class
	registry *Registry
	template *Instance
	missing  []AbstractMember
}

// Name returns the fully qualified class name.
func (c *Class) Name() string {
	return c.name
}

// ShortName returns the name after the last namespace separator.
func (c *Class) ShortName() string {
	return c.short
}

// Source returns the source identity the class was registered under.
func (c *Class) Source() string {
	return c.source
}

// Parents returns the resolved parent classes in declaration order.
func (c *Class) Parents() []*Class {
	out := make([]*Class, len(c.parents))
	copy(out, c.parents)
	return out
}

// Registry returns the registry this class lives in.
func (c *Class) Registry() *Registry {
	return c.registry
}

// IsAbstract reports whether any abstract member remains unimplemented.
func (c *Class) IsAbstract() bool {
	return len(c.missing) > 0
}

// MissingAbstract returns the unimplemented abstract members, each with the
// class that declared it.
func (c *Class) MissingAbstract() []AbstractMember {
	out := make([]AbstractMember, len(c.missing))
	copy(out, c.missing)
	return out
}

// MemberInfo is one row of a class's resolved member table.
type MemberInfo struct {
	Name      string
	Owner     string
	Modifiers Modifier
	Kind      ValueType
	Ambiguous bool
}

// Members lists the flattened member table sorted by name: own declarations,
// promoted inherited members, and synthetic parent references. Listings can
// filter on the parent modifier to drop the synthetic rows.
func (c *Class) Members() []MemberInfo {
	names := c.template.memberNames()
	sort.Strings(names)
	out := make([]MemberInfo, 0, len(names))
	for _, name := range names {
		rec, ok := c.template.member(name)
		if !ok {
			continue
		}
		out = append(out, MemberInfo{
			Name:      name,
			Owner:     rec.Owner().Name(),
			Modifiers: rec.Modifiers(),
			Kind:      rec.Value().Type,
			Ambiguous: rec.Ambiguous(),
		})
	}
	return out
}

// Template returns an externally scoped reference to the class object
// itself, the zeroth instance. Reads and writes through it follow the same
// access rules as any instance; static access through it hits the shared
// cells directly.
func (c *Class) Template() *Ref {
	return &Ref{inst: c.template, scope: nil}
}

// Get reads a member through the class object.
func (c *Class) Get(name string) (Value, error) {
	return c.Template().Get(name)
}

// Set writes a member through the class object.
func (c *Class) Set(name string, v Value) error {
	return c.Template().Set(name, v)
}

// Call invokes a function member with the class object as receiver.
func (c *Class) Call(name string, args ...Value) (Value, error) {
	return c.Template().Call(name, args...)
}

// isDescendantOf reports whether c is anc or inherits from it.
func (c *Class) isDescendantOf(anc *Class) bool {
	if c == anc {
		return true
	}
	for _, p := range c.parents {
		if p.isDescendantOf(anc) {
			return true
		}
	}
	return false
}

// shortNameOf strips the namespace prefix from a qualified name.
func shortNameOf(full string) string {
	if idx := strings.LastIndex(full, "::"); idx >= 0 {
		return full[idx+2:]
	}
	return full
}

// ---------------------------------------------------------------------------
// Merge engine
// ---------------------------------------------------------------------------

// buildClass resolves a description against the registry and produces a
// fully merged class object. Nothing is inserted into the registry here;
// a failed build leaves no trace.
func buildClass(reg *Registry, desc Description) (*Class, error) {
	if desc.Name == "" {
		return nil, &DefinitionError{Message: "class name is empty"}
	}

	cls := &Class{
		name:     desc.Name,
		short:    shortNameOf(desc.Name),
		source:   desc.Source,
		registry: reg,
	}
	tmpl := newInstance(cls, false)
	cls.template = tmpl

	// Resolve parents up front so a bad parent list fails before any
	// member work.
	seenParent := make(map[string]bool, len(desc.Parents))
	for _, pname := range desc.Parents {
		if pname == desc.Name {
			return nil, &DefinitionError{Class: desc.Name, Message: "class cannot inherit from itself"}
		}
		if seenParent[pname] {
			return nil, &DefinitionError{Class: desc.Name, Message: "duplicate parent " + pname}
		}
		seenParent[pname] = true
		parent, ok := reg.Lookup(pname)
		if !ok {
			return nil, &DefinitionError{Class: desc.Name, Message: "unresolved parent " + pname}
		}
		cls.parents = append(cls.parents, parent)
	}

	// Own declarations. The child's records always win the merge below.
	ownNames := make(map[string]bool, len(desc.Members))
	for _, decl := range desc.Members {
		if err := validateDecl(desc.Name, decl); err != nil {
			return nil, err
		}
		if ownNames[decl.Name] {
			return nil, &DefinitionError{Class: desc.Name, Member: decl.Name, Message: "duplicate member declaration"}
		}
		ownNames[decl.Name] = true
		tmpl.members[decl.Name] = newMember(decl.Value, cls, decl.Modifiers.normalize())
	}

	// Merge parents in declaration order: a synthetic parent link under the
	// parent's full and short names, then promotion of every member the
	// parent exposes. Promoted records are shared with the parent
	// sub-instance's table, so reads and writes through either path hit the
	// same cell and serialization sees inherited state at its declaring
	// level.
	directLink := make(map[string]bool)
	shortAlias := make(map[string]bool)
	for _, parent := range cls.parents {
		sub := parent.template.cloneTree(false)

		link := newMember(InstanceValue(sub), cls, ModParent|ModPublic)
		// The full name always resolves, displacing short aliases and
		// promoted entries alike.
		tmpl.members[parent.name] = link
		directLink[parent.name] = true
		delete(shortAlias, parent.name)

		switch {
		case parent.short == parent.name:
			// Unnamespaced parent; the full name is the short name.
		case ownNames[parent.short] || directLink[parent.short] && !shortAlias[parent.short]:
			// A declared member or another parent's full name holds the
			// short key; this parent stays reachable by full name only.
		case shortAlias[parent.short]:
			// Two parents share a short name. Qualified access must go
			// through the full name.
			amb := tmpl.members[parent.short].clone()
			amb.ambiguous = true
			tmpl.members[parent.short] = amb
		default:
			tmpl.members[parent.short] = link
			directLink[parent.short] = true
			shortAlias[parent.short] = true
		}

		for name, rec := range sub.members {
			if ownNames[name] || directLink[name] {
				continue
			}
			existing, present := tmpl.members[name]
			if !present {
				tmpl.members[name] = rec
				continue
			}
			if existing == rec {
				// Same cell reached through two parents, e.g. a shared
				// static. Not a conflict.
				continue
			}
			if !existing.ambiguous {
				amb := existing.clone()
				amb.ambiguous = true
				tmpl.members[name] = amb
			}
		}
	}

	cls.missing = collectAbstract(tmpl)
	return cls, nil
}

// validateDecl checks one member declaration: naming rules, modifier
// consistency, reserved-name policy, and payload shape.
func validateDecl(className string, decl MemberDecl) error {
	fail := func(msg string) error {
		return &DefinitionError{Class: className, Member: decl.Name, Message: msg}
	}
	if decl.Name == "" {
		return fail("member name is empty")
	}
	if strings.Contains(decl.Name, "::") {
		return fail("member name contains a namespace separator")
	}
	if decl.Name == memberNameTag {
		return fail("member name is reserved for the serializer class tag")
	}
	if err := decl.Modifiers.validate(); err != nil {
		return err
	}
	if decl.Modifiers.Has(modExtension) {
		return fail("extension bit is not accepted from declarations")
	}

	isFunc := decl.Value.Type == TypeFunc
	if decl.Modifiers.Has(ModAbstract) && !decl.Value.IsNil() && !isFunc {
		return fail("abstract member payload must be empty or a placeholder function")
	}

	if strings.HasPrefix(decl.Name, "__") {
		switch {
		case decl.Name == ConstructorName || decl.Name == FinalizerName:
			if decl.Modifiers.Has(ModMeta) {
				return fail("lifecycle member cannot carry the meta modifier")
			}
			if decl.Modifiers.Has(ModStatic) {
				return fail("lifecycle member cannot be static")
			}
			if !isFunc {
				return fail("lifecycle member must be a function")
			}
		case isMetamethodName(decl.Name):
			if !decl.Modifiers.Has(ModMeta) {
				return fail("metamethod name requires the meta modifier")
			}
			if !isFunc && !decl.Modifiers.Has(ModAbstract) {
				return fail("metamethod must be a function")
			}
		default:
			return fail("unknown reserved name")
		}
	} else if decl.Modifiers.Has(ModMeta) {
		return fail("meta modifier requires a metamethod name")
	}
	return nil
}

// collectAbstract walks the merged tree and lists every abstract member
// that the flat table does not resolve to a concrete override.
func collectAbstract(tmpl *Instance) []AbstractMember {
	type key struct {
		name  string
		owner *Class
	}
	found := make(map[key]bool)
	var missing []AbstractMember

	visited := make(map[*Instance]bool)
	var walk func(inst *Instance)
	walk = func(inst *Instance) {
		if visited[inst] {
			return
		}
		visited[inst] = true
		for name, rec := range inst.members {
			if rec.modifiers.Has(ModParent) {
				if sub := rec.Value().InstanceVal; sub != nil {
					walk(sub)
				}
				continue
			}
			if !rec.modifiers.Has(ModAbstract) {
				continue
			}
			if top, ok := tmpl.members[name]; ok && !top.ambiguous && !top.modifiers.Has(ModAbstract) {
				// Concrete override somewhere in the chain.
				continue
			}
			owner := rec.Owner()
			k := key{name, owner}
			if found[k] {
				continue
			}
			found[k] = true
			missing = append(missing, AbstractMember{Name: name, Owner: owner.name})
		}
	}
	walk(tmpl)

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Owner != missing[j].Owner {
			return missing[i].Owner < missing[j].Owner
		}
		return missing[i].Name < missing[j].Name
	})
	return missing
}
