package object

import (
	"strconv"
	"strings"
)

// Modifier is a bit set of member qualifiers.
type Modifier uint16

const (
	// ModPublic marks a member readable and writable from anywhere.
	ModPublic Modifier = 1 << iota
	// ModPrivate restricts access to code whose scope is the declaring class.
	ModPrivate
	// ModProtected restricts access to the declaring class and its descendants.
	ModProtected
	// ModStatic stores the member in a single cell shared by the class and
	// every instance.
	ModStatic
	// ModConst rejects writes after initialization.
	ModConst
	// ModAbstract declares a member that concrete subclasses must override.
	ModAbstract
	// ModTransient excludes the member from serialization.
	ModTransient
	// ModMeta marks a function as a metamethod implementation.
	ModMeta
	// ModParent marks a member holding a parent sub-instance.
	ModParent

	// modExtension tags members created by undeclared writes on live
	// instances. Internal; never accepted from descriptions.
	modExtension
)

var modifierNames = []struct {
	bit  Modifier
	name string
}{
	{ModPublic, "public"},
	{ModPrivate, "private"},
	{ModProtected, "protected"},
	{ModStatic, "static"},
	{ModConst, "const"},
	{ModAbstract, "abstract"},
	{ModTransient, "transient"},
	{ModMeta, "meta"},
	{ModParent, "parent"},
}

// Has reports whether all bits in q are set.
func (m Modifier) Has(q Modifier) bool {
	return m&q == q
}

// Visibility returns just the access bits.
func (m Modifier) Visibility() Modifier {
	return m & (ModPublic | ModPrivate | ModProtected)
}

// String renders the set as space-separated keywords.
func (m Modifier) String() string {
	var parts []string
	for _, entry := range modifierNames {
		if m.Has(entry.bit) {
			parts = append(parts, entry.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// ParseModifier resolves a single keyword to its bit.
func ParseModifier(word string) (Modifier, bool) {
	for _, entry := range modifierNames {
		if entry.name == word {
			return entry.bit, true
		}
	}
	return 0, false
}

// ParseModifiers resolves a list of keywords into a combined set. Unknown
// keywords and conflicting sets produce a DefinitionError.
func ParseModifiers(words []string) (Modifier, error) {
	var m Modifier
	for _, w := range words {
		bit, ok := ParseModifier(w)
		if !ok {
			return 0, &DefinitionError{Message: "unknown modifier " + strconv.Quote(w)}
		}
		m |= bit
	}
	return m, m.validate()
}

// normalize applies defaults: members without an explicit visibility are
// public.
func (m Modifier) normalize() Modifier {
	if m.Visibility() == 0 {
		return m | ModPublic
	}
	return m
}

// validate rejects contradictory combinations.
func (m Modifier) validate() error {
	vis := m.Visibility()
	if vis != 0 && vis != ModPublic && vis != ModPrivate && vis != ModProtected {
		return &DefinitionError{Message: "conflicting visibility modifiers: " + m.String()}
	}
	if m.Has(ModStatic) && m.Has(ModAbstract) {
		return &DefinitionError{Message: "member cannot be both static and abstract"}
	}
	if m.Has(ModConst) && m.Has(ModAbstract) {
		return &DefinitionError{Message: "member cannot be both const and abstract"}
	}
	if m.Has(ModParent) {
		return &DefinitionError{Message: "parent modifier is reserved for merged parent members"}
	}
	return nil
}
