package object

import (
	"fmt"
	"strings"
)

// DefinitionError reports an invalid class description: bad modifier
// combinations, reserved names, duplicate registration under a different
// source, or a missing parent.
type DefinitionError struct {
	Class   string
	Member  string
	Message string
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString("object: definition")
	if e.Class != "" {
		b.WriteString(" of ")
		b.WriteString(e.Class)
	}
	if e.Member != "" {
		b.WriteString(" member ")
		b.WriteString(e.Member)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// AbstractError reports an attempt to instantiate a class that still has
// unimplemented abstract members. Missing lists each member with the class
// that declared it.
type AbstractError struct {
	Class   string
	Missing []AbstractMember
}

// AbstractMember names one unimplemented abstract member.
type AbstractMember struct {
	Name  string
	Owner string
}

func (e *AbstractError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = m.Name + " (declared by " + m.Owner + ")"
	}
	return fmt.Sprintf("object: cannot instantiate abstract class %s: unimplemented %s",
		e.Class, strings.Join(names, ", "))
}

// AccessError reports a denied read, write, or call.
type AccessError struct {
	Class  string
	Member string
	Reason string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("object: access to %s.%s denied: %s", e.Class, e.Member, e.Reason)
}

// ResolutionError reports a name that cannot be resolved unambiguously:
// an unknown class, an unknown parent qualifier, or a member inherited
// from several parents with no local override.
type ResolutionError struct {
	Class   string
	Member  string
	Message string
}

func (e *ResolutionError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("object: cannot resolve %s: %s", e.Class, e.Message)
	}
	return fmt.Sprintf("object: cannot resolve %s.%s: %s", e.Class, e.Member, e.Message)
}

// SerializeError reports data the structural serializer cannot emit or
// absorb: cyclic values, function payloads inside data, or instance
// references held as member values.
type SerializeError struct {
	Class   string
	Member  string
	Message string
}

func (e *SerializeError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("object: cannot serialize %s: %s", e.Class, e.Message)
	}
	return fmt.Sprintf("object: cannot serialize %s.%s: %s", e.Class, e.Member, e.Message)
}

// FinalizerFault wraps a panic or error raised by a finalizer. Faults are
// logged and swallowed, never propagated to collector goroutines.
type FinalizerFault struct {
	Class string
	Cause any
}

func (e *FinalizerFault) Error() string {
	return fmt.Sprintf("object: finalizer of %s failed: %v", e.Class, e.Cause)
}
