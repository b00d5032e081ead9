package object

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueType identifies the kind of payload a Value carries.
type ValueType int

const (
	TypeNil ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeList
	TypeMap
	TypeFunc
	TypeInstance
)

// String returns the lowercase name of the value type.
func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeFunc:
		return "function"
	case TypeInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// Value is the tagged union flowing through member tables. Lists and maps
// are held by pointer so structural copies can detect shared and cyclic
// substructures by identity.
type Value struct {
	Type        ValueType
	IntVal      int64
	FloatVal    float64
	StringVal   string
	ListVal     *List
	MapVal      *Map
	FuncVal     *Func
	InstanceVal *Instance
}

// Nil is the zero value; handy as a return default.
var Nil = Value{Type: TypeNil}

// NilValue returns a nil value.
func NilValue() Value {
	return Value{Type: TypeNil}
}

// BoolValue creates a boolean value.
func BoolValue(b bool) Value {
	if b {
		return Value{Type: TypeBool, IntVal: 1}
	}
	return Value{Type: TypeBool}
}

// IntValue creates an integer value.
func IntValue(n int64) Value {
	return Value{Type: TypeInt, IntVal: n}
}

// FloatValue creates a float value.
func FloatValue(f float64) Value {
	return Value{Type: TypeFloat, FloatVal: f}
}

// StringValue creates a string value.
func StringValue(s string) Value {
	return Value{Type: TypeString, StringVal: s}
}

// ListValue creates a list reference value.
func ListValue(l *List) Value {
	return Value{Type: TypeList, ListVal: l}
}

// MapValue creates a map reference value.
func MapValue(m *Map) Value {
	return Value{Type: TypeMap, MapVal: m}
}

// FuncValue creates a function value.
func FuncValue(fn *Func) Value {
	return Value{Type: TypeFunc, FuncVal: fn}
}

// InstanceValue creates an instance reference value.
func InstanceValue(inst *Instance) Value {
	return Value{Type: TypeInstance, InstanceVal: inst}
}

// IsNil returns true if the value is nil.
func (v Value) IsNil() bool {
	return v.Type == TypeNil
}

// IsTruthy reports whether the value counts as true in conditionals.
// Only nil and false are falsy, matching the table-oriented host model.
func (v Value) IsTruthy() bool {
	switch v.Type {
	case TypeNil:
		return false
	case TypeBool:
		return v.IntVal != 0
	default:
		return true
	}
}

// AsBool converts the value to a bool via truthiness.
func (v Value) AsBool() bool {
	return v.IsTruthy()
}

// AsInt converts the value to an integer.
func (v Value) AsInt() int64 {
	switch v.Type {
	case TypeInt:
		return v.IntVal
	case TypeFloat:
		return int64(v.FloatVal)
	case TypeBool:
		return v.IntVal
	case TypeString:
		n, _ := strconv.ParseInt(v.StringVal, 10, 64)
		return n
	default:
		return 0
	}
}

// AsFloat converts the value to a float.
func (v Value) AsFloat() float64 {
	switch v.Type {
	case TypeFloat:
		return v.FloatVal
	case TypeInt:
		return float64(v.IntVal)
	case TypeBool:
		return float64(v.IntVal)
	case TypeString:
		f, _ := strconv.ParseFloat(v.StringVal, 64)
		return f
	default:
		return 0
	}
}

// AsString converts the value to a display string. Instances consult their
// __tostring metamethod when one is declared.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeBool:
		if v.IntVal != 0 {
			return "true"
		}
		return "false"
	case TypeInt:
		return strconv.FormatInt(v.IntVal, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.FloatVal, 'f', -1, 64)
	case TypeString:
		return v.StringVal
	case TypeList:
		if v.ListVal == nil {
			return "[]"
		}
		parts := make([]string, len(v.ListVal.Items))
		for i, item := range v.ListVal.Items {
			parts[i] = item.AsString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeMap:
		if v.MapVal == nil {
			return "{}"
		}
		keys := v.MapVal.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.MapVal.Entries[k].AsString()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeFunc:
		if v.FuncVal != nil && v.FuncVal.Name != "" {
			return "function " + v.FuncVal.Name
		}
		return "function"
	case TypeInstance:
		if v.InstanceVal == nil {
			return "nil"
		}
		return v.InstanceVal.Ref().MetaString()
	default:
		return ""
	}
}

// Equal reports structural equality for primitives, lists, and maps.
// Functions and instances compare by identity.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeNil:
		return true
	case TypeBool, TypeInt:
		return v.IntVal == other.IntVal
	case TypeFloat:
		return v.FloatVal == other.FloatVal
	case TypeString:
		return v.StringVal == other.StringVal
	case TypeList:
		if v.ListVal == other.ListVal {
			return true
		}
		if v.ListVal == nil || other.ListVal == nil {
			return false
		}
		if len(v.ListVal.Items) != len(other.ListVal.Items) {
			return false
		}
		for i, item := range v.ListVal.Items {
			if !item.Equal(other.ListVal.Items[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if v.MapVal == other.MapVal {
			return true
		}
		if v.MapVal == nil || other.MapVal == nil {
			return false
		}
		if len(v.MapVal.Entries) != len(other.MapVal.Entries) {
			return false
		}
		for k, mv := range v.MapVal.Entries {
			ov, ok := other.MapVal.Entries[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	case TypeFunc:
		return v.FuncVal == other.FuncVal
	case TypeInstance:
		// Identity. Structural or custom equality belongs to the __eq
		// metamethod, which also keeps cyclic instance graphs safe.
		return v.InstanceVal == other.InstanceVal
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Lists and maps
// ---------------------------------------------------------------------------

// List is an ordered sequence of values.
type List struct {
	Items []Value
}

// NewList creates a list from the given items.
func NewList(items ...Value) *List {
	l := &List{}
	l.Items = append(l.Items, items...)
	return l
}

// Push appends an element.
func (l *List) Push(v Value) {
	l.Items = append(l.Items, v)
}

// At returns the element at idx, or nil when out of range.
func (l *List) At(idx int) Value {
	if idx < 0 || idx >= len(l.Items) {
		return Nil
	}
	return l.Items[idx]
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.Items)
}

// Map is a string-keyed table of values.
type Map struct {
	Entries map[string]Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{Entries: make(map[string]Value)}
}

// Put stores a key/value pair and returns the map for chaining.
func (m *Map) Put(key string, v Value) *Map {
	if m.Entries == nil {
		m.Entries = make(map[string]Value)
	}
	m.Entries[key] = v
	return m
}

// Get returns the value for key, or nil when absent.
func (m *Map) Get(key string) Value {
	if v, ok := m.Entries[key]; ok {
		return v
	}
	return Nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.Entries)
}

// Keys returns the entry keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// Plain-data conversion
// ---------------------------------------------------------------------------

// FromPlain converts decoded plain data (the shapes produced by JSON, YAML,
// and CBOR decoders) into a Value. Unknown concrete types degrade to their
// string rendering.
func FromPlain(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Nil
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint64:
		return IntValue(int64(x))
	case float64:
		if x == float64(int64(x)) {
			return IntValue(int64(x))
		}
		return FloatValue(x)
	case float32:
		return FromPlain(float64(x))
	case string:
		return StringValue(x)
	case []any:
		l := NewList()
		for _, elem := range x {
			l.Push(FromPlain(elem))
		}
		return ListValue(l)
	case map[string]any:
		m := NewMap()
		for k, elem := range x {
			m.Put(k, FromPlain(elem))
		}
		return MapValue(m)
	default:
		return StringValue(fmt.Sprintf("%v", x))
	}
}
