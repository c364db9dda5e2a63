package crest

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindNull is a JSON null.
	KindNull Kind = iota
	// KindBool is a JSON boolean.
	KindBool
	// KindNumber is a JSON number.
	KindNumber
	// KindString is a JSON string.
	KindString
	// KindNode is a nested object wrapped as a Node.
	KindNode
	// KindList is a JSON array whose elements are wrapped recursively.
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindNode:
		return "node"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a wrapped JSON value: a scalar, a Node or a list of Values.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	node *Node
	list []Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a JSON number literal.
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// NodeValue wraps a node.
func NodeValue(n *Node) Value {
	if n == nil {
		return Null()
	}

	return Value{kind: KindNode, node: n}
}

// ListValue wraps a slice of already wrapped values.
func ListValue(items []Value) Value { return Value{kind: KindList, list: items} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsNode returns the nested node, if v holds one.
func (v Value) AsNode() (*Node, bool) {
	return v.node, v.kind == KindNode
}

// AsList returns the wrapped elements, if v holds a list.
func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// AsString returns the string, if v holds one.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsBool returns the boolean, if v holds one.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number literal, if v holds one.
func (v Value) AsNumber() (json.Number, bool) {
	return v.num, v.kind == KindNumber
}

// AsInt returns the number as an int64. It fails for non-numbers and for
// numbers with a fractional part.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	i, err := v.num.Int64()
	if err != nil {
		return 0, false
	}

	return i, true
}

// AsFloat returns the number as a float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}

	return f, true
}

// Index returns the i-th element of a list value.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindList {
		return Value{}, fmt.Errorf("%w: got %s", ErrNotAList, v.kind)
	}

	if i < 0 || i >= len(v.list) {
		return Value{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(v.list))
	}

	return v.list[i], nil
}

// Raw converts v back into plain decoded JSON values
// (map[string]any, []any, json.Number, string, bool, nil).
func (v Value) Raw() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindNode:
		return v.node.Raw()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Raw()
		}

		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler. Cached dereference results are not
// included.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// Summary renders v on a single line: scalars verbatim, nodes by href or
// field count, lists by length.
func (v Value) Summary() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindNode:
		if href, ok := v.node.Href(); ok {
			return "-> " + href
		}

		return fmt.Sprintf("{%d fields}", v.node.Len())
	case KindList:
		return fmt.Sprintf("[%d items]", len(v.list))
	default:
		return v.kind.String()
	}
}
