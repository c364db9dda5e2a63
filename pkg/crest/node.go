package crest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// HrefField is the field that links a node to its canonical representation.
const HrefField = "href"

// Connection is what the resource graph needs from a transport.
type Connection interface {
	// Get fetches url and returns the decoded JSON document.
	Get(ctx context.Context, url string) (any, error)
	// CacheTime is how long a dereferenced node stays fresh. It is read at
	// whole-second resolution.
	CacheTime() time.Duration
}

// Clock may be implemented by a Connection to control the time used for
// cache decisions.
type Clock interface {
	Now() time.Time
}

// Node is a wrapped JSON object. Its field set is fixed at construction; only
// the dereference cache changes afterwards.
type Node struct {
	fields map[string]Value
	keys   []string
	conn   Connection
	cache  *cacheCell
}

// Wrap turns a decoded JSON value into a Value, wrapping objects as Nodes at
// any depth. conn is used when nodes are dereferenced and may be nil for
// graphs that are only read.
func Wrap(v any, conn Connection) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case map[string]any:
		node, err := newNode(t, conn)
		if err != nil {
			return Value{}, err
		}

		return NodeValue(node), nil
	case []any:
		items := make([]Value, len(t))

		for i, item := range t {
			wrapped, err := Wrap(item, conn)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}

			items[i] = wrapped
		}

		return ListValue(items), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case float64:
		return wrapFloat(t, 64)
	case float32:
		return wrapFloat(float64(t), 32)
	case int:
		return NumberValue(json.Number(strconv.Itoa(t))), nil
	case int8:
		return NumberValue(json.Number(strconv.FormatInt(int64(t), 10))), nil
	case int16:
		return NumberValue(json.Number(strconv.FormatInt(int64(t), 10))), nil
	case int32:
		return NumberValue(json.Number(strconv.FormatInt(int64(t), 10))), nil
	case int64:
		return NumberValue(json.Number(strconv.FormatInt(t, 10))), nil
	case uint:
		return NumberValue(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint8:
		return NumberValue(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint16:
		return NumberValue(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint32:
		return NumberValue(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint64:
		return NumberValue(json.Number(strconv.FormatUint(t, 10))), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// WrapNode wraps a decoded JSON document that must be an object.
func WrapNode(v any, conn Connection) (*Node, error) {
	wrapped, err := Wrap(v, conn)
	if err != nil {
		return nil, err
	}

	node, ok := wrapped.AsNode()
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotAnObject, wrapped.Kind())
	}

	return node, nil
}

func wrapFloat(f float64, bitSize int) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}

	return NumberValue(json.Number(strconv.FormatFloat(f, 'f', -1, bitSize))), nil
}

func newNode(object map[string]any, conn Connection) (*Node, error) {
	node := &Node{
		fields: make(map[string]Value, len(object)),
		keys:   make([]string, 0, len(object)),
		conn:   conn,
		cache:  &cacheCell{},
	}

	for key, raw := range object {
		wrapped, err := Wrap(raw, conn)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}

		node.fields[key] = wrapped
		node.keys = append(node.keys, key)
	}

	sort.Strings(node.keys)

	return node, nil
}

// Field returns the value stored under name.
func (n *Node) Field(name string) (Value, error) {
	value, ok := n.fields[name]
	if !ok {
		href, _ := n.Href()

		return Value{}, &FieldNotFoundError{Field: name, Href: href}
	}

	return value, nil
}

// Has reports whether the node has a field called name.
func (n *Node) Has(name string) bool {
	_, ok := n.fields[name]

	return ok
}

// Fields returns the field names in sorted order.
func (n *Node) Fields() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)

	return out
}

// Len returns the number of fields.
func (n *Node) Len() int { return len(n.keys) }

// Href returns the node's link. Only a string href counts.
func (n *Node) Href() (string, bool) {
	value, ok := n.fields[HrefField]
	if !ok {
		return "", false
	}

	return value.AsString()
}

// Fetchable reports whether Resolve would dereference the node.
func (n *Node) Fetchable() bool {
	_, ok := n.Href()

	return ok
}

// Raw converts the node back into a map of plain decoded JSON values.
func (n *Node) Raw() map[string]any {
	out := make(map[string]any, len(n.fields))
	for key, value := range n.fields {
		out[key] = value.Raw()
	}

	return out
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Raw())
}

// Lookup walks a dotted path from n. Segments name fields on nodes and
// indexes on lists, e.g. "items.0.href". Nothing is fetched.
func (n *Node) Lookup(path string) (Value, error) {
	return n.walk(context.Background(), path, false)
}

// Follow walks a dotted path like Lookup, but dereferences every fetchable
// node it passes through, including the last one.
func (n *Node) Follow(ctx context.Context, path string) (Value, error) {
	return n.walk(ctx, path, true)
}

func (n *Node) walk(ctx context.Context, path string, resolve bool) (Value, error) {
	current := NodeValue(n)

	if resolve {
		res, err := n.Resolve(ctx)
		if err != nil {
			return Value{}, err
		}

		current = res.Value
	}

	if path == "" {
		return current, nil
	}

	for _, segment := range strings.Split(path, ".") {
		next, err := step(current, segment)
		if err != nil {
			return Value{}, err
		}

		if node, ok := next.AsNode(); ok && resolve {
			res, err := node.Resolve(ctx)
			if err != nil {
				return Value{}, err
			}

			next = res.Value
		}

		current = next
	}

	return current, nil
}

func step(current Value, segment string) (Value, error) {
	if segment == "" {
		return Value{}, ErrEmptyPathSegment
	}

	switch current.Kind() {
	case KindNode:
		node, _ := current.AsNode()

		return node.Field(segment)
	case KindList:
		index, err := strconv.Atoi(segment)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a list index", ErrIndexOutOfRange, segment)
		}

		return current.Index(index)
	default:
		return Value{}, fmt.Errorf("%w: cannot select %q from %s", ErrNotAnObject, segment, current.Kind())
	}
}
