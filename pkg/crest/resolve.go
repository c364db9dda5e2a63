package crest

import (
	"context"
	"sync"
	"time"
)

// Source tells where a Resolution's value came from.
type Source int

const (
	// SourceNonFetchable means the node has no href; the value is the node itself.
	SourceNonFetchable Source = iota
	// SourceCached means the value was served from the node's cache.
	SourceCached
	// SourceFetched means the href was fetched during this call.
	SourceFetched
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceNonFetchable:
		return "non-fetchable"
	case SourceCached:
		return "cached"
	case SourceFetched:
		return "fetched"
	default:
		return "unknown"
	}
}

// Resolution is the result of dereferencing a node.
type Resolution struct {
	Value  Value
	Source Source
	// FetchedAt is when the returned value was fetched, in whole seconds.
	// Zero for non-fetchable nodes.
	FetchedAt time.Time
}

// cacheCell is a node's single dereference slot. It is only ever replaced
// as a whole, under mu.
type cacheCell struct {
	mu        sync.Mutex
	present   bool
	fetchedAt int64
	value     Value
}

// Resolve dereferences the node. A node without an href resolves to itself
// without touching the connection. Otherwise the cached result is returned
// while it is no older than the connection's cache time; past that, the href
// is fetched again and the cache replaced. Transport errors are returned
// as-is and leave the cache untouched.
func (n *Node) Resolve(ctx context.Context) (Resolution, error) {
	href, ok := n.Href()
	if !ok {
		return Resolution{Value: NodeValue(n), Source: SourceNonFetchable}, nil
	}

	if n.conn == nil {
		return Resolution{}, ErrNoConnection
	}

	n.cache.mu.Lock()
	defer n.cache.mu.Unlock()

	now := n.now()
	ttl := int64(n.conn.CacheTime() / time.Second)

	if n.cache.present && now-n.cache.fetchedAt <= ttl {
		return Resolution{
			Value:     n.cache.value,
			Source:    SourceCached,
			FetchedAt: time.Unix(n.cache.fetchedAt, 0),
		}, nil
	}

	doc, err := n.conn.Get(ctx, href)
	if err != nil {
		return Resolution{}, err
	}

	fresh, err := Wrap(doc, n.conn)
	if err != nil {
		return Resolution{}, err
	}

	n.cache.present = true
	n.cache.fetchedAt = now
	n.cache.value = fresh

	return Resolution{Value: fresh, Source: SourceFetched, FetchedAt: time.Unix(now, 0)}, nil
}

// Invalidate empties the node's cache so the next Resolve fetches.
func (n *Node) Invalidate() {
	n.cache.mu.Lock()
	defer n.cache.mu.Unlock()

	n.cache.present = false
	n.cache.fetchedAt = 0
	n.cache.value = Value{}
}

// Cached returns the cached dereference result, if any.
func (n *Node) Cached() (Value, time.Time, bool) {
	n.cache.mu.Lock()
	defer n.cache.mu.Unlock()

	if !n.cache.present {
		return Value{}, time.Time{}, false
	}

	return n.cache.value, time.Unix(n.cache.fetchedAt, 0), true
}

// now returns the current time in whole seconds, rounded to the nearest one.
func (n *Node) now() int64 {
	var t time.Time
	if clock, ok := n.conn.(Clock); ok {
		t = clock.Now()
	} else {
		t = time.Now()
	}

	return t.Round(time.Second).Unix()
}
