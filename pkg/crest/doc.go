// Package crest provides the resource graph for the EVE Online CREST API.
//
// # Overview
//
// CREST is a hypermedia API: documents embed objects carrying an "href" that
// points at their canonical representation. Wrap turns a decoded JSON
// document into a tree of Values. Objects become Nodes, arrays become lists
// of Values and scalars are kept as they are. A Node with an href can be
// dereferenced with Resolve, which fetches the link through a Connection and
// caches the result for the connection's cache time.
//
// A concrete Connection is provided by the eve package, which wires
// configuration, transport and authentication. Most consumers should import
// eve to construct a client and then navigate the graph with the types here.
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/crest/pkg/crest"
//	  "github.com/fivetwenty-io/crest/pkg/eve"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := eve.New(&crest.Config{})
//	  if err != nil { log.Fatal(err) }
//
//	  root, err := cli.Root(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  regions, err := root.Follow(ctx, "regions")
//	  if err != nil { log.Fatal(err) }
//	  _ = regions
//	}
//
// # Fields
//
// Field returns the Value stored under a name; a missing name fails with a
// *FieldNotFoundError that matches ErrFieldNotFound. Lookup walks dotted
// paths ("items.0.href") without fetching, Follow does the same while
// dereferencing every fetchable node on the way.
//
// # Caching
//
// Each node holds a single cache slot guarded by its own mutex. A cached
// result is reused while the time elapsed since it was fetched, in whole
// seconds, does not exceed the cache time. A failed fetch leaves the slot as
// it was.
//
// # Errors
//
// Transport failures are returned unchanged. A non-success HTTP status is a
// *TransportError; helpers such as IsNotFound and IsUnauthorized branch on it.
package crest
