// Package adapter defines the response adapter contract: the sink that maps
// a parsed RESP3 node stream onto a concrete result. The core treats
// adapters as opaque sinks; this package only supplies the contract plus a
// handful of general-purpose built-ins so internal packages (and tests)
// have something concrete to drive without depending on a user's adapter
// implementation.
package adapter

import "redis3/internal/resp3"

// Adapter receives the pre-order node stream for one response and turns it
// into whatever shape the caller wants. OnNode reports a problem with a node
// by setting *err. The multiplexer still feeds the rest of the message to
// the adapter and completes the element with the first such error; it is
// not fatal to the connection, only to the element being parsed.
type Adapter interface {
	OnInit()
	OnNode(node resp3.Node, err *error)
	OnDone()
}

// Discard is an Adapter that accepts and ignores every node. It is the
// default adapter for commands whose reply the caller does not need: NewElem
// substitutes it for a nil adapter, and the multiplexer uses it as the push
// receiver until one is installed.
type Discard struct{}

func (Discard) OnInit()                        {}
func (Discard) OnNode(resp3.Node, *error)       {}
func (Discard) OnDone()                         {}
