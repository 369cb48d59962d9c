// Package sequencer bootstraps a sequencer node.
//
// Serve takes a node from its options to a running server through a fixed
// series of stages:
//
//  unconfigured -> backendSelected -> handleConstructed -> subscribed ->
//  stateBuilt -> modulesRegistered -> serverBound -> consensus started
//
// Each stage is its own type and only offers the transition to the next one,
// so consensus cannot be started before the event stream is obtained, and
// the port is never bound unless every module registered. A failure at any
// stage releases what was opened and returns without a server.
//
// Once started, the node runs the HTTP server and, when a query backend is
// configured, the update loop as one supervised task. Node.Wait returns when
// that task ends and reports the first failure.
package sequencer
