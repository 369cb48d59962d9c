// Package consensus adapts a running consensus engine to the rest of the
// node.
//
// An Engine is constructed by an injected InitHandle function and wrapped in
// a Handle. The Handle is the only way to reach the engine: it hands out the
// engine's EventStream together with a Starter, so the stream is always
// obtained before the engine emits anything. Minimal nodes, which keep no
// query backend, use WithoutEvents instead and never subscribe.
//
// Events are Decide, carrying a signed Block, and ViewFinished. Each
// EventStream stamps the events it delivers with a contiguous sequence
// number starting at zero.
package consensus
