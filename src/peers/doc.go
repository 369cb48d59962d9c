// Package peers defines the membership set of a sequencer network.
//
// A peer is identified by its public key and optionally a moniker, a
// non-unique user-friendly name. The ordered list of peers is read from a
// peers.json file in the node's data directory; the position of a node's own
// public key in that list is its node index.
package peers
