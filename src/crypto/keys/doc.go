// Package keys implements the public key cryptography used by a sequencer
// node.
//
// Each node owns a secp256k1 key-pair. The public key identifies the node in
// the membership set (peers.json) and the private key signs every block the
// node decides, so that readers of the query service can check who produced
// it.
package keys
