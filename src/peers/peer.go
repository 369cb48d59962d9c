package peers

import (
	"strings"
)

// Peer is a member of the sequencer network.
type Peer struct {
	NetAddr   string
	PubKeyHex string
	Moniker   string
}

// NewPeer creates a Peer with a normalised public key.
func NewPeer(pubKeyHex, netAddr, moniker string) *Peer {
	return &Peer{
		NetAddr:   netAddr,
		PubKeyHex: normalisePubKey(pubKeyHex),
		Moniker:   moniker,
	}
}

// PubKeyString returns the normalised public key.
func (p *Peer) PubKeyString() string {
	return normalisePubKey(p.PubKeyHex)
}

// normalisePubKey standardises public key strings to the 0X-prefixed
// uppercase form derived from a private key.
func normalisePubKey(pub string) string {
	return "0X" + strings.TrimPrefix(strings.ToUpper(pub), "0X")
}
