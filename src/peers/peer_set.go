package peers

// PeerSet is an ordered set of Peers forming a sequencer network.
type PeerSet struct {
	Peers    []*Peer          `json:"peers"`
	ByPubKey map[string]*Peer `json:"-"`

	index map[string]int
}

// NewPeerSet creates a new PeerSet from a list of Peers. When the same key
// appears twice, the first occurrence wins.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		ByPubKey: make(map[string]*Peer),
		index:    make(map[string]int),
	}

	for _, peer := range peers {
		pub := peer.PubKeyString()
		if _, ok := peerSet.ByPubKey[pub]; ok {
			continue
		}
		peerSet.index[pub] = len(peerSet.Peers)
		peerSet.ByPubKey[pub] = peer
		peerSet.Peers = append(peerSet.Peers, peer)
	}

	return peerSet
}

// Len returns the number of peers in the set.
func (peerSet *PeerSet) Len() int {
	return len(peerSet.Peers)
}

// IndexOf returns the position of a public key in the set.
func (peerSet *PeerSet) IndexOf(pubKeyHex string) (int, bool) {
	i, ok := peerSet.index[normalisePubKey(pubKeyHex)]
	return i, ok
}

// PubKeys returns the normalised public keys in set order.
func (peerSet *PeerSet) PubKeys() []string {
	res := make([]string, len(peerSet.Peers))
	for i, p := range peerSet.Peers {
		res[i] = p.PubKeyString()
	}
	return res
}
