package node

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
)

//Validator struct holds information about the validator for a node
type Validator struct {
	Key     *btcec.PrivateKey
	Moniker string

	pubHex string
}

//NewValidator is a factory method for a Validator
func NewValidator(key *btcec.PrivateKey, moniker string) *Validator {
	return &Validator{
		Key:     key,
		Moniker: moniker,
	}
}

//PublicKeyHex returns the validator's public key as a hex string
func (v *Validator) PublicKeyHex() string {
	if len(v.pubHex) == 0 {
		v.pubHex = keys.PublicKeyHex(v.Key.PubKey())
	}
	return v.pubHex
}

// SignBlock signs block with the validator's key.
func (v *Validator) SignBlock(block *consensus.Block) error {
	return block.Sign(v.Key)
}
