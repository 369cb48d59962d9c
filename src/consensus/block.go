package consensus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/crypto"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
)

// BlockBody is the signed part of a Block.
type BlockBody struct {
	View         uint64
	Timestamp    int64
	Transactions [][]byte
}

// Marshal - json encoding of body only
func (bb *BlockBody) Marshal() ([]byte, error) {
	bf := bytes.NewBuffer([]byte{})
	enc := json.NewEncoder(bf)
	if err := enc.Encode(bb); err != nil {
		return nil, err
	}
	return bf.Bytes(), nil
}

// Hash ...
func (bb *BlockBody) Hash() ([]byte, error) {
	hashBytes, err := bb.Marshal()
	if err != nil {
		return nil, err
	}
	return crypto.SHA256(hashBytes), nil
}

// Block is a batch of transactions decided in one view.
type Block struct {
	Body      BlockBody
	Hash      string // 0X-prefixed hex of the body hash
	Signer    string // 0X-prefixed hex of the compressed public key
	Signature string
}

// NewBlock ...
func NewBlock(view uint64, timestamp time.Time, txs [][]byte) *Block {
	return &Block{
		Body: BlockBody{
			View:         view,
			Timestamp:    timestamp.UnixNano(),
			Transactions: txs,
		},
	}
}

// View ...
func (b *Block) View() uint64 {
	return b.Body.View
}

// Transactions ...
func (b *Block) Transactions() [][]byte {
	return b.Body.Transactions
}

// Time returns the block timestamp.
func (b *Block) Time() time.Time {
	return time.Unix(0, b.Body.Timestamp)
}

// Sign hashes the body and signs it, filling Hash, Signer and Signature.
func (b *Block) Sign(priv *btcec.PrivateKey) error {
	hash, err := b.Body.Hash()
	if err != nil {
		return err
	}
	b.Hash = common.EncodeToString(hash)
	b.Signer = keys.PublicKeyHex(priv.PubKey())
	b.Signature = keys.Sign(priv, hash)
	return nil
}

// Verify checks that Hash matches the body and that Signature is a valid
// signature by Signer.
func (b *Block) Verify() (bool, error) {
	hash, err := b.Body.Hash()
	if err != nil {
		return false, err
	}
	if common.EncodeToString(hash) != b.Hash {
		return false, nil
	}
	pub, err := keys.ParsePublicKeyHex(b.Signer)
	if err != nil {
		return false, fmt.Errorf("signer: %w", err)
	}
	return keys.Verify(pub, hash, b.Signature), nil
}

// TxHash is the identifier of a transaction: the lowercase hex SHA256 of its
// bytes.
func TxHash(tx []byte) string {
	return crypto.SHA256Hex(tx)
}
