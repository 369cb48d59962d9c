package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/mosaicnetworks/sequencer/src/common"
)

// PrivateKeyLen is the length in bytes of a serialized private key.
const PrivateKeyLen = 32

// GenerateKey creates a new secp256k1 private key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// DumpPrivateKey exports a private key into a 32-byte big-endian dump.
func DumpPrivateKey(priv *btcec.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return priv.Serialize()
}

// ParsePrivateKey creates a private key from a 32-byte dump as produced by
// DumpPrivateKey.
func ParsePrivateKey(d []byte) (*btcec.PrivateKey, error) {
	if len(d) != PrivateKeyLen {
		return nil, fmt.Errorf("invalid length, need %d bytes, got %d", PrivateKeyLen, len(d))
	}

	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(d); overflow {
		return nil, errors.New("invalid private key, >=N")
	}
	if scalar.IsZero() {
		return nil, errors.New("invalid private key, zero")
	}

	return btcec.PrivKeyFromScalar(&scalar), nil
}

// PrivateKeyHex returns the hexadecimal representation of a raw private key as
// returned by DumpPrivateKey
func PrivateKeyHex(key *btcec.PrivateKey) string {
	return hex.EncodeToString(DumpPrivateKey(key))
}

// PublicKeyBytes returns the compressed encoding of a public key.
func PublicKeyBytes(pub *btcec.PublicKey) []byte {
	if pub == nil {
		return nil
	}
	return pub.SerializeCompressed()
}

// PublicKeyHex returns the 0X-prefixed uppercase hex of the compressed public
// key. It is the form used in peers.json.
func PublicKeyHex(pub *btcec.PublicKey) string {
	return common.EncodeToString(PublicKeyBytes(pub))
}

// ParsePublicKeyHex parses a public key produced by PublicKeyHex.
func ParsePublicKeyHex(s string) (*btcec.PublicKey, error) {
	raw, err := common.DecodeFromString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(raw)
}

// Sign signs a 32-byte hash and returns the DER signature as hex.
func Sign(priv *btcec.PrivateKey, hash []byte) string {
	sig := ecdsa.Sign(priv, hash)
	return hex.EncodeToString(sig.Serialize())
}

// Verify checks a signature produced by Sign against a public key.
func Verify(pub *btcec.PublicKey, hash []byte, sig string) bool {
	raw, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	parsed, err := ecdsa.ParseDERSignature(raw)
	if err != nil {
		return false
	}

	return parsed.Verify(hash, pub)
}
