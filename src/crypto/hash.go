package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 returns the SHA256 hash of the data.
func SHA256(data []byte) []byte {
	hasher := sha256.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// SHA256Hex returns the lowercase hex of the SHA256 hash of the data. It is
// the identifier used for transactions and blocks in the query API.
func SHA256Hex(data []byte) string {
	return hex.EncodeToString(SHA256(data))
}
