package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EncodeToString returns the UPPERCASE string representation of hexBytes with
// the 0X prefix
func EncodeToString(hexBytes []byte) string {
	return fmt.Sprintf("0X%X", hexBytes)
}

// DecodeFromString converts a hex string, with or without a 0X prefix, to a
// byte slice. The prefix is matched case-insensitively.
func DecodeFromString(hexString string) ([]byte, error) {
	s := hexString
	if len(s) >= 2 && strings.EqualFold(s[:2], "0x") {
		s = s[2:]
	}
	return hex.DecodeString(s)
}
