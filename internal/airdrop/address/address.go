// Package address validates account identifiers at ingestion.
package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const hexPrefix = "0x"

// IsValid reports whether s is a syntactically valid account identifier:
// 0x followed by 40 hex digits. Mixed-case input must carry a valid EIP-55 checksum.
func IsValid(s string) bool {
	if !strings.HasPrefix(s, hexPrefix) || !common.IsHexAddress(s) {
		return false
	}

	body := s[len(hexPrefix):]
	if strings.ToLower(body) == body || strings.ToUpper(body) == body {
		return true
	}

	return common.HexToAddress(s).Hex() == s
}

// Parse validates s and returns the typed address. Equality of the result is
// case-insensitive with respect to the input.
func Parse(s string) (common.Address, bool) {
	if !IsValid(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// Short renders an address as 0x1234...abcd for status lines.
func Short(addr common.Address) string {
	const head, tail = 6, 4

	hex := addr.Hex()
	return hex[:head] + "..." + hex[len(hex)-tail:]
}
