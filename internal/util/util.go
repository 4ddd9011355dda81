// Package util normalizes the identifiers carried by contract events.
package util

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// locationHexLen is the width of a uint256 location id in hex digits.
const locationHexLen = 64

// NormalizeAddress returns the lowercase 0x-prefixed form of a wallet or
// contract address.
func NormalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// NormalizeLocation converts a location id given as 0x-prefixed hex, bare
// 64-digit hex, or decimal into 64 lowercase hex digits without prefix.
func NormalizeLocation(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty location id")
	}

	n := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(s, "0x"):
		_, ok = n.SetString(s[2:], 16)
	case len(s) == locationHexLen:
		_, ok = n.SetString(s, 16)
	default:
		_, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return "", fmt.Errorf("invalid location id %q", s)
	}
	return fmt.Sprintf("%0*x", locationHexLen, n), nil
}

// LocationToBig parses a normalized location id back into an integer.
func LocationToBig(loc string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(loc, 16)
	if !ok {
		return nil, fmt.Errorf("invalid location id %q", loc)
	}
	return n, nil
}

// LocationBytes reads bytes [start, end) of a normalized location id as an
// unsigned integer.
func LocationBytes(loc string, start, end int) (uint64, error) {
	if start < 0 || end <= start || end*2 > len(loc) || end-start > 8 {
		return 0, fmt.Errorf("byte range [%d,%d) out of bounds for %q", start, end, loc)
	}
	return strconv.ParseUint(loc[start*2:end*2], 16, 64)
}

// NormalizeHash lowercases a 0x-prefixed ruleset fingerprint.
func NormalizeHash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s != "" && !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}
