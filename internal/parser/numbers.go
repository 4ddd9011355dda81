package parser

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
// Some log exporters serialize every number as a float.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// parseInt accepts decimal, float-formatted and 0x-prefixed hex integers.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok || !n.IsInt64() {
			return 0, fmt.Errorf("parseInt: %q is not a valid int64", s)
		}
		return n.Int64(), nil
	}
	return parseIntFromFloat(s)
}

// Int is a JSON integer that may arrive as a number or a quoted string.
type Int int64

func (n *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if s == "" {
		*n = 0
		return nil
	}
	v, err := parseInt(s)
	if err != nil {
		return err
	}
	*n = Int(v)
	return nil
}

// Uint is the unsigned counterpart of Int.
type Uint uint64

func (n *Uint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if s == "" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return fmt.Errorf("parseUint: %q: %w", s, err)
		}
		*n = Uint(v)
		return nil
	}
	v, err := parseUintFromFloat(s)
	if err != nil {
		return err
	}
	*n = Uint(v)
	return nil
}
