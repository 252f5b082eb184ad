package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// NormalizeAddress canonicalizes any accepted TON address encoding (friendly
// base64 in its bounceable, non-bounceable and testnet forms, or raw
// workchain:hex) into the raw "workchain:hex" form. The same account has
// multiple valid textual encodings, so every address comparison in the
// system must go through this function first.
func NormalizeAddress(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty address: %w", ErrInvalidAddress)
	}

	var (
		addr *address.Address
		err  error
	)
	if strings.Contains(s, ":") {
		addr, err = address.ParseRawAddr(s)
	} else {
		addr, err = address.ParseAddr(s)
	}
	if err != nil {
		return "", fmt.Errorf("parse address %q: %w", raw, ErrInvalidAddress)
	}

	return fmt.Sprintf("%d:%s", addr.Workchain(), hex.EncodeToString(addr.Data())), nil
}

// TryNormalizeAddress normalizes an address, returning "" when it cannot be
// parsed. Used where an unparsable address degrades a sub-signal to absent
// instead of failing the whole trace.
func TryNormalizeAddress(raw string) string {
	norm, err := NormalizeAddress(raw)
	if err != nil {
		return ""
	}
	return norm
}
