package domain

import (
	"encoding/base64"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// ForwardPayload is the decoded application payload of a token transfer
type ForwardPayload struct {
	Opcode uint32
	// Sub is the one-byte sub-field following a prize opcode (payout tier
	// code) or a referral opcode (referral percent). Nil when the payload
	// ends after the opcode.
	Sub *uint8
}

// DecodeForwardPayload parses the base64 BOC blob attached to a token
// transfer and reads the leading 32-bit operation code, plus the one-byte
// sub-field for the prize and referral codes. Forward payloads are arbitrary
// user-supplied data: anything missing, malformed or too short degrades to
// (zero, false) and must never abort classification of the surrounding trace.
func DecodeForwardPayload(b64 string) (ForwardPayload, bool) {
	if b64 == "" {
		return ForwardPayload{}, false
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return ForwardPayload{}, false
	}

	c, err := cell.FromBOC(raw)
	if err != nil {
		return ForwardPayload{}, false
	}

	slice := c.BeginParse()
	op, err := slice.LoadUInt(32)
	if err != nil {
		return ForwardPayload{}, false
	}

	payload := ForwardPayload{Opcode: uint32(op)}
	if payload.Opcode == OpPrize || payload.Opcode == OpReferral {
		if sub, err := slice.LoadUInt(8); err == nil {
			b := uint8(sub)
			payload.Sub = &b
		}
	}

	return payload, true
}
