package domain

import "errors"

var (
	// ErrInvalidAddress is returned when a string cannot be parsed as a TON account identifier
	ErrInvalidAddress = errors.New("invalid address")

	// ErrTraceSkipped is returned by classifiers for traces that carry no lottery signal
	ErrTraceSkipped = errors.New("trace skipped")

	// ErrMissingRootHash is returned when a trace has no resolvable root transaction hash
	ErrMissingRootHash = errors.New("missing root transaction hash")

	// ErrMissingParticipant is returned when the participant address cannot be derived from a trace
	ErrMissingParticipant = errors.New("missing participant address")

	// ErrInvalidMintIndex is returned when a mint action carries a non-numeric item index
	ErrInvalidMintIndex = errors.New("invalid mint item index")
)
