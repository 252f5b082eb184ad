package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// payoutClaimPatterns match comments a legitimate client never sends to the
// contract: tier multipliers, the jackpot keyword, and win/prize prefixes.
// Real payouts only ever flow contract -> participant. A legitimate user who
// happens to send such a comment is an accepted false positive of the design.
var payoutClaimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^x\d+$`),
	regexp.MustCompile(`^jp$`),
	regexp.MustCompile(`^win`),
	regexp.MustCompile(`^prize`),
}

// protectedOpcodes are reserved for contract-originated messages
var protectedOpcodes = map[uint32]struct{}{
	domain.OpPrize:    {},
	domain.OpReferral: {},
}

// Validator scores traces for authenticity. It is a pattern heuristic over
// comments and opcodes, not a cryptographic proof: it cannot verify
// contract-side logic, only detect textual and opcode shapes a legitimate
// client would never produce. Best effort by design.
type Validator struct {
	contract string // normalized contract address
}

// New creates a validator bound to the lottery contract address
func New(contractAddress string) (*Validator, error) {
	contract, err := domain.NormalizeAddress(contractAddress)
	if err != nil {
		return nil, fmt.Errorf("normalize contract address: %w", err)
	}
	return &Validator{contract: contract}, nil
}

// IsPayoutClaim reports whether a comment matches a payout-claim pattern
func IsPayoutClaim(comment string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(comment))
	if trimmed == "" {
		return false
	}
	for _, p := range payoutClaimPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// isPayoutTier reports whether a comment is a known payout tier code
func isPayoutTier(comment string) bool {
	_, ok := domain.PrizeTiers[strings.ToLower(strings.TrimSpace(comment))]
	return ok
}

// ValidateTrace evaluates every action of a trace independently of the
// classifier and produces an authenticity verdict for the given participant.
func (v *Validator) ValidateTrace(trace *domain.Trace, participant string) domain.Verdict {
	verdict := domain.Verdict{Score: 100}

	participantNorm := domain.TryNormalizeAddress(participant)
	if participantNorm == "" {
		return domain.Verdict{
			IsFake:     true,
			FakeReason: "invalid participant address",
			Score:      0,
		}
	}

	for i := range trace.Actions {
		action := &trace.Actions[i]
		details := action.Details
		if details == nil {
			continue
		}

		source := domain.TryNormalizeAddress(details.Source)
		dest := domain.TryNormalizeAddress(details.Destination)
		comment := details.TrimmedComment()
		value := details.NanoValue()

		// A payout-style comment sent BY the participant TO the contract is
		// conclusive forgery evidence: the contract never expects one.
		if action.Type == domain.ActionTONTransfer &&
			source == participantNorm &&
			dest == v.contract &&
			comment != "" &&
			IsPayoutClaim(comment) {
			verdict.Checks.HasFakeWinComment = true
			verdict.IsFake = true
			verdict.FakeReason = fmt.Sprintf("participant sent payout-claim comment %q to contract - exploitation attempt", comment)
			verdict.Score = 0
		}

		// Genuine purchase: positive value participant -> contract without a
		// forged comment
		if source == participantNorm && dest == v.contract && value > 0 && !IsPayoutClaim(comment) {
			verdict.Checks.HasRealPurchase = true
		}

		// Genuine payout: positive value contract -> participant tagged with
		// a known tier code
		if source == v.contract && dest == participantNorm && value > 0 && comment != "" && isPayoutTier(comment) {
			verdict.Checks.HasWinPaymentFromContract = true
		}

		// Referral payout from the contract
		if source == v.contract && comment != "" && strings.EqualFold(comment, "referral") {
			verdict.Checks.HasReferralFromContract = true
		}

		if action.Type == domain.ActionNFTMint {
			verdict.Checks.HasLegitimateNFTMint = true
		}

		// Protected opcodes are reserved for contract-originated messages
		if action.Type == domain.ActionCallContract && source == participantNorm {
			if opcode, ok := details.OpcodeValue(); ok {
				if _, protected := protectedOpcodes[opcode]; protected {
					verdict.Checks.HasForgedOpcode = true
					verdict.IsFake = true
					verdict.FakeReason = fmt.Sprintf("participant sent reserved opcode 0x%x - exploitation attempt", opcode)
					verdict.Score = 0
				}
			}
		}
	}

	// Bounded positive contributions, never past 100 and never applied on
	// top of a forgery finding
	if verdict.Checks.HasRealPurchase && !verdict.Checks.HasFakeWinComment {
		verdict.Score = min(verdict.Score+10, 100)
	}
	if verdict.Checks.HasWinPaymentFromContract {
		verdict.Score = min(verdict.Score+20, 100)
	}
	if verdict.Checks.HasLegitimateNFTMint && !verdict.Checks.HasFakeWinComment {
		verdict.Score = min(verdict.Score+10, 100)
	}

	if verdict.IsFake {
		verdict.Score = 0
	}
	return verdict
}

// HasLegitPurchase reports whether the trace contains a participant ->
// contract transfer with positive value and a non-forged comment. Usable by
// downstream reconciliation without re-running the full validator.
func (v *Validator) HasLegitPurchase(trace *domain.Trace, participant string) bool {
	participantNorm := domain.TryNormalizeAddress(participant)
	if participantNorm == "" {
		return false
	}

	for i := range trace.Actions {
		details := trace.Actions[i].Details
		if details == nil {
			continue
		}

		source := domain.TryNormalizeAddress(details.Source)
		dest := domain.TryNormalizeAddress(details.Destination)
		if source != participantNorm || dest != v.contract {
			continue
		}
		if details.NanoValue() > 0 && !IsPayoutClaim(details.TrimmedComment()) {
			return true
		}
	}

	return false
}
