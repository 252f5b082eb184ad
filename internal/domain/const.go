package domain

// Operation codes carried by lottery contract messages. Prize and referral
// codes are reserved for contract-originated messages; a participant sending
// them is treated as a forgery attempt by the validator.
const (
	// OpPrize marks a prize payout message ("PRIZ")
	OpPrize uint32 = 0x5052495A
	// OpReferral marks a referral payout message ("REFF")
	OpReferral uint32 = 0x52454646
	// OpNFTDeploy marks a ticket-NFT deploy message
	OpNFTDeploy uint32 = 0x801B4FB4
	// OpJettonTransfer is the standard jetton transfer opcode
	OpJettonTransfer uint32 = 0x0F8A7EA5
)

const (
	// NanoDivisor converts nanoton amounts to whole TON
	NanoDivisor = 1e9
	// DefaultJettonDecimals is assumed when metadata carries no decimal precision
	DefaultJettonDecimals = 9
	// NativeCurrency is the currency tag recorded for native-coin purchases
	NativeCurrency = "TON"
	// DefaultJettonSymbol is recorded when metadata carries no symbol
	DefaultJettonSymbol = "JETTON"
)

// PrizeTiers maps a payout tier comment to its USD value. These comments are
// only ever sent by the contract alongside a prize payout.
var PrizeTiers = map[string]int{
	"x1":      1,
	"x3":      3,
	"x7":      7,
	"x20":     20,
	"x77":     77,
	"x200":    200,
	"jp":      1000,
	"jackpot": 1000,
}
