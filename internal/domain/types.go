package domain

import (
	"math"
	"strconv"
	"strings"
)

// ContractVariant selects which contract flavor the classifier is bound to.
// It must be configured explicitly: the wrong variant silently classifies
// nothing, so it is validated at startup rather than inferred from data.
type ContractVariant string

const (
	VariantTON    ContractVariant = "ton"
	VariantJetton ContractVariant = "jetton"
)

// IsValidVariant checks if a contract variant is valid
func IsValidVariant(v ContractVariant) bool {
	return v == VariantTON || v == VariantJetton
}

// ReferralPrecedence decides which referral leg wins when a trace carries
// both a jetton-denominated and a TON-denominated referral payout.
type ReferralPrecedence string

const (
	ReferralPreferJetton ReferralPrecedence = "jetton"
	ReferralPreferTON    ReferralPrecedence = "ton"
)

// IsValidReferralPrecedence checks if a referral precedence policy is valid
func IsValidReferralPrecedence(p ReferralPrecedence) bool {
	return p == ReferralPreferJetton || p == ReferralPreferTON
}

// ActionType is the variant tag of an action inside a trace
type ActionType string

const (
	ActionTONTransfer    ActionType = "ton_transfer"
	ActionCallContract   ActionType = "call_contract"
	ActionJettonTransfer ActionType = "jetton_transfer"
	ActionNFTMint        ActionType = "nft_mint"
	ActionContractDeploy ActionType = "contract_deploy"
)

// JettonInfo is the embedded token descriptor of the older jetton
// transfer detail layout
type JettonInfo struct {
	Decimals *int   `json:"decimals,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Master   string `json:"master,omitempty"`
}

// ActionDetails carries the per-action payload. The indexing API has shipped
// two generations of jetton transfer layouts; both are modeled here as
// independent optional fields and discriminated by predicate, not by
// inheritance. Every field is adversarial input and may be absent or garbage.
type ActionDetails struct {
	Source      string  `json:"source,omitempty"`
	Destination string  `json:"destination,omitempty"`
	Value       string  `json:"value,omitempty"` // raw integer, smallest unit
	Comment     *string `json:"comment,omitempty"`
	Opcode      string  `json:"opcode,omitempty"`
	Owner       string  `json:"owner,omitempty"`

	// NFT mint
	NFTItem       string `json:"nft_item,omitempty"`
	NFTCollection string `json:"nft_collection,omitempty"`
	NFTItemIndex  string `json:"nft_item_index,omitempty"`

	// Jetton transfer, older layout
	Jetton *JettonInfo `json:"jetton,omitempty"`

	// Jetton transfer, newer layout
	Asset                string `json:"asset,omitempty"`  // jetton master address
	Amount               string `json:"amount,omitempty"` // integer in smallest unit
	Sender               string `json:"sender,omitempty"`
	Receiver             string `json:"receiver,omitempty"`
	SenderJettonWallet   string `json:"sender_jetton_wallet,omitempty"`
	ReceiverJettonWallet string `json:"receiver_jetton_wallet,omitempty"`
	ForwardPayload       string `json:"forward_payload,omitempty"` // base64 BOC
}

// IsJettonTransferV2 reports whether the details use the older jetton layout
func (d *ActionDetails) IsJettonTransferV2() bool {
	return d != nil && d.Jetton != nil
}

// IsJettonTransferV3 reports whether the details use the newer jetton layout
func (d *ActionDetails) IsJettonTransferV3() bool {
	return d != nil && d.Asset != "" && d.Sender != "" && d.Receiver != ""
}

// TrimmedComment returns the free-text comment with surrounding whitespace
// removed, or "" when absent
func (d *ActionDetails) TrimmedComment() string {
	if d == nil || d.Comment == nil {
		return ""
	}
	return strings.TrimSpace(*d.Comment)
}

// OpcodeValue parses the action opcode, accepting hex ("0x...") and decimal
// renderings. Returns false when absent or unparsable.
func (d *ActionDetails) OpcodeValue() (uint32, bool) {
	if d == nil || d.Opcode == "" {
		return 0, false
	}
	s := strings.TrimSpace(d.Opcode)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// NanoValue parses the raw transfer value as nanotons. Malformed values
// degrade to zero, never to an error: a zero value simply carries no signal.
func (d *ActionDetails) NanoValue() uint64 {
	if d == nil || d.Value == "" {
		return 0
	}
	v, err := strconv.ParseUint(d.Value, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Action is one typed event inside a trace
type Action struct {
	TraceID      string         `json:"trace_id"`
	ActionID     string         `json:"action_id"`
	StartLT      uint64         `json:"start_lt,string"`
	EndLT        uint64         `json:"end_lt,string"`
	StartUTime   int64          `json:"start_utime"`
	EndUTime     int64          `json:"end_utime"`
	Transactions []string       `json:"transactions"`
	Success      bool           `json:"success"`
	Type         ActionType     `json:"type"`
	Details      *ActionDetails `json:"details"`
}

// InMessage is the inbound message of a transaction
type InMessage struct {
	Hash        string  `json:"hash"`
	Source      *string `json:"source"`
	Destination string  `json:"destination"`
}

// Transaction is one constituent transaction of a trace
type Transaction struct {
	Account string     `json:"account"`
	Hash    string     `json:"hash"`
	LT      uint64     `json:"lt,string"`
	Now     int64      `json:"now"`
	InMsg   *InMessage `json:"in_msg"`
}

// TraceRoot points at the root transaction of a trace
type TraceRoot struct {
	TxHash    string `json:"tx_hash"`
	InMsgHash string `json:"in_msg_hash"`
}

// Trace is an immutable bundle representing one root-level interaction with
// the contract: an ordered action list plus the constituent transactions.
// Produced by the indexing API, never mutated.
type Trace struct {
	TraceID           string                 `json:"trace_id"`
	ExternalHash      string                 `json:"external_hash"`
	StartLT           uint64                 `json:"start_lt,string"`
	EndLT             uint64                 `json:"end_lt,string"`
	StartUTime        int64                  `json:"start_utime"`
	EndUTime          int64                  `json:"end_utime"`
	IsIncomplete      bool                   `json:"is_incomplete"`
	Actions           []Action               `json:"actions"`
	Root              *TraceRoot             `json:"trace"`
	TransactionsOrder []string               `json:"transactions_order"`
	Transactions      map[string]Transaction `json:"transactions"`
}

// TokenExtra holds loosely-typed token metadata extras
type TokenExtra struct {
	Decimals string `json:"decimals,omitempty"`
}

// TokenInfo describes one token of a metadata entry
type TokenInfo struct {
	Type        string      `json:"type"`
	Name        string      `json:"name,omitempty"`
	Symbol      string      `json:"symbol,omitempty"`
	Description string      `json:"description,omitempty"`
	Extra       *TokenExtra `json:"extra,omitempty"`
}

// TokenMetadataEntry is the metadata record for one jetton master address
type TokenMetadataEntry struct {
	IsIndexed bool        `json:"is_indexed"`
	TokenInfo []TokenInfo `json:"token_info"`
}

// TokenMetadata maps jetton master address to its metadata. It is a
// side-table used only to humanize amounts, never to gate classification.
type TokenMetadata map[string]TokenMetadataEntry

// Lookup returns symbol and decimals for an asset, falling back to the
// defaults when the asset is unknown or partially described
func (m TokenMetadata) Lookup(asset string) (string, int) {
	symbol := DefaultJettonSymbol
	decimals := DefaultJettonDecimals

	entry, ok := m[asset]
	if !ok || len(entry.TokenInfo) == 0 {
		return symbol, decimals
	}

	info := entry.TokenInfo[0]
	if info.Symbol != "" {
		symbol = info.Symbol
	}
	if info.Extra != nil && info.Extra.Decimals != "" {
		if d, err := strconv.Atoi(info.Extra.Decimals); err == nil {
			decimals = d
		}
	}
	return symbol, decimals
}

// Purchase is a ticket purchase sub-event
type Purchase struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	AssetMaster string  `json:"asset_master,omitempty"` // jetton master, empty for TON
	Comment     string  `json:"comment,omitempty"`
}

// Prize is a prize payout sub-event. Amounts accumulate across payout legs
// within one trace.
type Prize struct {
	Comment     string  `json:"comment"`               // display tag, e.g. tier code
	AmountUSD   int     `json:"amount_usd,omitempty"`  // tier value, native variant only
	TonAmount   float64 `json:"ton_amount,omitempty"`  // payout in whole TON
	TokenAmount float64 `json:"token_amount,omitempty"`
	TokenSymbol string  `json:"token_symbol,omitempty"`
}

// Referral is a referral payout sub-event
type Referral struct {
	Amount   float64  `json:"amount"`
	Currency string   `json:"currency"`
	Address  string   `json:"address,omitempty"`
	Percent  *float64 `json:"percent,omitempty"`
}

// Mint is a ticket-NFT mint sub-event
type Mint struct {
	ItemAddress       string `json:"item_address"`
	CollectionAddress string `json:"collection_address"`
	Index             int64  `json:"index"`
}

// LotteryTransaction is one reconstructed lottery interaction. At least one
// of Purchase, Prize, Referral, Mint is always present.
type LotteryTransaction struct {
	Participant string    `json:"participant"`
	TxHash      string    `json:"tx_hash"`
	LT          uint64    `json:"lt"`
	Timestamp   int64     `json:"timestamp"`
	Purchase    *Purchase `json:"purchase,omitempty"`
	Prize       *Prize    `json:"prize,omitempty"`
	Referral    *Referral `json:"referral,omitempty"`
	Mint        *Mint     `json:"mint,omitempty"`
	Verdict     *Verdict  `json:"verdict,omitempty"`
}

// HasSignal reports whether any lottery sub-event is present
func (t *LotteryTransaction) HasSignal() bool {
	return t.Purchase != nil || t.Prize != nil || t.Referral != nil || t.Mint != nil
}

// Checks are the independent sub-checks of a validation verdict
type Checks struct {
	HasRealPurchase           bool `json:"has_real_purchase"`
	HasWinPaymentFromContract bool `json:"has_win_payment_from_contract"`
	HasReferralFromContract   bool `json:"has_referral_from_contract"`
	HasLegitimateNFTMint      bool `json:"has_legitimate_nft_mint"`
	HasFakeWinComment         bool `json:"has_fake_win_comment"`
	HasForgedOpcode           bool `json:"has_forged_opcode"`
}

// Verdict is the authenticity assessment of one trace. It is a textual and
// opcode heuristic, not a cryptographic proof of contract behavior.
type Verdict struct {
	IsFake     bool   `json:"is_fake"`
	FakeReason string `json:"fake_reason,omitempty"`
	Score      int    `json:"score"` // 0..100
	Checks     Checks `json:"checks"`
}

// NanoToTon converts nanotons to whole TON rounded to 6 decimal places
func NanoToTon(nano uint64) float64 {
	return Round6(float64(nano) / NanoDivisor)
}

// JettonUnits converts a raw integer amount to whole token units for the
// given decimal precision, rounded to 6 decimal places. Malformed input
// degrades to zero.
func JettonUnits(raw string, decimals int) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return Round6(v / math.Pow10(decimals))
}

// Round6 rounds to 6 digits after the decimal point
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
