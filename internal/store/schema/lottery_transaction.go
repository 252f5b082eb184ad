package schema

import "time"

// LotteryTransaction represents the lottery_transactions table - one row per
// classified trace. TxHash is unique so re-delivered traces collapse into one
// row.
type LotteryTransaction struct {
	// ID is a ULID assigned at insert time
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Participant is the normalized wallet address attributed to the trace
	Participant string `gorm:"column:participant;not null;type:text;index"`
	// TxHash is the hex-encoded root transaction hash of the trace
	TxHash string `gorm:"column:tx_hash;not null;uniqueIndex;type:text"`
	// LT is the logical time of the trace
	LT uint64 `gorm:"column:lt;not null;index"`
	// Timestamp is the trace start time as a unix timestamp
	Timestamp int64 `gorm:"column:timestamp;not null"`

	// Purchase sub-event
	BuyAmount        *float64 `gorm:"column:buy_amount"`
	BuyCurrency      *string  `gorm:"column:buy_currency;type:text"`
	BuyMasterAddress *string  `gorm:"column:buy_master_address;type:text"`
	BuyComment       *string  `gorm:"column:buy_comment;type:text"`

	// Prize sub-event
	WinComment     *string  `gorm:"column:win_comment;type:text"`
	WinAmountUSD   *int     `gorm:"column:win_amount_usd"`
	WinTonAmount   *float64 `gorm:"column:win_ton_amount"`
	WinTokenAmount *float64 `gorm:"column:win_token_amount"`
	WinTokenSymbol *string  `gorm:"column:win_token_symbol;type:text"`

	// Referral sub-event
	ReferralAmount   *float64 `gorm:"column:referral_amount"`
	ReferralCurrency *string  `gorm:"column:referral_currency;type:text"`
	ReferralAddress  *string  `gorm:"column:referral_address;type:text"`
	ReferralPercent  *float64 `gorm:"column:referral_percent"`

	// Mint sub-event
	NFTAddress        *string `gorm:"column:nft_address;type:text"`
	CollectionAddress *string `gorm:"column:collection_address;type:text"`
	NFTIndex          *int64  `gorm:"column:nft_index"`

	// Verdict
	IsFake          bool   `gorm:"column:is_fake;not null;default:false"`
	FakeReason      string `gorm:"column:fake_reason;type:text"`
	ValidationScore int    `gorm:"column:validation_score;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the LotteryTransaction model
func (LotteryTransaction) TableName() string {
	return "lottery_transactions"
}
