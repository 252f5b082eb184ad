package classifier

import (
	"fmt"
	"strings"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/validator"
)

// tonClassifier handles the native-coin contract flavor: value transfers
// carrying free-text comments are the payout and referral signal.
type tonClassifier struct {
	contract string
}

func (c *tonClassifier) Classify(trace *domain.Trace, meta domain.TokenMetadata) (*domain.LotteryTransaction, error) {
	if len(trace.Actions) == 0 || len(trace.TransactionsOrder) == 0 {
		return nil, fmt.Errorf("%w: no actions", domain.ErrTraceSkipped)
	}

	txHash, err := rootTxHash(trace)
	if err != nil {
		return nil, err
	}
	participant, err := participantAddress(trace)
	if err != nil {
		return nil, err
	}

	var (
		purchase     *domain.Purchase
		prizeComment string
		prizeUSD     int
		prizeNano    uint64
		referralNano uint64
		referralAddr string
	)

	for i := range trace.Actions {
		details := trace.Actions[i].Details
		if details == nil {
			continue
		}

		source := domain.TryNormalizeAddress(details.Source)
		dest := domain.TryNormalizeAddress(details.Destination)
		value := details.NanoValue()

		if trace.Actions[i].Type == domain.ActionTONTransfer {
			rawComment := details.TrimmedComment()
			comment := strings.ToLower(rawComment)

			// Prize legs accumulate: split prizes arrive as several transfers
			if usd, ok := domain.PrizeTiers[comment]; ok && comment != "" {
				prizeUSD = usd
				prizeComment = comment
				prizeNano += value
				continue
			}

			if comment == "referral" {
				referralNano += value
				if referralAddr == "" {
					referralAddr = domain.TryNormalizeAddress(details.Destination)
				}
				continue
			}

			// First purchase wins; later purchase-shaped actions are ignored
			// because a trace contains at most one real purchase
			if purchase == nil && dest == c.contract && source == participant && value > 0 &&
				!validator.IsPayoutClaim(rawComment) {
				purchase = &domain.Purchase{
					Amount:   domain.NanoToTon(value),
					Currency: domain.NativeCurrency,
					Comment:  rawComment,
				}
				continue
			}
		}

		// Coin purchases may also surface as contract calls in older traces
		if purchase == nil && dest == c.contract && source == participant && value > 0 &&
			!validator.IsPayoutClaim(details.TrimmedComment()) {
			purchase = &domain.Purchase{
				Amount:   domain.NanoToTon(value),
				Currency: domain.NativeCurrency,
			}
			continue
		}

		if trace.Actions[i].Type == domain.ActionJettonTransfer {
			xfer, err := extractJettonTransfer(details, meta)
			if err != nil {
				continue
			}
			if purchase == nil && xfer.Sender == participant && xfer.Receiver == c.contract && xfer.Amount > 0 {
				purchase = &domain.Purchase{
					Amount:      xfer.Amount,
					Currency:    xfer.Symbol,
					AssetMaster: xfer.Master,
				}
			}
		}
	}

	mint, err := extractMint(trace)
	if err != nil {
		return nil, err
	}

	tx := &domain.LotteryTransaction{
		Participant: participant,
		TxHash:      txHash,
		LT:          trace.StartLT,
		Timestamp:   trace.StartUTime,
		Purchase:    purchase,
		Mint:        mint,
	}

	if prizeComment != "" || prizeNano > 0 {
		tx.Prize = &domain.Prize{
			Comment:   prizeComment,
			AmountUSD: prizeUSD,
			TonAmount: domain.NanoToTon(prizeNano),
		}
	}

	if referralNano > 0 {
		tx.Referral = &domain.Referral{
			Amount:   domain.NanoToTon(referralNano),
			Currency: domain.NativeCurrency,
			Address:  referralAddr,
			Percent:  referralPercentOfPurchase(domain.NanoToTon(referralNano), purchase),
		}
	}

	if !tx.HasSignal() {
		return nil, fmt.Errorf("%w: no lottery signal", domain.ErrTraceSkipped)
	}
	return tx, nil
}
