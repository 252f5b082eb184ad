package classifier

import (
	"fmt"
	"strconv"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/validator"
)

// jettonClassifier handles the fungible-token contract flavor: structured
// jetton transfers with an opcode-bearing forward payload are the payout and
// referral signal.
type jettonClassifier struct {
	contract   string
	precedence domain.ReferralPrecedence
}

func (c *jettonClassifier) Classify(trace *domain.Trace, meta domain.TokenMetadata) (*domain.LotteryTransaction, error) {
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
		purchase *domain.Purchase

		prizeComment string
		prizeNano    uint64
		prizeJetton  float64
		prizeSymbol  string

		refTonAmount float64
		refTonAddr   string

		refJetAmount  float64
		refJetAddr    string
		refJetSymbol  string
		refJetPercent *float64
	)

	for i := range trace.Actions {
		action := &trace.Actions[i]
		details := action.Details
		if details == nil {
			continue
		}

		switch action.Type {
		case domain.ActionTONTransfer, domain.ActionCallContract:
			source := domain.TryNormalizeAddress(details.Source)
			dest := domain.TryNormalizeAddress(details.Destination)
			value := details.NanoValue()

			if purchase == nil && dest == c.contract && source == participant && value > 0 &&
				!validator.IsPayoutClaim(details.TrimmedComment()) {
				purchase = &domain.Purchase{
					Amount:   domain.NanoToTon(value),
					Currency: domain.NativeCurrency,
					Comment:  details.TrimmedComment(),
				}
				continue
			}

			opcode, ok := details.OpcodeValue()
			if !ok {
				continue
			}
			switch opcode {
			case domain.OpPrize:
				// Prize legs accumulate across the trace
				prizeNano += value
				prizeComment = "TON PRIZE"
			case domain.OpReferral:
				refTonAmount = domain.NanoToTon(value)
				refTonAddr = dest
			}

		case domain.ActionJettonTransfer:
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
				continue
			}

			if xfer.Sender != c.contract {
				continue
			}

			// Contract-originated transfer: the forward payload opcode
			// separates referral legs from prize legs
			if payload, ok := domain.DecodeForwardPayload(details.ForwardPayload); ok && payload.Opcode == domain.OpReferral {
				refJetAmount += xfer.Amount
				refJetAddr = xfer.Receiver
				refJetSymbol = xfer.Symbol
				if refJetPercent == nil && payload.Sub != nil {
					pct := float64(*payload.Sub)
					refJetPercent = &pct
				}
			} else if xfer.Receiver == participant {
				prizeJetton += xfer.Amount
				prizeSymbol = xfer.Symbol
				prizeComment = strconv.FormatFloat(xfer.Amount, 'f', -1, 64) + " " + xfer.Symbol
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
		Referral:    c.resolveReferral(refJetAmount, refJetAddr, refJetSymbol, refJetPercent, refTonAmount, refTonAddr, purchase),
	}

	if prizeComment != "" || prizeNano > 0 || prizeJetton > 0 {
		tx.Prize = &domain.Prize{
			Comment:     prizeComment,
			TonAmount:   domain.NanoToTon(prizeNano),
			TokenAmount: domain.Round6(prizeJetton),
			TokenSymbol: prizeSymbol,
		}
	}

	if !tx.HasSignal() {
		return nil, fmt.Errorf("%w: no lottery signal", domain.ErrTraceSkipped)
	}
	return tx, nil
}

// resolveReferral picks the winning referral leg when a trace carries both a
// jetton-denominated and a TON-denominated referral. The precedence policy is
// configuration: historic contract versions disagreed on which one is
// authoritative.
func (c *jettonClassifier) resolveReferral(
	jetAmount float64, jetAddr string, jetSymbol string, jetPercent *float64,
	tonAmount float64, tonAddr string,
	purchase *domain.Purchase,
) *domain.Referral {
	if jetSymbol == "" {
		jetSymbol = domain.DefaultJettonSymbol
	}
	jet := &domain.Referral{
		Amount:   domain.Round6(jetAmount),
		Currency: jetSymbol,
		Address:  jetAddr,
		Percent:  jetPercent,
	}
	ton := &domain.Referral{
		Amount:   tonAmount,
		Currency: domain.NativeCurrency,
		Address:  tonAddr,
		Percent:  referralPercentOfPurchase(tonAmount, purchase),
	}

	first, second := jet, ton
	if c.precedence == domain.ReferralPreferTON {
		first, second = ton, jet
	}
	if first.Amount > 0 {
		return first
	}
	if second.Amount > 0 {
		return second
	}
	return nil
}
