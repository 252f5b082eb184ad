// Package classifier interprets raw contract traces into typed lottery
// transactions. Two classifier variants cover the two supported contract
// flavors: the native-coin contract signals payouts through free-text
// comments, the jetton contract through opcode-bearing forward payloads.
// Selecting the wrong variant silently classifies nothing, so the variant is
// explicit configuration validated at startup.
package classifier

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// Classifier consumes one trace and produces zero or one lottery transaction.
// Classification is deterministic: no randomness, no wall clock. Errors mark
// traces that carry no attributable lottery signal; callers discard them
// silently as noise.
//
//go:generate mockgen -source=classifier.go -destination=../mocks/classifier.go -package=mocks -mock_names=Classifier=MockClassifier
type Classifier interface {
	// Classify maps a trace to a lottery transaction, or fails with a
	// domain.ErrTraceSkipped-wrapped reason when the trace carries no signal
	Classify(trace *domain.Trace, meta domain.TokenMetadata) (*domain.LotteryTransaction, error)
}

// Config holds classifier construction parameters
type Config struct {
	ContractAddress    string
	Variant            domain.ContractVariant
	ReferralPrecedence domain.ReferralPrecedence
}

// New creates the classifier variant for the configured contract flavor
func New(cfg Config) (Classifier, error) {
	contract, err := domain.NormalizeAddress(cfg.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("normalize contract address: %w", err)
	}

	switch cfg.Variant {
	case domain.VariantTON:
		return &tonClassifier{contract: contract}, nil
	case domain.VariantJetton:
		precedence := cfg.ReferralPrecedence
		if precedence == "" {
			precedence = domain.ReferralPreferJetton
		}
		if !domain.IsValidReferralPrecedence(precedence) {
			return nil, fmt.Errorf("invalid referral precedence %q", precedence)
		}
		return &jettonClassifier{contract: contract, precedence: precedence}, nil
	default:
		return nil, fmt.Errorf("invalid contract variant %q", cfg.Variant)
	}
}

// participantAddress derives the participant: the source of the inbound
// message of the trace's first root-order transaction, or its account when
// no message source exists. Nothing downstream is attributable without a
// participant, so failure here invalidates the whole trace.
func participantAddress(trace *domain.Trace) (string, error) {
	if len(trace.TransactionsOrder) == 0 {
		return "", fmt.Errorf("%w: empty transaction order", domain.ErrMissingParticipant)
	}

	var raw string
	if tx, ok := trace.Transactions[trace.TransactionsOrder[0]]; ok {
		if tx.InMsg != nil && tx.InMsg.Source != nil && *tx.InMsg.Source != "" {
			raw = *tx.InMsg.Source
		} else {
			raw = tx.Account
		}
	}
	if raw == "" {
		return "", fmt.Errorf("%w: no inbound message source", domain.ErrMissingParticipant)
	}

	participant, err := domain.NormalizeAddress(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrMissingParticipant, raw)
	}
	return participant, nil
}

// rootTxHash resolves the trace's designated root transaction hash,
// base64-decoded to its hex rendering
func rootTxHash(trace *domain.Trace) (string, error) {
	b64 := trace.TraceID
	if trace.Root != nil && trace.Root.TxHash != "" {
		b64 = trace.Root.TxHash
	}
	if b64 == "" {
		return "", domain.ErrMissingRootHash
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrMissingRootHash, b64)
	}
	return hex.EncodeToString(raw), nil
}

// extractMint finds the first mint action carrying an item address, a
// collection address and an item index. A non-numeric index invalidates the
// whole trace: a half-described mint is worse than no mint. Unparsable
// addresses degrade the mint to absent.
func extractMint(trace *domain.Trace) (*domain.Mint, error) {
	for i := range trace.Actions {
		action := &trace.Actions[i]
		if action.Type != domain.ActionNFTMint || action.Details == nil {
			continue
		}
		details := action.Details
		if details.NFTItem == "" || details.NFTCollection == "" || details.NFTItemIndex == "" {
			continue
		}

		index, err := strconv.ParseInt(details.NFTItemIndex, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMintIndex, details.NFTItemIndex)
		}

		item := domain.TryNormalizeAddress(details.NFTItem)
		collection := domain.TryNormalizeAddress(details.NFTCollection)
		if item == "" || collection == "" {
			return nil, nil
		}

		return &domain.Mint{
			ItemAddress:       item,
			CollectionAddress: collection,
			Index:             index,
		}, nil
	}
	return nil, nil
}

// jettonTransfer is a jetton transfer reduced to normalized addresses and a
// humanized amount, independent of which detail-schema generation carried it
type jettonTransfer struct {
	Sender   string
	Receiver string
	Master   string
	Symbol   string
	Amount   float64
}

// extractJettonTransfer reduces either jetton detail layout to a
// jettonTransfer. The newer layout resolves symbol and decimals through the
// metadata side-table, the older one carries them inline.
func extractJettonTransfer(details *domain.ActionDetails, meta domain.TokenMetadata) (*jettonTransfer, error) {
	switch {
	case details.IsJettonTransferV3():
		symbol, decimals := meta.Lookup(details.Asset)

		sender := domain.TryNormalizeAddress(details.Sender)
		receiver := domain.TryNormalizeAddress(details.Receiver)
		master := domain.TryNormalizeAddress(details.Asset)
		if sender == "" || receiver == "" || master == "" {
			return nil, fmt.Errorf("jetton transfer address: %w", domain.ErrInvalidAddress)
		}

		return &jettonTransfer{
			Sender:   sender,
			Receiver: receiver,
			Master:   master,
			Symbol:   symbol,
			Amount:   domain.JettonUnits(details.Amount, decimals),
		}, nil

	case details.IsJettonTransferV2():
		info := details.Jetton
		decimals := domain.DefaultJettonDecimals
		if info.Decimals != nil {
			decimals = *info.Decimals
		}
		symbol := info.Symbol
		if symbol == "" {
			symbol = domain.DefaultJettonSymbol
		}

		sender := domain.TryNormalizeAddress(details.Source)
		receiver := domain.TryNormalizeAddress(details.Destination)
		if sender == "" || receiver == "" {
			return nil, fmt.Errorf("jetton transfer address: %w", domain.ErrInvalidAddress)
		}

		return &jettonTransfer{
			Sender:   sender,
			Receiver: receiver,
			Master:   domain.TryNormalizeAddress(info.Master),
			Symbol:   symbol,
			Amount:   domain.JettonUnits(details.Value, decimals),
		}, nil

	default:
		return nil, fmt.Errorf("unknown jetton transfer layout")
	}
}

// referralPercentOfPurchase derives the referral percentage from the
// purchase amount, rounded to 2 decimal places
func referralPercentOfPurchase(referralAmount float64, purchase *domain.Purchase) *float64 {
	if purchase == nil || purchase.Amount <= 0 || referralAmount <= 0 {
		return nil
	}
	pct := math.Round(referralAmount/purchase.Amount*10000) / 100
	return &pct
}
