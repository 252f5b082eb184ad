// Package report re-audits already persisted lottery transactions. It runs
// consistency checks the live validator cannot: cross-field checks over the
// final records, e.g. a prize without a payout leg or a referral without a
// purchase.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tonlotto/lottery-indexer/internal/adapter"
	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// Issue describes one suspicious record
type Issue struct {
	TxHash          string `json:"tx_hash"`
	Participant     string `json:"participant"`
	Issue           string `json:"issue"`
	ValidationScore int    `json:"validation_score"`
}

// ValidationReport summarizes a revalidation pass over the persisted records
type ValidationReport struct {
	TotalTransactions      int     `json:"total_transactions"`
	FakeTransactions       int     `json:"fake_transactions"`
	SuspiciousTransactions int     `json:"suspicious_transactions"`
	LowScoreTransactions   int     `json:"low_score_transactions"`
	DetailedIssues         []Issue `json:"detailed_issues"`
	Timestamp              string  `json:"timestamp"`
}

// maxDetailedIssues caps the issue list: the counts carry the signal, the
// details are samples
const maxDetailedIssues = 100

// lowScoreThreshold marks records whose live validation score warrants review
const lowScoreThreshold = 50

// Build runs the consistency checks over every record and assembles a report
func Build(records []*domain.LotteryTransaction, clock adapter.Clock) *ValidationReport {
	report := &ValidationReport{
		TotalTransactions: len(records),
		DetailedIssues:    []Issue{},
		Timestamp:         clock.Now().UTC().Format(time.RFC3339),
	}

	for _, record := range records {
		var issues []string
		score := 100

		// Prize recorded without any payout leg
		if record.Prize != nil && record.Prize.TonAmount == 0 && record.Prize.TokenAmount == 0 {
			issues = append(issues, "Win marked but no payment recorded")
			report.SuspiciousTransactions++
			score -= 50
		}

		// Prize comment without a tier value
		if record.Prize != nil && record.Prize.Comment != "" && record.Prize.AmountUSD == 0 {
			issues = append(issues, "Win comment present but no win amount")
			report.SuspiciousTransactions++
			score -= 30
		}

		// Referral payout without a purchase
		if record.Referral != nil && (record.Purchase == nil || record.Purchase.Amount == 0) {
			issues = append(issues, "Referral payment without purchase")
			report.SuspiciousTransactions++
			score -= 20
		}

		// Mint without a purchase; may be legitimate, flagged for review only
		if record.Mint != nil && (record.Purchase == nil || record.Purchase.Amount == 0) {
			issues = append(issues, "NFT minted without purchase")
			score -= 10
		}

		if record.Verdict != nil {
			if record.Verdict.IsFake {
				report.FakeTransactions++
				reason := record.Verdict.FakeReason
				if reason == "" {
					reason = "Unknown reason"
				}
				issues = append(issues, fmt.Sprintf("Already marked as fake: %s", reason))
				score = 0
			}
			if record.Verdict.Score < lowScoreThreshold {
				report.LowScoreTransactions++
				issues = append(issues, fmt.Sprintf("Low validation score: %d", record.Verdict.Score))
			}
		}

		if len(issues) > 0 && len(report.DetailedIssues) < maxDetailedIssues {
			report.DetailedIssues = append(report.DetailedIssues, Issue{
				TxHash:          record.TxHash,
				Participant:     record.Participant,
				Issue:           strings.Join(issues, "; "),
				ValidationScore: max(score, 0),
			})
		}
	}

	return report
}

// CriticalRatio returns the share of fake plus suspicious records
func (r *ValidationReport) CriticalRatio() float64 {
	if r.TotalTransactions == 0 {
		return 0
	}
	return float64(r.FakeTransactions+r.SuspiciousTransactions) / float64(r.TotalTransactions)
}

// Write saves the report as indented JSON at the given path
func (r *ValidationReport) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
