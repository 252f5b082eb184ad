package report_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/mocks"
	"github.com/tonlotto/lottery-indexer/internal/report"
)

var reportTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newMockClock(t *testing.T) *mocks.MockClock {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(reportTime).AnyTimes()
	return clock
}

func cleanRecord(txHash string) *domain.LotteryTransaction {
	return &domain.LotteryTransaction{
		Participant: "0:aa",
		TxHash:      txHash,
		Purchase:    &domain.Purchase{Amount: 1, Currency: domain.NativeCurrency},
		Verdict:     &domain.Verdict{Score: 100},
	}
}

func TestBuild_CleanRecords(t *testing.T) {
	records := []*domain.LotteryTransaction{cleanRecord("h1"), cleanRecord("h2")}

	r := report.Build(records, newMockClock(t))

	assert.Equal(t, 2, r.TotalTransactions)
	assert.Zero(t, r.FakeTransactions)
	assert.Zero(t, r.SuspiciousTransactions)
	assert.Zero(t, r.LowScoreTransactions)
	assert.Empty(t, r.DetailedIssues)
	assert.Equal(t, "2025-06-01T12:00:00Z", r.Timestamp)
	assert.Zero(t, r.CriticalRatio())
}

func TestBuild_PrizeWithoutPayment(t *testing.T) {
	record := cleanRecord("h1")
	record.Prize = &domain.Prize{Comment: "x7", AmountUSD: 7}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	assert.Equal(t, 1, r.SuspiciousTransactions)
	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "no payment recorded")
	assert.Equal(t, 50, r.DetailedIssues[0].ValidationScore)
}

func TestBuild_PrizeCommentWithoutAmount(t *testing.T) {
	record := cleanRecord("h1")
	record.Prize = &domain.Prize{Comment: "TON PRIZE", TonAmount: 7}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	assert.Equal(t, 1, r.SuspiciousTransactions)
	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "no win amount")
	assert.Equal(t, 70, r.DetailedIssues[0].ValidationScore)
}

func TestBuild_ReferralWithoutPurchase(t *testing.T) {
	record := cleanRecord("h1")
	record.Purchase = nil
	record.Referral = &domain.Referral{Amount: 0.5, Currency: domain.NativeCurrency}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	assert.Equal(t, 1, r.SuspiciousTransactions)
	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "Referral payment without purchase")
}

func TestBuild_MintWithoutPurchaseIsReviewOnly(t *testing.T) {
	record := cleanRecord("h1")
	record.Purchase = nil
	record.Mint = &domain.Mint{ItemAddress: "0:bb", CollectionAddress: "0:cc", Index: 1}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	// Flagged in the details but not counted as suspicious
	assert.Zero(t, r.SuspiciousTransactions)
	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "NFT minted without purchase")
	assert.Equal(t, 90, r.DetailedIssues[0].ValidationScore)
}

func TestBuild_FakeRecord(t *testing.T) {
	record := cleanRecord("h1")
	record.Verdict = &domain.Verdict{IsFake: true, FakeReason: "forged comment", Score: 0}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	assert.Equal(t, 1, r.FakeTransactions)
	assert.Equal(t, 1, r.LowScoreTransactions)
	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "Already marked as fake: forged comment")
	assert.Zero(t, r.DetailedIssues[0].ValidationScore)
}

func TestBuild_FakeRecordWithoutReason(t *testing.T) {
	record := cleanRecord("h1")
	record.Verdict = &domain.Verdict{IsFake: true, Score: 0}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "Unknown reason")
}

func TestBuild_LowScore(t *testing.T) {
	record := cleanRecord("h1")
	record.Verdict = &domain.Verdict{Score: 30}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	assert.Equal(t, 1, r.LowScoreTransactions)
	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "Low validation score: 30")
}

func TestBuild_IssuesJoined(t *testing.T) {
	record := cleanRecord("h1")
	record.Purchase = nil
	record.Prize = &domain.Prize{Comment: "x7"}
	record.Referral = &domain.Referral{Amount: 0.5}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	require.Len(t, r.DetailedIssues, 1)
	assert.Contains(t, r.DetailedIssues[0].Issue, "; ")
	assert.Equal(t, 3, r.SuspiciousTransactions)
	// 100 - 50 - 30 - 20, floored at zero
	assert.Zero(t, r.DetailedIssues[0].ValidationScore)
}

func TestBuild_DetailedIssuesCapped(t *testing.T) {
	records := make([]*domain.LotteryTransaction, 150)
	for i := range records {
		record := cleanRecord(fmt.Sprintf("h%d", i))
		record.Verdict = &domain.Verdict{Score: 10}
		records[i] = record
	}

	r := report.Build(records, newMockClock(t))

	assert.Equal(t, 150, r.LowScoreTransactions)
	assert.Len(t, r.DetailedIssues, 100)
}

func TestCriticalRatio(t *testing.T) {
	r := &report.ValidationReport{TotalTransactions: 10, FakeTransactions: 1, SuspiciousTransactions: 2}
	assert.InDelta(t, 0.3, r.CriticalRatio(), 1e-9)

	empty := &report.ValidationReport{}
	assert.Zero(t, empty.CriticalRatio())
}

func TestWrite(t *testing.T) {
	record := cleanRecord("h1")
	record.Verdict = &domain.Verdict{IsFake: true, FakeReason: "forged", Score: 0}

	r := report.Build([]*domain.LotteryTransaction{record}, newMockClock(t))

	path := filepath.Join(t.TempDir(), "reports", "report.json")
	require.NoError(t, r.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got report.ValidationReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.TotalTransactions)
	assert.Equal(t, 1, got.FakeTransactions)
	assert.Equal(t, r.Timestamp, got.Timestamp)
}
