package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/store/schema"
)

type pgRecordStore struct {
	db *gorm.DB
}

// NewPGRecordStore creates a PostgreSQL-backed record store
func NewPGRecordStore(db *gorm.DB) RecordStore {
	return &pgRecordStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

// Append persists a batch of lottery transactions. Rows whose tx_hash already
// exists are skipped: re-processing the same trace is expected under
// at-least-once delivery.
func (s *pgRecordStore) Append(ctx context.Context, records []*domain.LotteryTransaction) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]schema.LotteryTransaction, 0, len(records))
	for _, record := range records {
		rows = append(rows, toRow(record))
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to append lottery transactions: %w", err)
	}

	return nil
}

// ReadAll returns every persisted lottery transaction, oldest first
func (s *pgRecordStore) ReadAll(ctx context.Context) ([]*domain.LotteryTransaction, error) {
	var rows []schema.LotteryTransaction
	if err := s.db.WithContext(ctx).Order("lt ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read lottery transactions: %w", err)
	}

	records := make([]*domain.LotteryTransaction, 0, len(rows))
	for i := range rows {
		records = append(records, fromRow(&rows[i]))
	}
	return records, nil
}

// Close is a no-op: the gorm.DB lifetime is owned by the caller
func (s *pgRecordStore) Close() error {
	return nil
}

type pgCursorStore struct {
	db *gorm.DB
}

// NewPGCursorStore creates a PostgreSQL-backed cursor store
func NewPGCursorStore(db *gorm.DB) CursorStore {
	return &pgCursorStore{db: db}
}

// GetLastLT retrieves the logical time of the newest processed trace for a contract
func (s *pgCursorStore) GetLastLT(ctx context.Context, contract string) (uint64, error) {
	key := fmt.Sprintf("trace_cursor:%s", contract)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // Return 0 if no cursor exists
		}
		return 0, fmt.Errorf("failed to get trace cursor: %w", err)
	}

	lt, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse trace cursor: %w", err)
	}

	return lt, nil
}

// SetLastLT stores the logical time of the newest processed trace for a contract
func (s *pgCursorStore) SetLastLT(ctx context.Context, contract string, lt uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("trace_cursor:%s", contract),
		Value: strconv.FormatUint(lt, 10),
	}

	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set trace cursor: %w", err)
	}

	return nil
}

func toRow(record *domain.LotteryTransaction) schema.LotteryTransaction {
	row := schema.LotteryTransaction{
		ID:          ulid.Make().String(),
		Participant: record.Participant,
		TxHash:      record.TxHash,
		LT:          record.LT,
		Timestamp:   record.Timestamp,
	}

	if p := record.Purchase; p != nil {
		row.BuyAmount = &p.Amount
		row.BuyCurrency = &p.Currency
		if p.AssetMaster != "" {
			row.BuyMasterAddress = &p.AssetMaster
		}
		if p.Comment != "" {
			row.BuyComment = &p.Comment
		}
	}
	if p := record.Prize; p != nil {
		row.WinComment = &p.Comment
		if p.AmountUSD != 0 {
			row.WinAmountUSD = &p.AmountUSD
		}
		if p.TonAmount != 0 {
			row.WinTonAmount = &p.TonAmount
		}
		if p.TokenAmount != 0 {
			row.WinTokenAmount = &p.TokenAmount
		}
		if p.TokenSymbol != "" {
			row.WinTokenSymbol = &p.TokenSymbol
		}
	}
	if r := record.Referral; r != nil {
		row.ReferralAmount = &r.Amount
		row.ReferralCurrency = &r.Currency
		if r.Address != "" {
			row.ReferralAddress = &r.Address
		}
		row.ReferralPercent = r.Percent
	}
	if m := record.Mint; m != nil {
		row.NFTAddress = &m.ItemAddress
		row.CollectionAddress = &m.CollectionAddress
		row.NFTIndex = &m.Index
	}
	if v := record.Verdict; v != nil {
		row.IsFake = v.IsFake
		row.FakeReason = v.FakeReason
		row.ValidationScore = v.Score
	}

	return row
}

func fromRow(row *schema.LotteryTransaction) *domain.LotteryTransaction {
	record := &domain.LotteryTransaction{
		Participant: row.Participant,
		TxHash:      row.TxHash,
		LT:          row.LT,
		Timestamp:   row.Timestamp,
		Verdict: &domain.Verdict{
			IsFake:     row.IsFake,
			FakeReason: row.FakeReason,
			Score:      row.ValidationScore,
		},
	}

	if row.BuyAmount != nil {
		record.Purchase = &domain.Purchase{
			Amount: *row.BuyAmount,
		}
		if row.BuyCurrency != nil {
			record.Purchase.Currency = *row.BuyCurrency
		}
		if row.BuyMasterAddress != nil {
			record.Purchase.AssetMaster = *row.BuyMasterAddress
		}
		if row.BuyComment != nil {
			record.Purchase.Comment = *row.BuyComment
		}
	}
	if row.WinComment != nil || row.WinTonAmount != nil || row.WinTokenAmount != nil {
		record.Prize = &domain.Prize{}
		if row.WinComment != nil {
			record.Prize.Comment = *row.WinComment
		}
		if row.WinAmountUSD != nil {
			record.Prize.AmountUSD = *row.WinAmountUSD
		}
		if row.WinTonAmount != nil {
			record.Prize.TonAmount = *row.WinTonAmount
		}
		if row.WinTokenAmount != nil {
			record.Prize.TokenAmount = *row.WinTokenAmount
		}
		if row.WinTokenSymbol != nil {
			record.Prize.TokenSymbol = *row.WinTokenSymbol
		}
	}
	if row.ReferralAmount != nil {
		record.Referral = &domain.Referral{
			Amount:  *row.ReferralAmount,
			Percent: row.ReferralPercent,
		}
		if row.ReferralCurrency != nil {
			record.Referral.Currency = *row.ReferralCurrency
		}
		if row.ReferralAddress != nil {
			record.Referral.Address = *row.ReferralAddress
		}
	}
	if row.NFTAddress != nil && row.CollectionAddress != nil && row.NFTIndex != nil {
		record.Mint = &domain.Mint{
			ItemAddress:       *row.NFTAddress,
			CollectionAddress: *row.CollectionAddress,
			Index:             *row.NFTIndex,
		}
	}

	return record
}
