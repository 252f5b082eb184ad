package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// csvHeader is the canonical column layout. Appends to a file written with an
// older layout rewrite the whole file under this header, carrying over the
// columns that still exist by name.
var csvHeader = []string{
	"participant",
	"tx_hash",
	"lt",
	"timestamp",
	"buy_amount",
	"buy_currency",
	"buy_master_address",
	"buy_comment",
	"win_comment",
	"win_amount_usd",
	"win_ton_amount",
	"win_token_amount",
	"win_token_symbol",
	"referral_amount",
	"referral_currency",
	"referral_address",
	"referral_percent",
	"nft_address",
	"collection_address",
	"nft_index",
	"is_fake",
	"fake_reason",
	"validation_score",
}

type csvRecordStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVRecordStore creates a CSV-backed record store at the given path. The
// parent directory is created on first append.
func NewCSVRecordStore(path string) RecordStore {
	return &csvRecordStore{path: path}
}

// Append persists a batch of lottery transactions to the CSV file
func (s *csvRecordStore) Append(ctx context.Context, records []*domain.LotteryTransaction) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	existing, header, err := s.readRaw()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	// Fresh file, or a file written with an older column layout: rewrite the
	// whole file under the canonical header
	if header == nil || !equalHeader(header, csvHeader) {
		rows := make([][]string, 0, len(existing)+len(records))
		for _, old := range existing {
			rows = append(rows, migrateRow(header, old))
		}
		for _, record := range records {
			rows = append(rows, recordToRow(record))
		}
		return s.writeAll(rows)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, record := range records {
		if err := w.Write(recordToRow(record)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv rows: %w", err)
	}

	return nil
}

// ReadAll returns every persisted lottery transaction
func (s *csvRecordStore) ReadAll(ctx context.Context) ([]*domain.LotteryTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, header, err := s.readRaw()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]*domain.LotteryTransaction, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToRecord(header, row))
	}
	return records, nil
}

// Close is a no-op: every append opens and closes the file
func (s *csvRecordStore) Close() error {
	return nil
}

// readRaw returns the data rows and the header of the file, or os.ErrNotExist
func (s *csvRecordStore) readRaw() ([][]string, []string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // old files may carry fewer columns

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}

func (s *csvRecordStore) writeAll(rows [][]string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to rewrite csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}

	return nil
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// migrateRow reorders a row written under an older header into the canonical
// layout, leaving columns the old layout never had empty
func migrateRow(oldHeader, row []string) []string {
	byName := make(map[string]string, len(oldHeader))
	for i, name := range oldHeader {
		if i < len(row) {
			byName[name] = row[i]
		}
	}

	out := make([]string, len(csvHeader))
	for i, name := range csvHeader {
		out[i] = byName[name]
	}
	return out
}

func recordToRow(record *domain.LotteryTransaction) []string {
	row := make([]string, len(csvHeader))
	row[0] = record.Participant
	row[1] = record.TxHash
	row[2] = strconv.FormatUint(record.LT, 10)
	row[3] = strconv.FormatInt(record.Timestamp, 10)

	if p := record.Purchase; p != nil {
		row[4] = formatFloat(p.Amount)
		row[5] = p.Currency
		row[6] = p.AssetMaster
		row[7] = p.Comment
	}
	if p := record.Prize; p != nil {
		row[8] = p.Comment
		if p.AmountUSD != 0 {
			row[9] = strconv.Itoa(p.AmountUSD)
		}
		if p.TonAmount != 0 {
			row[10] = formatFloat(p.TonAmount)
		}
		if p.TokenAmount != 0 {
			row[11] = formatFloat(p.TokenAmount)
		}
		row[12] = p.TokenSymbol
	}
	if r := record.Referral; r != nil {
		row[13] = formatFloat(r.Amount)
		row[14] = r.Currency
		row[15] = r.Address
		if r.Percent != nil {
			row[16] = formatFloat(*r.Percent)
		}
	}
	if m := record.Mint; m != nil {
		row[17] = m.ItemAddress
		row[18] = m.CollectionAddress
		row[19] = strconv.FormatInt(m.Index, 10)
	}
	if v := record.Verdict; v != nil {
		row[20] = strconv.FormatBool(v.IsFake)
		row[21] = v.FakeReason
		row[22] = strconv.Itoa(v.Score)
	}

	return row
}

// rowToRecord rebuilds a lottery transaction from a CSV row. Malformed cells
// degrade to zero values: the CSV is a sink first, reading it back serves
// revalidation only.
func rowToRecord(header, row []string) *domain.LotteryTransaction {
	byName := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			byName[name] = row[i]
		}
	}

	record := &domain.LotteryTransaction{
		Participant: byName["participant"],
		TxHash:      byName["tx_hash"],
	}
	record.LT, _ = strconv.ParseUint(byName["lt"], 10, 64)
	record.Timestamp, _ = strconv.ParseInt(byName["timestamp"], 10, 64)

	if buy := byName["buy_amount"]; buy != "" {
		amount, _ := strconv.ParseFloat(buy, 64)
		record.Purchase = &domain.Purchase{
			Amount:      amount,
			Currency:    byName["buy_currency"],
			AssetMaster: byName["buy_master_address"],
			Comment:     byName["buy_comment"],
		}
	}
	if byName["win_comment"] != "" || byName["win_ton_amount"] != "" || byName["win_token_amount"] != "" {
		prize := &domain.Prize{
			Comment:     byName["win_comment"],
			TokenSymbol: byName["win_token_symbol"],
		}
		prize.AmountUSD, _ = strconv.Atoi(byName["win_amount_usd"])
		prize.TonAmount, _ = strconv.ParseFloat(byName["win_ton_amount"], 64)
		prize.TokenAmount, _ = strconv.ParseFloat(byName["win_token_amount"], 64)
		record.Prize = prize
	}
	if ref := byName["referral_amount"]; ref != "" {
		amount, _ := strconv.ParseFloat(ref, 64)
		referral := &domain.Referral{
			Amount:   amount,
			Currency: byName["referral_currency"],
			Address:  byName["referral_address"],
		}
		if pct, err := strconv.ParseFloat(byName["referral_percent"], 64); err == nil {
			referral.Percent = &pct
		}
		record.Referral = referral
	}
	if byName["nft_address"] != "" && byName["collection_address"] != "" {
		index, _ := strconv.ParseInt(byName["nft_index"], 10, 64)
		record.Mint = &domain.Mint{
			ItemAddress:       byName["nft_address"],
			CollectionAddress: byName["collection_address"],
			Index:             index,
		}
	}
	if byName["is_fake"] != "" || byName["validation_score"] != "" {
		verdict := &domain.Verdict{FakeReason: byName["fake_reason"]}
		verdict.IsFake, _ = strconv.ParseBool(byName["is_fake"])
		verdict.Score, _ = strconv.Atoi(byName["validation_score"])
		record.Verdict = verdict
	}

	return record
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
