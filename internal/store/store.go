package store

import (
	"context"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// RecordStore defines the interface for persisting classified lottery
// transactions
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=RecordStore=MockRecordStore,CursorStore=MockCursorStore
type RecordStore interface {
	// Append persists a batch of lottery transactions. Re-delivered rows are
	// tolerated: persistence is at-least-once.
	Append(ctx context.Context, records []*domain.LotteryTransaction) error
	// ReadAll returns every persisted lottery transaction
	ReadAll(ctx context.Context) ([]*domain.LotteryTransaction, error)
	// Close releases the underlying resources
	Close() error
}

// CursorStore defines the interface for storing and retrieving the trace
// cursor. The cursor only ever moves forward.
type CursorStore interface {
	// GetLastLT retrieves the logical time of the newest processed trace for
	// a contract, 0 when none exists
	GetLastLT(ctx context.Context, contract string) (uint64, error)
	// SetLastLT stores the logical time of the newest processed trace for a
	// contract
	SetLastLT(ctx context.Context, contract string, lt uint64) error
}
