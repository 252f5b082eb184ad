package messaging

import (
	"context"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// Publisher defines the interface for publishing classified lottery
// transactions to a message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishTransaction publishes a classified lottery transaction
	PublishTransaction(ctx context.Context, tx *domain.LotteryTransaction) error
	// Close closes the connection
	Close()
}
