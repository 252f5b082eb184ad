package toncenter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tonlotto/lottery-indexer/internal/adapter"
	"github.com/tonlotto/lottery-indexer/internal/logger"
)

// Source pages through the trace history of one account. It carries the
// inter-page delay so callers never hammer the API past its rate limit.
type Source struct {
	client    Client
	clock     adapter.Clock
	account   string
	pageLimit int
	pageDelay time.Duration
}

// NewSource creates a paged trace source for the given account
func NewSource(client Client, clock adapter.Clock, account string, pageLimit int, pageDelay time.Duration) *Source {
	return &Source{
		client:    client,
		clock:     clock,
		account:   account,
		pageLimit: pageLimit,
		pageDelay: pageDelay,
	}
}

// PageLimit returns the configured page size
func (s *Source) PageLimit() int {
	return s.pageLimit
}

// FetchPage fetches the page at the given offset. Every page after the first
// waits out the configured delay first.
func (s *Source) FetchPage(ctx context.Context, offset int) (*TracePage, error) {
	if offset > 0 && s.pageDelay > 0 {
		s.clock.Sleep(s.pageDelay)
	}

	logger.DebugCtx(ctx, "fetching trace page",
		zap.String("account", s.account),
		zap.Int("offset", offset),
		zap.Int("limit", s.pageLimit))

	return s.client.GetTraces(ctx, s.account, s.pageLimit, offset)
}
