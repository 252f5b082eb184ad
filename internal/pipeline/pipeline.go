// Package pipeline drives one indexing run: fetch trace pages, classify and
// validate fresh traces, persist the batch, then advance the cursor. The
// cursor only advances after every batch of the run persisted, so a crash
// mid-run re-processes traces instead of losing them. Persistence is
// at-least-once and the record stores absorb duplicates.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tonlotto/lottery-indexer/internal/classifier"
	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/logger"
	"github.com/tonlotto/lottery-indexer/internal/messaging"
	"github.com/tonlotto/lottery-indexer/internal/providers/toncenter"
	"github.com/tonlotto/lottery-indexer/internal/store"
	"github.com/tonlotto/lottery-indexer/internal/validator"
)

// State is the pipeline's lifecycle phase
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateClassifying State = "classifying"
	StatePersisting  State = "persisting"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// TraceSource defines the paged trace feed consumed by the pipeline
//
//go:generate mockgen -source=pipeline.go -destination=../mocks/pipeline.go -package=mocks -mock_names=TraceSource=MockTraceSource
type TraceSource interface {
	// FetchPage fetches the page at the given offset, newest traces first
	FetchPage(ctx context.Context, offset int) (*toncenter.TracePage, error)
	// PageLimit returns the page size the source fetches with
	PageLimit() int
}

// Pipeline is one indexing run over a contract's trace history
type Pipeline struct {
	source     TraceSource
	classifier classifier.Classifier
	validator  *validator.Validator
	records    store.RecordStore
	cursor     store.CursorStore
	publisher  messaging.Publisher // optional, nil disables publishing
	contract   string

	state State
}

// New creates a pipeline. The publisher may be nil.
func New(
	source TraceSource,
	cls classifier.Classifier,
	val *validator.Validator,
	records store.RecordStore,
	cursor store.CursorStore,
	publisher messaging.Publisher,
	contract string,
) *Pipeline {
	return &Pipeline{
		source:     source,
		classifier: cls,
		validator:  val,
		records:    records,
		cursor:     cursor,
		publisher:  publisher,
		contract:   contract,
		state:      StateIdle,
	}
}

// State returns the pipeline's current lifecycle phase
func (p *Pipeline) State() State {
	return p.state
}

// Run executes one indexing pass: every trace newer than the stored cursor is
// classified, validated and persisted. Returns the number of records written.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	cursorLT, err := p.cursor.GetLastLT(ctx, p.contract)
	if err != nil {
		p.state = StateFailed
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}

	logger.InfoCtx(ctx, "starting indexing run",
		zap.String("contract", p.contract),
		zap.Uint64("cursor_lt", cursorLT))

	var (
		offset    int
		written   int
		runMaxLT  = cursorLT
		caughtUp  bool
		pageLimit = p.source.PageLimit()
	)

	for !caughtUp {
		p.state = StateFetching
		page, err := p.source.FetchPage(ctx, offset)
		if err != nil {
			p.state = StateFailed
			return written, fmt.Errorf("failed to fetch page at offset %d: %w", offset, err)
		}
		if len(page.Traces) == 0 {
			break
		}

		// Pages run newest first: a trace at or below the cursor means the
		// rest of the history is already indexed
		fresh := make([]*domain.Trace, 0, len(page.Traces))
		for i := range page.Traces {
			trace := &page.Traces[i]
			if trace.StartLT <= cursorLT {
				caughtUp = true
				continue
			}
			if trace.StartLT > runMaxLT {
				runMaxLT = trace.StartLT
			}
			fresh = append(fresh, trace)
		}

		p.state = StateClassifying
		batch := p.classifyBatch(ctx, fresh, page.Metadata)

		p.state = StatePersisting
		if len(batch) > 0 {
			if err := p.records.Append(ctx, batch); err != nil {
				p.state = StateFailed
				return written, fmt.Errorf("failed to persist batch: %w", err)
			}
			written += len(batch)
			p.publish(ctx, batch)
		}

		if len(page.Traces) < pageLimit {
			break
		}
		offset += pageLimit
	}

	// Advance the cursor only after every batch of the run persisted, and
	// never backwards
	if runMaxLT > cursorLT {
		if err := p.cursor.SetLastLT(ctx, p.contract, runMaxLT); err != nil {
			p.state = StateFailed
			return written, fmt.Errorf("failed to advance cursor: %w", err)
		}
	}

	p.state = StateDone
	logger.InfoCtx(ctx, "indexing run complete",
		zap.Int("records_written", written),
		zap.Uint64("cursor_lt", runMaxLT))

	return written, nil
}

// classifyBatch classifies and validates a page's fresh traces. Traces without
// a lottery signal are dropped silently; traces the classifier rejects as
// malformed are logged and dropped.
func (p *Pipeline) classifyBatch(ctx context.Context, traces []*domain.Trace, meta domain.TokenMetadata) []*domain.LotteryTransaction {
	batch := make([]*domain.LotteryTransaction, 0, len(traces))

	for _, trace := range traces {
		tx, err := p.classifier.Classify(trace, meta)
		if err != nil {
			if errors.Is(err, domain.ErrTraceSkipped) {
				continue
			}
			logger.WarnCtx(ctx, "dropping malformed trace",
				zap.String("trace_id", trace.TraceID),
				zap.Error(err))
			continue
		}

		verdict := p.validator.ValidateTrace(trace, tx.Participant)
		tx.Verdict = &verdict

		if verdict.IsFake {
			logger.WarnCtx(ctx, "fake transaction detected",
				zap.String("tx_hash", tx.TxHash),
				zap.String("participant", tx.Participant),
				zap.String("reason", verdict.FakeReason))
		}

		batch = append(batch, tx)
	}

	return batch
}

// publish sends the batch to the broker. Publish failures never fail the run:
// the records are already persisted.
func (p *Pipeline) publish(ctx context.Context, batch []*domain.LotteryTransaction) {
	if p.publisher == nil {
		return
	}

	for _, tx := range batch {
		if err := p.publisher.PublishTransaction(ctx, tx); err != nil {
			logger.WarnCtx(ctx, "failed to publish transaction",
				zap.String("tx_hash", tx.TxHash),
				zap.Error(err))
		}
	}
}
