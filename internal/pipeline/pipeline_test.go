package pipeline_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/logger"
	"github.com/tonlotto/lottery-indexer/internal/mocks"
	"github.com/tonlotto/lottery-indexer/internal/pipeline"
	"github.com/tonlotto/lottery-indexer/internal/providers/toncenter"
	"github.com/tonlotto/lottery-indexer/internal/validator"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const (
	testContract    = "0:1111111111111111111111111111111111111111111111111111111111111111"
	testParticipant = "0:2222222222222222222222222222222222222222222222222222222222222222"
)

type testMocks struct {
	source     *mocks.MockTraceSource
	classifier *mocks.MockClassifier
	records    *mocks.MockRecordStore
	cursor     *mocks.MockCursorStore
	publisher  *mocks.MockPublisher
}

func setupTestMocks(t *testing.T) *testMocks {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	return &testMocks{
		source:     mocks.NewMockTraceSource(ctrl),
		classifier: mocks.NewMockClassifier(ctrl),
		records:    mocks.NewMockRecordStore(ctrl),
		cursor:     mocks.NewMockCursorStore(ctrl),
		publisher:  mocks.NewMockPublisher(ctrl),
	}
}

func newPipeline(t *testing.T, m *testMocks, withPublisher bool) *pipeline.Pipeline {
	t.Helper()
	val, err := validator.New(testContract)
	require.NoError(t, err)

	var pub *mocks.MockPublisher
	if withPublisher {
		pub = m.publisher
	}
	if pub != nil {
		return pipeline.New(m.source, m.classifier, val, m.records, m.cursor, pub, testContract)
	}
	return pipeline.New(m.source, m.classifier, val, m.records, m.cursor, nil, testContract)
}

func trace(id string, startLT uint64) domain.Trace {
	return domain.Trace{TraceID: id, StartLT: startLT}
}

func classified(txHash string, lt uint64) *domain.LotteryTransaction {
	return &domain.LotteryTransaction{
		Participant: testParticipant,
		TxHash:      txHash,
		LT:          lt,
		Purchase:    &domain.Purchase{Amount: 1, Currency: domain.NativeCurrency},
	}
}

func TestRun_SingleShortPage(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, true)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(100), nil)
	m.source.EXPECT().PageLimit().Return(10)
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("t2", 300), trace("t1", 200)},
	}, nil)

	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h2", 300), nil)
	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h1", 200), nil)

	m.records.EXPECT().
		Append(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, batch []*domain.LotteryTransaction) error {
			require.Len(t, batch, 2)
			// Verdicts are attached before persisting
			for _, tx := range batch {
				require.NotNil(t, tx.Verdict)
				assert.False(t, tx.Verdict.IsFake)
			}
			return nil
		})
	m.publisher.EXPECT().PublishTransaction(ctx, gomock.Any()).Return(nil).Times(2)
	m.cursor.EXPECT().SetLastLT(ctx, testContract, uint64(300)).Return(nil)

	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Equal(t, pipeline.StateDone, p.State())
}

func TestRun_CaughtUpNothingNew(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(500), nil)
	m.source.EXPECT().PageLimit().Return(10)
	// Every trace at or below the cursor is already indexed
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("t1", 500), trace("t0", 400)},
	}, nil)

	// No classification, no persistence, no cursor advance
	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Equal(t, pipeline.StateDone, p.State())
}

func TestRun_EmptyHistory(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), nil)
	m.source.EXPECT().PageLimit().Return(10)
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{}, nil)

	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Equal(t, pipeline.StateDone, p.State())
}

func TestRun_Pagination(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), nil)
	m.source.EXPECT().PageLimit().Return(2)

	// First page is full, so a second fetch happens at the next offset
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("t3", 300), trace("t2", 200)},
	}, nil)
	m.source.EXPECT().FetchPage(ctx, 2).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("t1", 100)},
	}, nil)

	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h3", 300), nil)
	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h2", 200), nil)
	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h1", 100), nil)

	m.records.EXPECT().Append(ctx, gomock.Any()).Return(nil).Times(2)
	m.cursor.EXPECT().SetLastLT(ctx, testContract, uint64(300)).Return(nil)

	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, written)
}

func TestRun_SkippedTracesDroppedSilently(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), nil)
	m.source.EXPECT().PageLimit().Return(10)
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("noise", 200)},
	}, nil)

	m.classifier.EXPECT().
		Classify(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrTraceSkipped)

	// The trace still moves the cursor: it was seen, it just carried no signal
	m.cursor.EXPECT().SetLastLT(ctx, testContract, uint64(200)).Return(nil)

	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Equal(t, pipeline.StateDone, p.State())
}

func TestRun_PersistFailureKeepsCursor(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), nil)
	m.source.EXPECT().PageLimit().Return(10)
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("t1", 200)},
	}, nil)
	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h1", 200), nil)
	m.records.EXPECT().Append(ctx, gomock.Any()).Return(errors.New("disk full"))

	// SetLastLT is never called: the next run must re-process this page
	written, err := p.Run(ctx)
	require.Error(t, err)
	assert.Zero(t, written)
	assert.Equal(t, pipeline.StateFailed, p.State())
}

func TestRun_FetchFailure(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), nil)
	m.source.EXPECT().PageLimit().Return(10)
	m.source.EXPECT().FetchPage(ctx, 0).Return(nil, errors.New("timeout"))

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, pipeline.StateFailed, p.State())
}

func TestRun_CursorReadFailure(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, false)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), errors.New("db down"))

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, pipeline.StateFailed, p.State())
}

func TestRun_PublishFailureDoesNotFailRun(t *testing.T) {
	m := setupTestMocks(t)
	p := newPipeline(t, m, true)
	ctx := context.Background()

	m.cursor.EXPECT().GetLastLT(ctx, testContract).Return(uint64(0), nil)
	m.source.EXPECT().PageLimit().Return(10)
	m.source.EXPECT().FetchPage(ctx, 0).Return(&toncenter.TracePage{
		Traces: []domain.Trace{trace("t1", 200)},
	}, nil)
	m.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(classified("h1", 200), nil)
	m.records.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	m.publisher.EXPECT().PublishTransaction(ctx, gomock.Any()).Return(errors.New("nats down"))
	m.cursor.EXPECT().SetLastLT(ctx, testContract, uint64(200)).Return(nil)

	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, pipeline.StateDone, p.State())
}
