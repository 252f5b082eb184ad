package jetstream_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonlotto/lottery-indexer/internal/adapter"
	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/logger"
	"github.com/tonlotto/lottery-indexer/internal/messaging"
	"github.com/tonlotto/lottery-indexer/internal/mocks"
	"github.com/tonlotto/lottery-indexer/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig() jetstream.Config {
	return jetstream.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "LOTTERY_EVENTS",
		SubjectPrefix:  "lottery.tx",
		MaxReconnects:  3,
		ReconnectWait:  time.Second,
		ConnectionName: "lottery-indexer-test",
	}
}

func setupPublisher(t *testing.T) (*mocks.MockNatsConn, *mocks.MockJetStream, func(adapter.JSON) (messaging.Publisher, error)) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(nc, js, nil)

	build := func(jsonAdapter adapter.JSON) (messaging.Publisher, error) {
		return jetstream.NewPublisher(testConfig(), natsJS, jsonAdapter)
	}
	return nc, js, build
}

func TestNewPublisher_ConnectError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, nil, errors.New("connection refused"))

	_, err := jetstream.NewPublisher(testConfig(), natsJS, adapter.NewJSON())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPublishTransaction_ValidSubject(t *testing.T) {
	_, js, build := setupPublisher(t)

	pub, err := build(adapter.NewJSON())
	require.NoError(t, err)

	tx := &domain.LotteryTransaction{
		TxHash:  "hash1",
		Verdict: &domain.Verdict{Score: 100},
	}

	js.EXPECT().
		Publish(gomock.Any(), "lottery.tx.valid", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, _ ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			assert.Contains(t, string(data), "hash1")
			return &natsjs.PubAck{}, nil
		})

	require.NoError(t, pub.PublishTransaction(context.Background(), tx))
}

func TestPublishTransaction_FakeSubject(t *testing.T) {
	_, js, build := setupPublisher(t)

	pub, err := build(adapter.NewJSON())
	require.NoError(t, err)

	tx := &domain.LotteryTransaction{
		TxHash:  "hash2",
		Verdict: &domain.Verdict{IsFake: true, FakeReason: "forged", Score: 0},
	}

	js.EXPECT().
		Publish(gomock.Any(), "lottery.tx.fake", gomock.Any()).
		Return(&natsjs.PubAck{}, nil)

	require.NoError(t, pub.PublishTransaction(context.Background(), tx))
}

func TestPublishTransaction_MarshalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, _, build := setupPublisher(t)

	jsonAdapter := mocks.NewMockJSON(ctrl)
	jsonAdapter.EXPECT().Marshal(gomock.Any()).Return(nil, errors.New("marshal failed"))

	pub, err := build(jsonAdapter)
	require.NoError(t, err)

	err = pub.PublishTransaction(context.Background(), &domain.LotteryTransaction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}

func TestPublishTransaction_PublishError(t *testing.T) {
	_, js, build := setupPublisher(t)

	pub, err := build(adapter.NewJSON())
	require.NoError(t, err)

	js.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("stream unavailable"))

	err = pub.PublishTransaction(context.Background(), &domain.LotteryTransaction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish")
}

func TestClose(t *testing.T) {
	nc, _, build := setupPublisher(t)

	pub, err := build(adapter.NewJSON())
	require.NoError(t, err)

	nc.EXPECT().Close()
	pub.Close()
}
