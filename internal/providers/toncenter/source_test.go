package toncenter_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/mocks"
	"github.com/tonlotto/lottery-indexer/internal/providers/toncenter"
)

type sourceMocks struct {
	client *mocks.MockToncenterClient
	clock  *mocks.MockClock
}

func setupSource(t *testing.T, pageDelay time.Duration) (*toncenter.Source, *sourceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &sourceMocks{
		client: mocks.NewMockToncenterClient(ctrl),
		clock:  mocks.NewMockClock(ctrl),
	}
	return toncenter.NewSource(m.client, m.clock, testAccount, 100, pageDelay), m
}

func TestSource_PageLimit(t *testing.T) {
	source, _ := setupSource(t, time.Second)
	assert.Equal(t, 100, source.PageLimit())
}

func TestSource_FetchPage_FirstPageNoDelay(t *testing.T) {
	source, m := setupSource(t, time.Second)

	expected := &toncenter.TracePage{Traces: []domain.Trace{{TraceID: "t1"}}}
	m.client.EXPECT().
		GetTraces(gomock.Any(), testAccount, 100, 0).
		Return(expected, nil)

	page, err := source.FetchPage(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, expected, page)
}

func TestSource_FetchPage_LaterPagesWaitOutDelay(t *testing.T) {
	source, m := setupSource(t, time.Second)

	gomock.InOrder(
		m.clock.EXPECT().Sleep(time.Second),
		m.client.EXPECT().
			GetTraces(gomock.Any(), testAccount, 100, 100).
			Return(&toncenter.TracePage{}, nil),
	)

	_, err := source.FetchPage(context.Background(), 100)
	require.NoError(t, err)
}

func TestSource_FetchPage_ZeroDelayNeverSleeps(t *testing.T) {
	source, m := setupSource(t, 0)

	m.client.EXPECT().
		GetTraces(gomock.Any(), testAccount, 100, 100).
		Return(&toncenter.TracePage{}, nil)

	_, err := source.FetchPage(context.Background(), 100)
	require.NoError(t, err)
}
