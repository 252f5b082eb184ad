package toncenter_test

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonlotto/lottery-indexer/internal/domain"
	"github.com/tonlotto/lottery-indexer/internal/logger"
	"github.com/tonlotto/lottery-indexer/internal/mocks"
	"github.com/tonlotto/lottery-indexer/internal/providers/toncenter"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testAccount = "0:1111111111111111111111111111111111111111111111111111111111111111"

func TestClient_GetTraces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := toncenter.NewClient("https://toncenter.example/api/v3", "secret", httpClient)

	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rawURL string, result interface{}) error {
			require.True(t, strings.HasPrefix(rawURL, "https://toncenter.example/api/v3/traces?"))

			parsed, err := url.Parse(rawURL)
			require.NoError(t, err)
			q := parsed.Query()
			assert.Equal(t, testAccount, q.Get("account"))
			assert.Equal(t, "100", q.Get("limit"))
			assert.Equal(t, "200", q.Get("offset"))
			assert.Equal(t, "true", q.Get("include_actions"))
			assert.Equal(t, "secret", q.Get("api_key"))

			page := result.(*toncenter.TracePage)
			page.Traces = []domain.Trace{{TraceID: "abc"}}
			return nil
		})

	page, err := client.GetTraces(context.Background(), testAccount, 100, 200)
	require.NoError(t, err)
	require.Len(t, page.Traces, 1)
	assert.Equal(t, "abc", page.Traces[0].TraceID)
}

func TestClient_GetTraces_NoAPIKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := toncenter.NewClient("https://toncenter.example/api/v3", "", httpClient)

	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rawURL string, _ interface{}) error {
			assert.NotContains(t, rawURL, "api_key")
			return nil
		})

	_, err := client.GetTraces(context.Background(), testAccount, 10, 0)
	require.NoError(t, err)
}

func TestClient_GetTraces_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := toncenter.NewClient("https://toncenter.example/api/v3", "", httpClient)

	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("boom"))

	_, err := client.GetTraces(context.Background(), testAccount, 10, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 30")
}
