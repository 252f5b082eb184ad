package toncenter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tonlotto/lottery-indexer/internal/adapter"
	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// TracePage is one page of traces plus the token metadata side-table the API
// delivers alongside it
type TracePage struct {
	Traces   []domain.Trace       `json:"traces"`
	Metadata domain.TokenMetadata `json:"metadata,omitempty"`
}

// Client defines an interface for the toncenter v3 trace API to enable mocking
//
//go:generate mockgen -source=client.go -destination=../../mocks/toncenter_client.go -package=mocks -mock_names=Client=MockToncenterClient
type Client interface {
	// GetTraces fetches one page of traces for an account, newest first
	GetTraces(ctx context.Context, account string, limit, offset int) (*TracePage, error)
}

// client is the concrete implementation of Client
type client struct {
	baseURL    string
	apiKey     string
	httpClient adapter.HTTPClient
}

// NewClient creates a new toncenter API client
func NewClient(baseURL, apiKey string, httpClient adapter.HTTPClient) Client {
	return &client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// GetTraces fetches one page of traces for an account with actions included
func (c *client) GetTraces(ctx context.Context, account string, limit, offset int) (*TracePage, error) {
	params := url.Values{}
	params.Set("account", account)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("include_actions", "true")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	var page TracePage
	if err := c.httpClient.Get(ctx, fmt.Sprintf("%s/traces?%s", c.baseURL, params.Encode()), &page); err != nil {
		return nil, fmt.Errorf("failed to get traces at offset %d: %w", offset, err)
	}

	return &page, nil
}
