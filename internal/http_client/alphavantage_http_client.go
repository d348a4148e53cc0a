package http_client

import (
	"Brokerage/internal/config"
	"Brokerage/internal/domain/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoQuoteData = errors.New("no quote data available")

// AlphaVantageHTTPClient fetches single-symbol quotes and symbol search
// results from the Alpha Vantage REST API.
type AlphaVantageHTTPClient struct {
	baseURL string
	apiKey  string
	log     slog.Logger
	client  *http.Client
}

func New(cfg config.QuoteProviderConfig, log slog.Logger) *AlphaVantageHTTPClient {
	return &AlphaVantageHTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		log:     log,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

func (c *AlphaVantageHTTPClient) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	log := c.log.With("method", "GetQuote", "symbol", symbol)

	reqUrl := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), c.apiKey)

	body, err := c.get(ctx, reqUrl)
	if err != nil {
		return models.Quote{}, err
	}

	var parsed globalQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Error("failed to decode response", "error", err)
		return models.Quote{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Note != "" || parsed.Information != "" {
		log.Warn("quote provider throttled request", "note", parsed.Note, "info", parsed.Information)
		return models.Quote{}, ErrNoQuoteData
	}

	priceStr, ok := parsed.GlobalQuote["05. price"]
	if !ok || priceStr == "" {
		return models.Quote{}, ErrNoQuoteData
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		log.Error("failed to parse price", "price", priceStr, "error", err)
		return models.Quote{}, fmt.Errorf("parse price: %w", err)
	}

	change, _ := decimal.NewFromString(parsed.GlobalQuote["09. change"])
	percentChange, _ := decimal.NewFromString(
		strings.TrimSuffix(parsed.GlobalQuote["10. change percent"], "%"))

	return models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		PercentChange: percentChange,
	}, nil
}

type symbolSearchResponse struct {
	BestMatches []map[string]string `json:"bestMatches"`
}

func (c *AlphaVantageHTTPClient) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	log := c.log.With("method", "SearchSymbols", "query", query)

	reqUrl := fmt.Sprintf("%s/query?function=SYMBOL_SEARCH&keywords=%s&apikey=%s",
		c.baseURL, url.QueryEscape(query), c.apiKey)

	body, err := c.get(ctx, reqUrl)
	if err != nil {
		return nil, err
	}

	var parsed symbolSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	matches := make([]models.SymbolMatch, 0, len(parsed.BestMatches))
	for _, m := range parsed.BestMatches {
		matches = append(matches, models.SymbolMatch{
			Symbol:   m["1. symbol"],
			Name:     m["2. name"],
			Region:   m["4. region"],
			Currency: m["8. currency"],
		})
	}

	return matches, nil
}

func (c *AlphaVantageHTTPClient) get(ctx context.Context, reqUrl string) ([]byte, error) {
	log := c.log.With("method", "get")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		log.Error("failed to create request", "error", err)
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("failed to make request", "error", err)
		return nil, fmt.Errorf("could not make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("unexpected status code",
			"status", resp.StatusCode,
			"response", string(body))
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
