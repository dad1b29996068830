// Package seed fetches the upstream transaction dataset and swaps it into
// the store wholesale.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"salestats/internal/core"
	"salestats/internal/store"
)

// Fetcher downloads the transaction dataset from an upstream JSON endpoint.
type Fetcher struct {
	HTTPClient *http.Client
	URL        string
}

func NewFetcher(httpClient *http.Client, url string) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{HTTPClient: httpClient, URL: url}
}

// Fetch downloads and decodes the dataset. Records that fail validation are
// logged and dropped rather than failing the whole load.
func (f *Fetcher) Fetch(ctx context.Context) ([]core.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build seed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch seed data: unexpected http status code %d", resp.StatusCode)
	}

	var ds []core.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	valid := ds[:0]
	for _, t := range ds {
		if err := t.Validate(); err != nil {
			slog.WarnContext(ctx, "Dropping invalid seed record", "id", t.ID, "error", err)
			continue
		}
		valid = append(valid, t)
	}
	return valid, nil
}

// EventPublisher announces completed reseeds. A nil publisher disables
// notifications.
type EventPublisher interface {
	PublishDatasetReplaced(ctx context.Context, count int, source string) error
}

// Loader runs one fetch-and-replace cycle.
type Loader struct {
	fetcher *Fetcher
	store   store.TransactionStore
	events  EventPublisher
}

func NewLoader(fetcher *Fetcher, st store.TransactionStore, events EventPublisher) *Loader {
	return &Loader{fetcher: fetcher, store: st, events: events}
}

// Run replaces the store contents with the upstream dataset and returns the
// number of records loaded.
func (l *Loader) Run(ctx context.Context) (int, error) {
	ds, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	if err := l.store.ReplaceAll(ctx, ds); err != nil {
		return 0, fmt.Errorf("replace dataset: %w", err)
	}

	if l.events != nil {
		if err := l.events.PublishDatasetReplaced(ctx, len(ds), l.fetcher.URL); err != nil {
			// The data is already in place; a lost notification is not fatal.
			slog.WarnContext(ctx, "Failed to publish reseed event", "error", err)
		}
	}

	slog.InfoContext(ctx, "Dataset replaced", "count", len(ds), "source", l.fetcher.URL)
	return len(ds), nil
}
