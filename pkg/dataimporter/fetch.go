package dataimporter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
)

const DefaultFetchTimeout = 30 * time.Second

// Fetcher downloads dataset sources, each request bounded by its own timeout
type Fetcher struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &Fetcher{
		Client:    &http.Client{},
		Timeout:   timeout,
		UserAgent: "livetransit-importer/1.0",
	}
}

func (f *Fetcher) Fetch(ctx context.Context, dataset datasets.DataSet) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	source, err := url.Parse(dataset.Source)
	if err != nil {
		return nil, fmt.Errorf("invalid source for %s: %w", dataset.Identifier, err)
	}

	if len(dataset.SourceAuthentication.Query) > 0 {
		query := source.Query()
		for key, value := range dataset.SourceAuthentication.Query {
			query.Set(key, value)
		}
		source.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.String(), nil)
	if err != nil {
		return nil, err
	}
	// Some publishers sit behind a CDN that rejects requests without a user agent
	req.Header.Set("User-Agent", f.UserAgent)
	for key, value := range dataset.SourceAuthentication.Header {
		req.Header.Set(key, value)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", dataset.Identifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, dataset.Identifier)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dataset.Identifier, err)
	}

	return body, nil
}
