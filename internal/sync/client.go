// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// defaultTimeout bounds one trainer HTTP call when the config does not.
const defaultTimeout = 30 * time.Second

// TrainerClient talks to the training service's artifact registry.
//
// The trainer surface is two endpoints:
//
//	GET {base}/api/v1/artifacts            -> ArtifactIndex
//	GET {base}/api/v1/artifacts/{filename} -> artifact bytes
//
// Authentication is a static API key sent as X-API-Key.
type TrainerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTrainerClient creates a trainer API client. baseURL must carry the
// scheme and host; a trailing slash is tolerated.
func NewTrainerClient(baseURL, apiKey string, timeout time.Duration) *TrainerClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &TrainerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Index fetches the current artifact catalog.
func (c *TrainerClient) Index(ctx context.Context) (*ArtifactIndex, error) {
	req, err := c.newRequest(ctx, c.baseURL+"/api/v1/artifacts")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch artifact index: trainer returned %d", resp.StatusCode)
	}

	var index ArtifactIndex
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return nil, fmt.Errorf("decode artifact index: %w", err)
	}

	return &index, nil
}

// Download streams one artifact's bytes. The caller owns the returned
// ReadCloser and must close it.
func (c *TrainerClient) Download(ctx context.Context, filename string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, c.baseURL+"/api/v1/artifacts/"+url.PathEscape(filename))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", filename, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: trainer returned %d", filename, resp.StatusCode)
	}

	return resp.Body, nil
}

// Ping checks trainer reachability by fetching the index headers.
func (c *TrainerClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, c.baseURL+"/api/v1/artifacts")
	if err != nil {
		return err
	}
	req.Method = http.MethodHead

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping trainer: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping trainer: returned %d", resp.StatusCode)
	}
	return nil
}

func (c *TrainerClient) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build trainer request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}
