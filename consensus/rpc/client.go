// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/hypermesh/trustchain/consensus"
	"github.com/hypermesh/trustchain/transport"
)

// ClientConfig controls retry, timeout, and caching policy, per §4.5's
// client contract.
type ClientConfig struct {
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	CacheEnabled   bool
	CacheTTL       time.Duration
}

// DefaultClientConfig mirrors the spec's documented defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   100 * time.Millisecond,
		CacheEnabled:   true,
		CacheTTL:       30 * time.Second,
	}
}

// ClientMetrics are the always-on counters named in §4.5: "total,
// success, failure, rolling avg latency (us), cache hit rate,
// last-update timestamp".
type ClientMetrics struct {
	Total        uint64
	Success      uint64
	Failure      uint64
	CacheHits    uint64
	AvgLatencyUs uint64
	LastUpdate   time.Time
}

type cacheEntry struct {
	result  *consensus.ValidationResult
	expires time.Time
}

// Client is a synchronous Consensus RPC client over a single
// connection. Concurrent callers are serialized by an internal mutex,
// one request and reply at a time — the wire protocol carries no request
// ID correlation, so parallel requests need one Client per connection.
type Client struct {
	cfg  ClientConfig
	conn transport.Stream

	connMu sync.Mutex

	cacheMu sync.Mutex
	cache   map[[32]byte]cacheEntry

	total, success, failure, cacheHits atomic.Uint64
	latencySumUs                       atomic.Uint64
	lastUpdate                         atomic.Value // time.Time
}

// Dial opens a Client connection to a Consensus RPC server.
func Dial(ctx context.Context, network, address string, cfg ClientConfig) (*Client, error) {
	conn, err := transport.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:   cfg,
		conn:  conn,
		cache: make(map[[32]byte]cacheEntry),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Validate sends req and returns the ValidationResult, retrying up to
// cfg.MaxRetries times with exponential backoff on transport failure. A
// cache hit short-circuits the round trip entirely but is otherwise
// indistinguishable from a fresh validation to the caller.
func (c *Client) Validate(ctx context.Context, req Request) (*consensus.ValidationResult, error) {
	start := time.Now()
	c.total.Add(1)
	defer func() {
		c.latencySumUs.Add(uint64(time.Since(start).Microseconds()))
		c.lastUpdate.Store(time.Now())
	}()

	if c.cfg.CacheEnabled {
		if result, ok := c.lookupCache(req.CanonicalHash()); ok {
			c.cacheHits.Add(1)
			c.success.Add(1)
			return result, nil
		}
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.RetryBackoff
	eb.Multiplier = 2 // RetryBackoff * 2^attempt
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0 // bounded by MaxRetries below, not wall-clock
	// The constructor fixed the first interval before InitialInterval was set.
	eb.Reset()
	policy := backoff.WithMaxRetries(eb, uint64(c.cfg.MaxRetries))

	var lastErr error
	attempts := 0
	for {
		attempts++
		result, err := c.roundTrip(ctx, req)
		if err == nil {
			c.success.Add(1)
			if c.cfg.CacheEnabled {
				c.storeCache(req.CanonicalHash(), result)
			}
			return result, nil
		}
		lastErr = err

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		select {
		case <-ctx.Done():
			c.failure.Add(1)
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	c.failure.Add(1)
	return nil, fmt.Errorf("rpc: validate failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*consensus.ValidationResult, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if err := writeJSON(c.conn, NewValidateMessage(req)); err != nil {
		return nil, err
	}
	var resp ServerMessage
	if err := readJSON(c.conn, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("rpc: server returned no result")
	}
	return resp.Result, nil
}

// CheckStatus queries check_validation_status(request_id).
func (c *Client) CheckStatus(ctx context.Context, requestID string) (consensus.Outcome, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if err := writeJSON(c.conn, NewStatusMessage(requestID)); err != nil {
		return consensus.Outcome{}, err
	}
	var resp ServerMessage
	if err := readJSON(c.conn, &resp); err != nil {
		return consensus.Outcome{}, err
	}
	if resp.Outcome == nil {
		return consensus.Outcome{}, fmt.Errorf("rpc: server returned no outcome")
	}
	return *resp.Outcome, nil
}

func (c *Client) lookupCache(key [32]byte) (*consensus.ValidationResult, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expires) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.result, true
}

func (c *Client) storeCache(key [32]byte, result *consensus.ValidationResult) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{result: result, expires: time.Now().Add(c.cfg.CacheTTL)}
}

// Metrics returns a point-in-time snapshot of client-side counters.
func (c *Client) Metrics() ClientMetrics {
	total := c.total.Load()
	var avg uint64
	if total > 0 {
		avg = c.latencySumUs.Load() / total
	}
	last, _ := c.lastUpdate.Load().(time.Time)
	return ClientMetrics{
		Total:        total,
		Success:      c.success.Load(),
		Failure:      c.failure.Load(),
		CacheHits:    c.cacheHits.Load(),
		AvgLatencyUs: avg,
		LastUpdate:   last,
	}
}
