// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ifr

import (
	"context"
	"fmt"
	"sync"

	"github.com/hypermesh/trustchain/flowtable"
	"github.com/hypermesh/trustchain/transport"
)

// Client is a synchronous IPC client for a single Server connection.
// Requests are serialized by an internal mutex: the frame protocol has
// no request ID, so goroutines sharing a Client take turns, one request
// and reply at a time — callers needing parallel requests should pool
// multiple Clients, one per connection.
type Client struct {
	mu   sync.Mutex
	conn transport.Stream
}

// Dial opens a Client connection to an IFR Server over network/address.
func Dial(ctx context.Context, network, address string) (*Client, error) {
	conn, err := transport.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req Frame) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := WriteFrame(c.conn, req); err != nil {
		return Frame{}, err
	}
	reply, err := ReadFrame(c.conn)
	if err != nil {
		return Frame{}, err
	}
	if reply.Opcode == OpError {
		return Frame{}, fmt.Errorf("ifr: server error: %s", string(reply.Payload))
	}
	return reply, nil
}

// Insert sends rec to the server.
func (c *Client) Insert(rec flowtable.FlowRecord) error {
	_, err := c.roundTrip(Frame{Opcode: OpInsert, Payload: encodeFlowRecord(rec)})
	return err
}

// Lookup queries key and reports whether a record was found.
func (c *Client) Lookup(key flowtable.FlowKey) (flowtable.FlowRecord, bool, error) {
	reply, err := c.roundTrip(Frame{Opcode: OpLookup, Payload: encodeFlowKey(key)})
	if err != nil {
		return flowtable.FlowRecord{}, false, err
	}
	return decodeLookupReply(reply.Payload)
}

// Remove deletes key, reporting whether it was present.
func (c *Client) Remove(key flowtable.FlowKey) (bool, error) {
	reply, err := c.roundTrip(Frame{Opcode: OpRemove, Payload: encodeFlowKey(key)})
	if err != nil {
		return false, err
	}
	return len(reply.Payload) == 1 && reply.Payload[0] == 0x01, nil
}

// Stats fetches the server's cumulative pipeline counters.
func (c *Client) Stats() (Stats, error) {
	reply, err := c.roundTrip(Frame{Opcode: OpStats})
	if err != nil {
		return Stats{}, err
	}
	return decodeStatsReply(reply.Payload)
}
