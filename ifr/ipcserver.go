// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ifr

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/hypermesh/trustchain/transport"
	"github.com/hypermesh/trustchain/xerrors"
	"github.com/luxfi/log"
)

// Server exposes a Node over the length-prefixed IPC frame protocol from
// frame.go. One goroutine handles each accepted connection; the Node
// itself serializes table/bloom/hot-cache access internally, so workers
// never contend on an additional lock here.
type Server struct {
	node *Node
	ln   transport.Listener
	log  log.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	closed   chan struct{}
}

// NewServer wraps node with an IPC listener bound to ln.
func NewServer(node *Node, ln transport.Listener, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Server{
		node:   node,
		ln:     ln,
		log:    logger,
		closed: make(chan struct{}),
	}
}

// Serve accepts connections until ctx is canceled or the listener is
// closed. It blocks until all in-flight connection handlers return.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				s.wg.Wait()
				return nil
			default:
				return err
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting new connections. Already-accepted connections
// run to completion or until their next frame read fails.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		close(s.closed)
		_ = s.ln.Close()
	})
}

func (s *Server) handleConn(conn transport.Stream) {
	defer conn.Close()
	for {
		req, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("ifr: malformed frame, closing connection", "error", err)
			}
			return
		}
		reply, err := s.dispatch(req)
		if err != nil {
			_ = WriteFrame(conn, Frame{Opcode: OpError, Payload: []byte(err.Error())})
			return
		}
		if err := WriteFrame(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Frame) (Frame, error) {
	switch req.Opcode {
	case OpInsert:
		rec, err := decodeFlowRecord(req.Payload)
		if err != nil {
			return Frame{}, err
		}
		if err := s.node.Insert(rec); err != nil {
			if errors.Is(err, xerrors.ErrCapacityExceeded) {
				return Frame{Opcode: OpError, Payload: []byte(err.Error())}, nil
			}
			return Frame{}, err
		}
		return Frame{Opcode: OpReply}, nil

	case OpLookup:
		key, err := decodeFlowKey(req.Payload)
		if err != nil {
			return Frame{}, err
		}
		rec, ok := s.node.Lookup(key)
		return Frame{Opcode: OpReply, Payload: encodeLookupReply(rec, ok)}, nil

	case OpRemove:
		key, err := decodeFlowKey(req.Payload)
		if err != nil {
			return Frame{}, err
		}
		removed := s.node.Remove(key)
		var payload byte
		if removed {
			payload = 0x01
		}
		return Frame{Opcode: OpReply, Payload: []byte{payload}}, nil

	case OpStats:
		return Frame{Opcode: OpReply, Payload: encodeStatsReply(s.node.Stats())}, nil

	default:
		return Frame{}, xerrors.ErrMalformed
	}
}
