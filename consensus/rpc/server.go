// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hypermesh/trustchain/consensus"
	"github.com/hypermesh/trustchain/transport"
	"github.com/hypermesh/trustchain/xerrors"
	"github.com/luxfi/log"
)

// Server handles Consensus RPC connections, applying a process-wide
// concurrency limit across all of them, per §4.5: "accepts requests
// concurrently up to a configured max_concurrent_validations; beyond
// that, requests are ... rejected with resource_exhausted". This
// implementation always rejects rather than queues, keeping the I/O
// loop non-blocking per §5's scheduling model.
type Server struct {
	service *consensus.ValidatorService
	tracker *consensus.StatusTracker
	sem     chan struct{}
	log     log.Logger

	ln       transport.Listener
	wg       sync.WaitGroup
	stopOnce sync.Once
	closed   chan struct{}
}

// NewServer creates a Server bounded to maxConcurrent simultaneous
// validations.
func NewServer(service *consensus.ValidatorService, tracker *consensus.StatusTracker, maxConcurrent int, ln transport.Listener, logger log.Logger) *Server {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Server{
		service: service,
		tracker: tracker,
		sem:     make(chan struct{}, maxConcurrent),
		log:     logger,
		ln:      ln,
		closed:  make(chan struct{}),
	}
}

// Serve accepts connections until ctx is canceled.
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

// Close stops accepting new connections.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		close(s.closed)
		_ = s.ln.Close()
	})
}

func (s *Server) handleConn(conn transport.Stream) {
	defer conn.Close()
	for {
		var msg ClientMessage
		if err := readJSON(conn, &msg); err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("rpc: malformed request, closing connection", "error", err)
			}
			return
		}

		var resp ServerMessage
		switch msg.Kind {
		case kindValidate:
			if msg.Validate == nil {
				return
			}
			resp = ServerMessage{Result: s.handleRequest(msg.Validate)}
		case kindStatus:
			if msg.Status == nil {
				return
			}
			outcome := s.HandleStatus(*msg.Status)
			resp = ServerMessage{Outcome: &outcome}
		default:
			s.log.Debug("rpc: unknown message kind, closing connection", "kind", msg.Kind)
			return
		}

		if err := writeJSON(conn, resp); err != nil {
			return
		}
	}
}

func (s *Server) handleRequest(req *Request) *consensus.ValidationResult {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	default:
		return &consensus.ValidationResult{
			Result:      consensus.OutcomeError("resource_exhausted", "too many in-flight validations"),
			ValidatedAt: time.Now(),
		}
	}

	if req.FourProof == nil {
		return &consensus.ValidationResult{
			Result:      consensus.OutcomeError("malformed", "request carries no four_proof_request payload"),
			ValidatedAt: time.Now(),
		}
	}

	if req.RequestID != "" {
		s.tracker.TrackPending(req.RequestID, time.Now().Add(100*time.Millisecond))
	}

	now := time.Now()
	// CombinedHash was sealed by the client over its own request Timestamp
	// (see FourProofRequest.ToConsensusProof), so the proof must be built
	// with that same CreatedAt or a legitimate request's combined hash
	// would never recompute.
	cp := req.FourProof.ToConsensusProof(req.Timestamp)
	result, err := s.service.ValidateProof(context.Background(), cp, req.Requirements, now)
	if err != nil && !errors.Is(err, xerrors.ErrByzantineQuorumFailed) {
		result = &consensus.ValidationResult{
			Result:      consensus.OutcomeError("internal_error", err.Error()),
			ValidatedAt: now,
		}
	}
	if req.RequestID != "" {
		s.tracker.Resolve(req.RequestID, result)
	}
	return result
}

// HandleStatus answers a check_validation_status query.
func (s *Server) HandleStatus(req StatusRequest) consensus.Outcome {
	outcome, ok := s.tracker.Status(req.RequestID)
	if !ok {
		return consensus.OutcomeError("not_found", "unknown request_id")
	}
	return outcome
}
