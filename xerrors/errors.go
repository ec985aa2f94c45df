// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xerrors defines the error taxonomy shared by every layer of the
// consensus core: table/cache capacity, proof validation, integrity,
// transport, and fabric health. Leaf operations never panic; they return
// one of these sentinels (or a *ValidationError wrapping one) so callers
// can branch with errors.Is/errors.As instead of string matching.
package xerrors

import "errors"

var (
	// ErrCapacityExceeded covers flow-table load-factor rejections; the
	// edge fabric's node-count ceiling has its own ErrMaxNodesReached.
	// Never fatal; the caller rejects the write or triggers a rehash.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrValidationFailed means one or more proofs in a ConsensusProof did
	// not validate.
	ErrValidationFailed = errors.New("validation failed")

	// ErrTemporalOrderViolation is a specialization of ErrValidationFailed:
	// a ProofOfTime was not strictly newer than the node's last accepted
	// logical timestamp.
	ErrTemporalOrderViolation = errors.New("temporal order violation")

	// ErrIntegrityMismatch covers Merkle, chunk-hash, and cache-payload
	// hash verification failures. Fatal for the artifact in question.
	ErrIntegrityMismatch = errors.New("integrity mismatch")

	// ErrTimeout means a request did not complete within its budget.
	ErrTimeout = errors.New("timeout")

	// ErrByzantineQuorumFailed means a validator cluster could not reach
	// the required agreement threshold after retrying.
	ErrByzantineQuorumFailed = errors.New("byzantine quorum failed")

	// ErrResourceExhausted means too many in-flight validations; the
	// caller should back off.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrMalformed means a wire frame or JSON payload violated its schema.
	// The only error kind that aborts the containing connection.
	ErrMalformed = errors.New("malformed request")

	// ErrUnreachable means an edge node's health check failed.
	ErrUnreachable = errors.New("node unreachable")

	// ErrNotFound is a general-purpose absent-value sentinel (e.g. cache
	// miss, unknown edge node, unknown key).
	ErrNotFound = errors.New("not found")

	// ErrMaxNodesReached means the edge fabric's configured node-count
	// ceiling has already been hit; register_edge refuses new nodes.
	ErrMaxNodesReached = errors.New("max nodes reached")

	// ErrReplicationQuorumFailed means cache_content could not place the
	// content on enough replicas to satisfy the failure quorum.
	ErrReplicationQuorumFailed = errors.New("replication quorum failed")
)

// ValidationError is a structured error carrying the failing proof names
// and a human-readable reason, mirroring the teacher's AppError{Code,
// Message} shape but specialized for four-proof validation outcomes.
type ValidationError struct {
	Code         string
	Message      string
	FailedProofs []string
}

func (e *ValidationError) Error() string {
	if len(e.FailedProofs) == 0 {
		return e.Code + ": " + e.Message
	}
	msg := e.Code + ": " + e.Message + " ["
	for i, p := range e.FailedProofs {
		if i > 0 {
			msg += ","
		}
		msg += p
	}
	return msg + "]"
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError builds a *ValidationError for one or more named
// failing proofs.
func NewValidationError(reason string, failedProofs ...string) *ValidationError {
	return &ValidationError{
		Code:         "validation_failed",
		Message:      reason,
		FailedProofs: failedProofs,
	}
}
