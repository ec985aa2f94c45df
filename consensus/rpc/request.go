// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpc implements the JSON-over-reliable-stream Consensus RPC
// protocol described in §6.2: a client with synchronous request/reply,
// retry with backoff, an optional result cache, and always-on metrics;
// a server enforcing a concurrency limit and exposing
// check_validation_status for long-running requests.
package rpc

import (
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/hypermesh/trustchain/consensus"
	"github.com/hypermesh/trustchain/proof"
)

// FourProofRequest carries the four proofs to validate, one of two
// request payload shapes named in §4.5 ("certificate_request |
// four_proof_request"). CertificateRequest is not modeled here: the
// core never issues certificates itself (§6.6 names certificate
// issuance as an external collaborator concern), so only the
// four-proof validation path is implemented.
type FourProofRequest struct {
	Space        proof.ProofOfSpace `json:"space"`
	Stake        proof.ProofOfStake `json:"stake"`
	Work         proof.ProofOfWork  `json:"work"`
	Time         proof.ProofOfTime  `json:"time"`
	CombinedHash [32]byte           `json:"combined_hash"`
}

// ToConsensusProof builds the proof.ConsensusProof the server validates.
// The hash fields it carries (each sub-proof's own content hash plus
// CombinedHash) are exactly what r's client sealed before transmission;
// this does not reseal them, so a tampered hash on the wire stays
// tampered and proof.Validate rejects it.
func (r FourProofRequest) ToConsensusProof(createdAt time.Time) *proof.ConsensusProof {
	cp := &proof.ConsensusProof{
		Space:        r.Space,
		Stake:        r.Stake,
		Work:         r.Work,
		Time:         r.Time,
		CreatedAt:    createdAt,
		CombinedHash: r.CombinedHash,
	}
	return cp
}

// Request is the canonical envelope from §4.5.
type Request struct {
	RequestID    string                      `json:"request_id"`
	FourProof    *FourProofRequest           `json:"four_proof_request,omitempty"`
	Requirements proof.ConsensusRequirements `json:"requirements"`
	Context      consensus.RequestContext    `json:"context"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// CanonicalHash returns a stable hash of the request used as the result
// cache key, per §4.5's "keyed by a canonical hash of the request".
// Only the fields that affect the validation outcome are hashed:
// RequestID and Timestamp are excluded so that retries of the same
// logical request hit the same cache entry.
func (r Request) CanonicalHash() [32]byte {
	type canonical struct {
		FourProof    *FourProofRequest           `json:"four_proof_request,omitempty"`
		Requirements proof.ConsensusRequirements `json:"requirements"`
		Context      consensus.RequestContext    `json:"context"`
	}
	data, _ := json.Marshal(canonical{r.FourProof, r.Requirements, r.Context})
	return sha256.Sum256(data)
}

// StatusRequest is the check_validation_status(request_id) query.
type StatusRequest struct {
	RequestID string `json:"request_id"`
}
