// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hypermesh/trustchain/proof"
	"github.com/hypermesh/trustchain/xerrors"
)

// replica is one validator node's share of the cluster's state: its own
// temporal chain tail, per §6.5's "validators are stateless modulo the
// per-node temporal chain tail". Replicas otherwise apply the same four
// per-proof validators.
type replica struct {
	id                   string
	lastLogicalTimestamp uint64
	lastTemporalHash     *[32]byte
}

// ValidatorService applies the four-proof validators across a cluster
// of replicas and aggregates their verdicts by Byzantine quorum, per
// §4.4. Quorum size n is len(replicas); f is ByzantineTolerance from
// the ConsensusRequirements passed to ValidateProof.
type ValidatorService struct {
	mu       sync.Mutex
	replicas []*replica
}

// NewValidatorService creates a cluster of n identical-policy replicas,
// each starting with an empty temporal chain tail.
func NewValidatorService(n int) *ValidatorService {
	if n < 1 {
		n = 1
	}
	replicas := make([]*replica, n)
	for i := range replicas {
		replicas[i] = &replica{id: fmt.Sprintf("validator-%d", i)}
	}
	return &ValidatorService{replicas: replicas}
}

// quorumSize returns ceil((1-f)*n).
func quorumSize(f float64, n int) int {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return int(math.Ceil((1 - f) * float64(n)))
}

// ValidateProof runs the combined four-proof validation independently
// on every replica (each contributing its own temporal chain state),
// then requires at least quorumSize(f, n) replicas to agree on the
// same verdict (valid or invalid). Replicas that vote with the winning
// side and voted Valid advance their temporal chain tail to cp's Time
// proof; this is the "only accepted proofs extend the chain" rule
// implied by §4.4's monotonicity check.
func (vs *ValidatorService) ValidateProof(ctx context.Context, cp *proof.ConsensusProof, req proof.ConsensusRequirements, now time.Time) (*ValidationResult, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	start := time.Now()
	n := len(vs.replicas)
	required := quorumSize(req.ByzantineTolerance, n)

	type vote struct {
		replica *replica
		res     proof.Results
		err     error
	}
	votes := make([]vote, n)
	for i, r := range vs.replicas {
		vctx := proof.Context{
			Now:                  now,
			Operation:            proof.OpLoad,
			LastLogicalTimestamp: r.lastLogicalTimestamp,
			LastTemporalHash:     r.lastTemporalHash,
			MinLogicalIncrement:  1,
			MaxDistance:          1 << 16,
			MaxSpaceAge:          time.Hour,
			MaxWorkAge:           time.Hour,
			MaxStakeAge:          time.Hour,
		}
		res, err := proof.Validate(ctx, vctx, cp, req)
		votes[i] = vote{replica: r, res: res, err: err}
	}

	validCount, invalidCount := 0, 0
	var firstErr error
	for _, v := range votes {
		if v.err == nil {
			validCount++
		} else {
			invalidCount++
			if firstErr == nil {
				firstErr = v.err
			}
		}
	}

	elapsed := time.Since(start)
	metrics := Metrics{
		ValidationTimeUs: uint64(elapsed.Microseconds()),
		ValidatorNodes:   uint32(n),
		ConfidenceLevel:  confidenceLevel(validCount, invalidCount, n),
		NetworkLoad:      0,
	}
	proofHash := cp.ComputeCombinedHash()
	details := Details{
		ProofResults: ProofResults{
			SpaceProofValid: votes[0].res.SpaceValid,
			StakeProofValid: votes[0].res.StakeValid,
			WorkProofValid:  votes[0].res.WorkValid,
			TimeProofValid:  votes[0].res.TimeValid,
		},
		PerformanceStats: PerformanceStats{
			ConsensusLatencyMs: uint64(elapsed.Milliseconds()),
		},
	}

	switch {
	case validCount >= required:
		for _, v := range votes {
			if v.err == nil {
				v.replica.lastLogicalTimestamp = cp.Time.LogicalTimestamp
				th := cp.Time.TemporalHash
				v.replica.lastTemporalHash = &th
			}
		}
		byzantine := n - validCount
		details.BFTStatus = BFTStatus{
			ByzantineNodesDetected:   uint32(byzantine),
			FaultToleranceMaintained: true,
		}
		return &ValidationResult{
			Result:      OutcomeValid(),
			ProofHash:   proofHash,
			ValidatorID: vs.replicas[0].id,
			ValidatedAt: now,
			Metrics:     metrics,
			Details:     details,
		}, nil

	case invalidCount >= required:
		reason := "validation failed"
		var failed []string
		if ve, ok := firstErr.(*xerrors.ValidationError); ok {
			reason = ve.Message
			failed = ve.FailedProofs
		}
		byzantine := n - invalidCount
		details.BFTStatus = BFTStatus{
			ByzantineNodesDetected:   uint32(byzantine),
			FaultToleranceMaintained: true,
		}
		return &ValidationResult{
			Result:      OutcomeInvalid(reason, failed...),
			ProofHash:   proofHash,
			ValidatorID: vs.replicas[0].id,
			ValidatedAt: now,
			Metrics:     metrics,
			Details:     details,
		}, nil

	default:
		action := "escalated for manual review"
		details.BFTStatus = BFTStatus{
			ByzantineNodesDetected:   uint32(minInt(validCount, invalidCount)),
			FaultToleranceMaintained: false,
			RecoveryActionTaken:      &action,
		}
		return &ValidationResult{
			Result:      OutcomeError("byzantine_quorum_failed", "validator cluster could not reach quorum"),
			ProofHash:   proofHash,
			ValidatorID: vs.replicas[0].id,
			ValidatedAt: now,
			Metrics:     metrics,
			Details:     details,
		}, xerrors.ErrByzantineQuorumFailed
	}
}

func confidenceLevel(validCount, invalidCount, n int) float64 {
	if n == 0 {
		return 0
	}
	agree := validCount
	if invalidCount > agree {
		agree = invalidCount
	}
	return float64(agree) / float64(n)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
