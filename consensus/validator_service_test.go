// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"
	"testing"
	"time"

	"github.com/hypermesh/trustchain/proof"
	"github.com/hypermesh/trustchain/xerrors"
	"github.com/stretchr/testify/require"
)

func freshProof(now time.Time, logicalTs uint64) *proof.ConsensusProof {
	cp := &proof.ConsensusProof{
		Space: proof.ProofOfSpace{
			StorageLocation: "rack-7/shelf-2",
			NetworkPosition: proof.NetworkPosition{Address: "10.0.0.1:9001", Zone: "us-east", DistanceMetric: 12},
			CommittedSpace:  1 << 20,
			GeneratedAt:     now,
		},
		Stake: proof.ProofOfStake{
			StakeHolder:    "acme-ca",
			StakeHolderID:  "ca-001",
			AuthorityLevel: 10,
			Permissions: proof.Permissions{
				Read:             proof.AccessNetwork,
				Write:            proof.AccessNetwork,
				Admin:            proof.AccessPrivate,
				AllocationRights: map[string]struct{}{"compute:gpu": {}},
			},
			GeneratedAt: now,
		},
		Work: proof.ProofOfWork{
			Nonce:        0,
			Difficulty:   0,
			ResourceType: proof.ResourceCPU,
			CompletedAt:  now,
		},
		Time: proof.ProofOfTime{
			LogicalTimestamp: logicalTs,
			WallClock:        now,
			SequenceNumber:   logicalTs,
		},
		CreatedAt: now,
	}
	cp.Seal()
	return cp
}

func testRequirements() proof.ConsensusRequirements {
	req := proof.DefaultRequirements()
	req.MinWorkDifficulty = 0
	req.ByzantineTolerance = 0.33
	return req
}

func TestValidateProofAcceptsOnQuorum(t *testing.T) {
	vs := NewValidatorService(4)
	now := time.Now()
	cp := freshProof(now, 1)

	result, err := vs.ValidateProof(context.Background(), cp, testRequirements(), now)
	require.NoError(t, err)
	require.True(t, result.Result.Valid)
	require.Equal(t, uint32(4), result.Metrics.ValidatorNodes)
	require.True(t, result.Details.BFTStatus.FaultToleranceMaintained)
}

func TestValidateProofRejectsTamperedProof(t *testing.T) {
	vs := NewValidatorService(4)
	now := time.Now()
	cp := freshProof(now, 1)
	cp.Space.LocationHash[0] ^= 0xFF

	result, err := vs.ValidateProof(context.Background(), cp, testRequirements(), now)
	require.NoError(t, err) // quorum itself does not error; it reports Invalid
	require.NotNil(t, result.Result.Invalid)
	require.False(t, result.Details.ProofResults.SpaceProofValid)
}

func TestTemporalChainAdvancesAcrossValidations(t *testing.T) {
	vs := NewValidatorService(3)
	now := time.Now()

	first := freshProof(now, 1)
	_, err := vs.ValidateProof(context.Background(), first, testRequirements(), now)
	require.NoError(t, err)

	// A second proof with a lower-or-equal logical timestamp must now be
	// rejected by every replica, since each advanced its chain tail.
	stale := freshProof(now, 1)
	result, err := vs.ValidateProof(context.Background(), stale, testRequirements(), now)
	require.NoError(t, err)
	require.NotNil(t, result.Result.Invalid)

	next := freshProof(now, 2)
	result, err = vs.ValidateProof(context.Background(), next, testRequirements(), now)
	require.NoError(t, err)
	require.True(t, result.Result.Valid)
}

func TestByzantineQuorumFailedWhenSplitBelowThreshold(t *testing.T) {
	vs := NewValidatorService(3)
	now := time.Now()

	// Desync one replica ahead of the others so it alone rejects a proof
	// the remaining two accept, simulating a node out of sync with the
	// rest of the cluster.
	vs.replicas[0].lastLogicalTimestamp = 100

	cp := freshProof(now, 1)
	req := testRequirements()
	req.ByzantineTolerance = 0 // require unanimous agreement (quorum = n = 3)

	result, err := vs.ValidateProof(context.Background(), cp, req, now)
	require.ErrorIs(t, err, xerrors.ErrByzantineQuorumFailed)
	require.NotNil(t, result.Result.Error)
	require.Equal(t, "byzantine_quorum_failed", result.Result.Error.ErrorCode)
	require.False(t, result.Details.BFTStatus.FaultToleranceMaintained)
}

func TestStatusTrackerPendingThenResolved(t *testing.T) {
	tracker := NewStatusTracker()
	eta := time.Now().Add(time.Second)
	tracker.TrackPending("req-1", eta)

	outcome, ok := tracker.Status("req-1")
	require.True(t, ok)
	require.NotNil(t, outcome.Pending)

	result := &ValidationResult{Result: OutcomeValid()}
	tracker.Resolve("req-1", result)

	outcome, ok = tracker.Status("req-1")
	require.True(t, ok)
	require.True(t, outcome.Valid)

	got, ok := tracker.Result("req-1")
	require.True(t, ok)
	require.Same(t, result, got)

	tracker.Forget("req-1")
	_, ok = tracker.Status("req-1")
	require.False(t, ok)
}

func TestStatusTrackerUnknownRequest(t *testing.T) {
	tracker := NewStatusTracker()
	_, ok := tracker.Status("nope")
	require.False(t, ok)
}
