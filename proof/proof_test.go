// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freshProof(now time.Time) *ConsensusProof {
	cp := &ConsensusProof{
		Space: ProofOfSpace{
			StorageLocation: "rack-7/shelf-2",
			NetworkPosition: NetworkPosition{Address: "10.0.0.1:9001", Zone: "us-east", DistanceMetric: 12},
			CommittedSpace:  1 << 20,
			GeneratedAt:     now,
		},
		Stake: ProofOfStake{
			StakeHolder:   "acme-ca",
			StakeHolderID: "ca-001",
			AuthorityLevel: 10,
			Permissions: Permissions{
				Read:  AccessNetwork,
				Write: AccessNetwork,
				Admin: AccessPrivate,
				AllocationRights: map[string]struct{}{"compute:gpu": {}},
			},
			GeneratedAt: now,
		},
		Work: ProofOfWork{
			Nonce:        0,
			Difficulty:   0,
			ResourceType: ResourceCPU,
			CompletedAt:  now,
		},
		Time: ProofOfTime{
			LogicalTimestamp: 1,
			WallClock:        now,
			SequenceNumber:   1,
		},
		CreatedAt: now,
	}
	cp.Seal()
	return cp
}

func TestCombinedValidationAccepts(t *testing.T) {
	now := time.Now()
	cp := freshProof(now)
	vctx := DefaultContext(now)
	vctx.Operation = OpLoad
	req := DefaultRequirements()
	req.MinWorkDifficulty = 0

	res, err := Validate(context.Background(), vctx, cp, req)
	require.NoError(t, err)
	require.True(t, res.AllValid())
}

func TestTamperedSubHashRejected(t *testing.T) {
	now := time.Now()
	req := DefaultRequirements()
	req.MinWorkDifficulty = 0
	vctx := DefaultContext(now)

	t.Run("space hash", func(t *testing.T) {
		cp := freshProof(now)
		cp.Space.LocationHash[0] ^= 0xFF
		res, err := Validate(context.Background(), vctx, cp, req)
		require.Error(t, err)
		require.False(t, res.SpaceValid)
	})

	t.Run("stake hash", func(t *testing.T) {
		cp := freshProof(now)
		cp.Stake.OwnershipHash[0] ^= 0xFF
		res, err := Validate(context.Background(), vctx, cp, req)
		require.Error(t, err)
		require.False(t, res.StakeValid)
	})

	t.Run("work hash", func(t *testing.T) {
		cp := freshProof(now)
		cp.Work.ComputationHash[0] ^= 0xFF
		res, err := Validate(context.Background(), vctx, cp, req)
		require.Error(t, err)
		require.False(t, res.WorkValid)
	})

	t.Run("combined hash", func(t *testing.T) {
		cp := freshProof(now)
		cp.CombinedHash[0] ^= 0xFF
		_, err := Validate(context.Background(), vctx, cp, req)
		require.Error(t, err)
	})
}

func TestZeroCommittedSpaceRejected(t *testing.T) {
	now := time.Now()
	cp := freshProof(now)
	cp.Space.CommittedSpace = 0
	cp.Space.LocationHash = cp.Space.ComputeLocationHash()

	v := SpaceValidator{}
	ok, err := v.Validate(context.Background(), DefaultContext(now), &cp.Space, DefaultRequirements())
	require.False(t, ok)
	require.Error(t, err)
}

func TestWorkDifficultyTarget(t *testing.T) {
	now := time.Now()
	// Search for a nonce that meets an 8-bit difficulty (1 leading zero byte).
	var w ProofOfWork
	w.Difficulty = 8
	w.ResourceType = ResourceCPU
	w.CompletedAt = now
	for nonce := uint64(0); ; nonce++ {
		w.Nonce = nonce
		h := w.ComputeComputationHash()
		if MeetsDifficulty(h, w.Difficulty) {
			w.ComputationHash = h
			break
		}
	}

	v := WorkValidator{}
	req := DefaultRequirements()
	req.MinWorkDifficulty = 8
	ok, err := v.Validate(context.Background(), DefaultContext(now), &w, req)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTemporalChainMonotonic(t *testing.T) {
	now := time.Now()
	v := TimeValidator{}
	req := DefaultRequirements()

	first := ProofOfTime{LogicalTimestamp: 5, WallClock: now, SequenceNumber: 1}
	first.TemporalHash = first.ComputeTemporalHash()

	vctx := DefaultContext(now)
	vctx.LastLogicalTimestamp = 4
	ok, err := v.Validate(context.Background(), vctx, &first, req)
	require.NoError(t, err)
	require.True(t, ok)

	// A second proof referencing the first must chain correctly.
	firstHash := first.TemporalHash
	second := ProofOfTime{
		LogicalTimestamp: 6,
		WallClock:        now,
		PreviousHash:      &firstHash,
		SequenceNumber:    2,
	}
	second.TemporalHash = second.ComputeTemporalHash()

	vctx2 := DefaultContext(now)
	vctx2.LastLogicalTimestamp = first.LogicalTimestamp
	vctx2.LastTemporalHash = &firstHash
	ok, err = v.Validate(context.Background(), vctx2, &second, req)
	require.NoError(t, err)
	require.True(t, ok)

	// Replaying the same logical timestamp must fail with TemporalOrderViolation.
	ok, err = v.Validate(context.Background(), vctx2, &first, req)
	require.False(t, ok)
	require.ErrorContains(t, err, "temporal_order_violation")
}

func TestStakePermissionsPerOperation(t *testing.T) {
	now := time.Now()
	v := StakeValidator{}
	req := DefaultRequirements()

	base := ProofOfStake{
		StakeHolder:    "holder",
		StakeHolderID:  "id-1",
		AuthorityLevel: 5,
		GeneratedAt:    now,
	}
	base.OwnershipHash = base.ComputeOwnershipHash()

	vctx := DefaultContext(now)
	vctx.Operation = OpStore
	ok, err := v.Validate(context.Background(), vctx, &base, req)
	require.False(t, ok)
	require.Error(t, err)

	base.Permissions.Write = AccessNetwork
	base.OwnershipHash = base.ComputeOwnershipHash()
	ok, err = v.Validate(context.Background(), vctx, &base, req)
	require.NoError(t, err)
	require.True(t, ok)
}
