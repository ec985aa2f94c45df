// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"time"
)

// Context carries the per-validation state a Validator needs beyond the
// proof itself: the node's temporal chain tail and the wall clock to
// validate against. Exactly four Validator implementations exist (space,
// stake, work, time); callers dispatch on Kind rather than an
// open-world registry.
type Context struct {
	Now                    time.Time
	Operation              OperationKind
	LastLogicalTimestamp   uint64
	LastTemporalHash       *[32]byte
	MinLogicalIncrement    uint64
	MaxDistance            uint32
	MaxSpaceAge            time.Duration
	MaxWorkAge             time.Duration
	MaxStakeAge            time.Duration
}

// DefaultContext returns a Context with the spec's documented defaults:
// 1h proof-of-space/work/stake age cap, 1 logical-timestamp minimum
// increment.
func DefaultContext(now time.Time) Context {
	return Context{
		Now:                 now,
		Operation:           OpLoad,
		MinLogicalIncrement: 1,
		MaxDistance:         1 << 16,
		MaxSpaceAge:         time.Hour,
		MaxWorkAge:          time.Hour,
		MaxStakeAge:         time.Hour,
	}
}

// Kind identifies one of the four proof types.
type Kind string

const (
	KindSpace Kind = "space"
	KindStake Kind = "stake"
	KindWork  Kind = "work"
	KindTime  Kind = "time"
)

// Validator is the common contract every per-proof validator satisfies.
// The proof argument is passed as `any` and type-asserted internally since
// Go has no sum-type equivalent of a tagged enum of four concrete structs;
// this mirrors the "fixed implementer set" guidance over open dispatch.
type Validator interface {
	Kind() Kind
	Validate(ctx context.Context, vctx Context, prf any, req ConsensusRequirements) (bool, error)
	Requirements(op OperationKind) ProofRequirement
}
