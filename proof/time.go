// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"

	"github.com/hypermesh/trustchain/xerrors"
)

// TimeValidator enforces the temporal chain invariant: logical timestamps
// strictly increase, by at least MinLogicalIncrement, and PreviousHash (if
// set) must match the node's last accepted temporal hash.
type TimeValidator struct{}

var _ Validator = TimeValidator{}

func (TimeValidator) Kind() Kind { return KindTime }

func (TimeValidator) Requirements(op OperationKind) ProofRequirement {
	return ProofRequirement{Operation: op, Description: "logical_timestamp strictly increasing, wall clock within drift budget"}
}

func (TimeValidator) Validate(_ context.Context, vctx Context, prf any, req ConsensusRequirements) (bool, error) {
	p, ok := prf.(*ProofOfTime)
	if !ok {
		return false, xerrors.NewValidationError("not a ProofOfTime", string(KindTime))
	}
	offset := vctx.Now.Sub(p.WallClock)
	if offset < 0 {
		offset = -offset
	}
	if req.MaxTimeOffset > 0 && offset > req.MaxTimeOffset {
		return false, xerrors.NewValidationError("wall clock offset exceeds max_time_offset", string(KindTime))
	}
	if p.LogicalTimestamp <= vctx.LastLogicalTimestamp {
		return false, &xerrors.ValidationError{
			Code:         "temporal_order_violation",
			Message:      "logical_timestamp does not strictly exceed the last accepted value",
			FailedProofs: []string{string(KindTime)},
		}
	}
	increment := p.LogicalTimestamp - vctx.LastLogicalTimestamp
	if vctx.MinLogicalIncrement > 0 && increment < vctx.MinLogicalIncrement {
		return false, &xerrors.ValidationError{
			Code:         "temporal_order_violation",
			Message:      "logical_timestamp increment below min_logical_increment",
			FailedProofs: []string{string(KindTime)},
		}
	}
	if p.PreviousHash != nil {
		if vctx.LastTemporalHash == nil || *vctx.LastTemporalHash != *p.PreviousHash {
			return false, &xerrors.ValidationError{
				Code:         "temporal_order_violation",
				Message:      "previous_hash does not match the node's last temporal hash",
				FailedProofs: []string{string(KindTime)},
			}
		}
	}
	return true, nil
}
