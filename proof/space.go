// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"fmt"

	"github.com/hypermesh/trustchain/xerrors"
)

// SpaceValidator checks ProofOfSpace against ConsensusRequirements and a
// validation Context.
type SpaceValidator struct{}

var _ Validator = SpaceValidator{}

func (SpaceValidator) Kind() Kind { return KindSpace }

func (SpaceValidator) Requirements(op OperationKind) ProofRequirement {
	return ProofRequirement{Operation: op, Description: "committed_space >= min_space_bytes, recomputed location_hash matches"}
}

func (SpaceValidator) Validate(_ context.Context, vctx Context, prf any, req ConsensusRequirements) (bool, error) {
	p, ok := prf.(*ProofOfSpace)
	if !ok {
		return false, xerrors.NewValidationError("not a ProofOfSpace", string(KindSpace))
	}
	if p.CommittedSpace == 0 {
		return false, xerrors.NewValidationError("committed_space of zero is never valid", string(KindSpace))
	}
	if p.CommittedSpace < req.MinSpaceBytes {
		return false, xerrors.NewValidationError(
			fmt.Sprintf("committed_space %d below minimum %d", p.CommittedSpace, req.MinSpaceBytes),
			string(KindSpace),
		)
	}
	if p.NetworkPosition.DistanceMetric > vctx.MaxDistance {
		return false, xerrors.NewValidationError("network_position.distance_metric exceeds max_distance", string(KindSpace))
	}
	if p.NetworkPosition.Address == "" {
		return false, xerrors.NewValidationError("network_position.address is malformed", string(KindSpace))
	}
	if vctx.MaxSpaceAge > 0 {
		age := vctx.Now.Sub(p.GeneratedAt)
		if age < 0 || age > vctx.MaxSpaceAge {
			return false, xerrors.NewValidationError("proof of space has expired", string(KindSpace))
		}
	}
	if p.ComputeLocationHash() != p.LocationHash {
		return false, xerrors.NewValidationError("location_hash does not recompute", string(KindSpace))
	}
	return true, nil
}
