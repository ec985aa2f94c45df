// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"fmt"

	"github.com/hypermesh/trustchain/xerrors"
)

// StakeValidator checks ProofOfStake authority and permission against the
// requested operation. This validates ownership and authority only; it
// never touches token economics, slashing, or inflation.
type StakeValidator struct{}

var _ Validator = StakeValidator{}

func (StakeValidator) Kind() Kind { return KindStake }

func (StakeValidator) Requirements(op OperationKind) ProofRequirement {
	switch op {
	case OpStore:
		return ProofRequirement{Operation: op, Description: "write >= Network"}
	case OpLoad:
		return ProofRequirement{Operation: op, Description: "read >= Private"}
	case OpCompute:
		return ProofRequirement{Operation: op, Description: "non-empty allocation_rights"}
	default:
		return ProofRequirement{Operation: op, Description: "authority_level >= min_authority"}
	}
}

func (StakeValidator) Validate(_ context.Context, vctx Context, prf any, req ConsensusRequirements) (bool, error) {
	p, ok := prf.(*ProofOfStake)
	if !ok {
		return false, xerrors.NewValidationError("not a ProofOfStake", string(KindStake))
	}
	if p.AuthorityLevel < req.MinStakeAuthority {
		return false, xerrors.NewValidationError(
			fmt.Sprintf("authority_level %d below minimum %d", p.AuthorityLevel, req.MinStakeAuthority),
			string(KindStake),
		)
	}
	if p.StakeHolder == "" || p.StakeHolderID == "" {
		return false, xerrors.NewValidationError("stake_holder or stake_holder_id is empty", string(KindStake))
	}
	switch vctx.Operation {
	case OpStore:
		if p.Permissions.Write < AccessNetwork {
			return false, xerrors.NewValidationError("store requires write >= Network", string(KindStake))
		}
	case OpLoad:
		if p.Permissions.Read < AccessPrivate {
			return false, xerrors.NewValidationError("load requires read >= Private", string(KindStake))
		}
	case OpCompute:
		if len(p.Permissions.AllocationRights) == 0 {
			return false, xerrors.NewValidationError("compute requires non-empty allocation_rights", string(KindStake))
		}
	}
	if vctx.MaxStakeAge > 0 {
		age := vctx.Now.Sub(p.GeneratedAt)
		if age < 0 || age > vctx.MaxStakeAge {
			return false, xerrors.NewValidationError("proof of stake has expired", string(KindStake))
		}
	}
	if p.ComputeOwnershipHash() != p.OwnershipHash {
		return false, xerrors.NewValidationError("ownership_hash does not recompute", string(KindStake))
	}
	return true, nil
}
