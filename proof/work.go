// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"fmt"

	"github.com/hypermesh/trustchain/xerrors"
)

// WorkValidator recomputes and checks a proof-of-work's difficulty target.
type WorkValidator struct{}

var _ Validator = WorkValidator{}

func (WorkValidator) Kind() Kind { return KindWork }

func (WorkValidator) Requirements(op OperationKind) ProofRequirement {
	return ProofRequirement{Operation: op, Description: "computation_hash meets difficulty target"}
}

func (WorkValidator) Validate(_ context.Context, vctx Context, prf any, req ConsensusRequirements) (bool, error) {
	p, ok := prf.(*ProofOfWork)
	if !ok {
		return false, xerrors.NewValidationError("not a ProofOfWork", string(KindWork))
	}
	if p.Difficulty < req.MinWorkDifficulty {
		return false, xerrors.NewValidationError(
			fmt.Sprintf("difficulty %d below minimum %d", p.Difficulty, req.MinWorkDifficulty),
			string(KindWork),
		)
	}
	if p.ComputeComputationHash() != p.ComputationHash {
		return false, xerrors.NewValidationError("computation_hash does not recompute", string(KindWork))
	}
	if !MeetsDifficulty(p.ComputationHash, p.Difficulty) {
		return false, xerrors.NewValidationError("computation_hash does not meet difficulty target", string(KindWork))
	}
	if vctx.MaxWorkAge > 0 {
		age := vctx.Now.Sub(p.CompletedAt)
		if age < 0 || age > vctx.MaxWorkAge {
			return false, xerrors.NewValidationError("proof of work has expired", string(KindWork))
		}
	}
	return true, nil
}
