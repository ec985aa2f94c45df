// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"

	"github.com/hypermesh/trustchain/xerrors"
)

// Validators bundles the four fixed per-proof validators. Exactly four
// implementations ever exist, so this is a small struct rather than an
// open-world registry.
type Validators struct {
	Space SpaceValidator
	Stake StakeValidator
	Work  WorkValidator
	Time  TimeValidator
}

// NewValidators returns the standard four-validator set.
func NewValidators() Validators {
	return Validators{}
}

// Results holds the per-proof pass/fail outcome of combined validation.
type Results struct {
	SpaceValid bool
	StakeValid bool
	WorkValid  bool
	TimeValid  bool
}

// AllValid reports whether every component passed.
func (r Results) AllValid() bool {
	return r.SpaceValid && r.StakeValid && r.WorkValid && r.TimeValid
}

// Validate runs all four validators against cp and recomputes the combined
// hash. It returns the per-proof Results regardless of outcome; err is
// non-nil (and is a *xerrors.ValidationError) iff overall validation
// failed, naming every proof that failed.
func Validate(ctx context.Context, vctx Context, cp *ConsensusProof, req ConsensusRequirements) (Results, error) {
	v := NewValidators()
	var res Results
	var failed []string

	if ok, _ := v.Space.Validate(ctx, vctx, &cp.Space, req); ok {
		res.SpaceValid = true
	} else {
		failed = append(failed, string(KindSpace))
	}
	if ok, _ := v.Stake.Validate(ctx, vctx, &cp.Stake, req); ok {
		res.StakeValid = true
	} else {
		failed = append(failed, string(KindStake))
	}
	if ok, _ := v.Work.Validate(ctx, vctx, &cp.Work, req); ok {
		res.WorkValid = true
	} else {
		failed = append(failed, string(KindWork))
	}
	if ok, _ := v.Time.Validate(ctx, vctx, &cp.Time, req); ok {
		res.TimeValid = true
	} else {
		failed = append(failed, string(KindTime))
	}

	if !res.AllValid() {
		return res, xerrors.NewValidationError("one or more proofs failed validation", failed...)
	}

	if cp.ComputeCombinedHash() != cp.CombinedHash {
		return res, xerrors.NewValidationError("combined_hash does not recompute", "combined")
	}

	return res, nil
}
