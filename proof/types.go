// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proof implements the four-proof consensus primitive: proofs of
// space, stake, work, and time, the combined ConsensusProof that seals
// them, and the per-proof Validators that check them against a policy.
package proof

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// AccessLevel is a totally ordered permission level: None < Private <
// Network < Public < Verified.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessPrivate
	AccessNetwork
	AccessPublic
	AccessVerified
)

func (a AccessLevel) String() string {
	switch a {
	case AccessNone:
		return "None"
	case AccessPrivate:
		return "Private"
	case AccessNetwork:
		return "Network"
	case AccessPublic:
		return "Public"
	case AccessVerified:
		return "Verified"
	default:
		return fmt.Sprintf("AccessLevel(%d)", int(a))
	}
}

// ResourceType enumerates the kinds of resource a ProofOfWork can be
// computed over.
type ResourceType string

const (
	ResourceCPU     ResourceType = "cpu"
	ResourceGPU     ResourceType = "gpu"
	ResourceMemory  ResourceType = "memory"
	ResourceStorage ResourceType = "storage"
	ResourceNetwork ResourceType = "network"
)

// NetworkPosition locates a proof's storage within the network fabric.
type NetworkPosition struct {
	Address        string  `json:"address"`
	Zone           string  `json:"zone"`
	DistanceMetric uint32  `json:"distance_metric"`
}

// ProofOfSpace attests that a committed amount of storage is held at a
// given network position.
type ProofOfSpace struct {
	StorageLocation  string          `json:"storage_location"`
	NetworkPosition  NetworkPosition `json:"network_position"`
	CommittedSpace   uint64          `json:"committed_space"`
	LocationHash     [32]byte        `json:"location_hash"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// ComputeLocationHash recomputes H("space" || fields); the proof is valid
// only if this equals the stored LocationHash.
func (p *ProofOfSpace) ComputeLocationHash() [32]byte {
	h := sha256.New()
	h.Write([]byte("space"))
	h.Write([]byte(p.StorageLocation))
	h.Write([]byte(p.NetworkPosition.Address))
	h.Write([]byte(p.NetworkPosition.Zone))
	var distBuf [4]byte
	binary.BigEndian.PutUint32(distBuf[:], p.NetworkPosition.DistanceMetric)
	h.Write(distBuf[:])
	var spaceBuf [8]byte
	binary.BigEndian.PutUint64(spaceBuf[:], p.CommittedSpace)
	h.Write(spaceBuf[:])
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Permissions carries the read/write/admin levels plus allocation rights
// granted by a ProofOfStake.
type Permissions struct {
	Read            AccessLevel     `json:"read"`
	Write           AccessLevel     `json:"write"`
	Admin           AccessLevel     `json:"admin"`
	AllocationRights map[string]struct{} `json:"allocation_rights"`
}

// HasAllocationRight reports whether the named right is granted.
func (p Permissions) HasAllocationRight(name string) bool {
	_, ok := p.AllocationRights[name]
	return ok
}

// ProofOfStake attests ownership and authority over an asset. This is not
// a proof-of-stake blockchain primitive: there is no slashing, inflation,
// or token-weighted voting power. AuthorityLevel is a scalar assigned by
// an external identity system.
type ProofOfStake struct {
	StakeHolder   string              `json:"stake_holder"`
	StakeHolderID string              `json:"stake_holder_id"`
	AuthorityLevel uint64             `json:"authority_level"`
	Permissions   Permissions         `json:"permissions"`
	Allowances    map[string]struct{} `json:"allowances"`
	OwnershipHash [32]byte            `json:"ownership_hash"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// ComputeOwnershipHash recomputes the ownership hash from identity fields.
func (p *ProofOfStake) ComputeOwnershipHash() [32]byte {
	h := sha256.New()
	h.Write([]byte("stake"))
	h.Write([]byte(p.StakeHolder))
	h.Write([]byte(p.StakeHolderID))
	var authBuf [8]byte
	binary.BigEndian.PutUint64(authBuf[:], p.AuthorityLevel)
	h.Write(authBuf[:])
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// ProofOfWork attests that a nonce was found meeting a difficulty target
// for a given resource type.
type ProofOfWork struct {
	Nonce           uint64       `json:"nonce"`
	Difficulty      uint32       `json:"difficulty"`
	ResourceType    ResourceType `json:"resource_type"`
	ComputationHash [32]byte     `json:"computation_hash"`
	CompletedAt     time.Time    `json:"completed_at"`
}

// ComputeComputationHash recomputes H("{resource}:{nonce}:{difficulty}").
func (p *ProofOfWork) ComputeComputationHash() [32]byte {
	msg := fmt.Sprintf("%s:%d:%d", p.ResourceType, p.Nonce, p.Difficulty)
	return sha256.Sum256([]byte(msg))
}

// MeetsDifficulty reports whether hash has at least floor(difficulty/8)
// leading zero bytes, with the next byte masked by 0xFF >> (difficulty%8).
func MeetsDifficulty(hash [32]byte, difficulty uint32) bool {
	fullBytes := int(difficulty / 8)
	remBits := difficulty % 8
	if fullBytes > len(hash) {
		return false
	}
	for i := 0; i < fullBytes; i++ {
		if hash[i] != 0 {
			return false
		}
	}
	if remBits == 0 || fullBytes == len(hash) {
		return true
	}
	mask := byte(0xFF) >> remBits
	return hash[fullBytes] <= mask
}

// ProofOfTime attests a logical and wall-clock timestamp, optionally
// chained to a prior proof's TemporalHash.
type ProofOfTime struct {
	LogicalTimestamp uint64    `json:"logical_timestamp"`
	WallClock        time.Time `json:"wall_clock"`
	PreviousHash     *[32]byte `json:"previous_hash,omitempty"`
	TemporalHash     [32]byte  `json:"temporal_hash"`
	SequenceNumber   uint64    `json:"sequence_number"`
}

// ComputeTemporalHash recomputes the chained temporal hash.
func (p *ProofOfTime) ComputeTemporalHash() [32]byte {
	h := sha256.New()
	h.Write([]byte("time"))
	var lb [8]byte
	binary.BigEndian.PutUint64(lb[:], p.LogicalTimestamp)
	h.Write(lb[:])
	wb := make([]byte, 8)
	binary.BigEndian.PutUint64(wb, uint64(p.WallClock.UnixNano()))
	h.Write(wb)
	if p.PreviousHash != nil {
		h.Write(p.PreviousHash[:])
	}
	var sb [8]byte
	binary.BigEndian.PutUint64(sb[:], p.SequenceNumber)
	h.Write(sb[:])
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// ConsensusProof is the sealed tuple of the four proofs.
type ConsensusProof struct {
	Space        ProofOfSpace `json:"space"`
	Stake        ProofOfStake `json:"stake"`
	Work         ProofOfWork  `json:"work"`
	Time         ProofOfTime  `json:"time"`
	CombinedHash [32]byte     `json:"combined_hash"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ComputeCombinedHash recomputes H(space.h || stake.h || work.h || time.h
// || created_at).
func (c *ConsensusProof) ComputeCombinedHash() [32]byte {
	h := sha256.New()
	sh := c.Space.ComputeLocationHash()
	stH := c.Stake.ComputeOwnershipHash()
	wh := c.Work.ComputeComputationHash()
	th := c.Time.ComputeTemporalHash()
	h.Write(sh[:])
	h.Write(stH[:])
	h.Write(wh[:])
	h.Write(th[:])
	tb := make([]byte, 8)
	binary.BigEndian.PutUint64(tb, uint64(c.CreatedAt.UnixNano()))
	h.Write(tb)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Seal computes and stores the hashes needed for the proof to self-verify:
// each component's own hash field plus the combined hash. Useful for
// constructing a proof in tests or from freshly generated sub-proofs.
func (c *ConsensusProof) Seal() {
	c.Space.LocationHash = c.Space.ComputeLocationHash()
	c.Stake.OwnershipHash = c.Stake.ComputeOwnershipHash()
	c.Work.ComputationHash = c.Work.ComputeComputationHash()
	c.Time.TemporalHash = c.Time.ComputeTemporalHash()
	c.CombinedHash = c.ComputeCombinedHash()
}

// ConsensusRequirements are the policy knobs consumed by every Validator.
type ConsensusRequirements struct {
	MinStakeAuthority   uint64        `json:"min_stake_authority"`
	MaxTimeOffset       time.Duration `json:"max_time_offset"`
	MinSpaceBytes       uint64        `json:"min_space_bytes"`
	MinWorkDifficulty   uint32        `json:"min_work_difficulty"`
	ByzantineTolerance  float64       `json:"byzantine_tolerance"`
}

// DefaultRequirements returns conservative default policy knobs.
func DefaultRequirements() ConsensusRequirements {
	return ConsensusRequirements{
		MinStakeAuthority:  1,
		MaxTimeOffset:      time.Second,
		MinSpaceBytes:      1,
		MinWorkDifficulty:  8,
		ByzantineTolerance: 0.33,
	}
}

// OperationKind names the operation a ProofOfStake's permissions are
// checked against.
type OperationKind string

const (
	OpStore   OperationKind = "store"
	OpLoad    OperationKind = "load"
	OpCompute OperationKind = "compute"
)

// ProofRequirement describes what a Validator needs to accept a proof for
// a given operation kind.
type ProofRequirement struct {
	Operation   OperationKind
	Description string
}
