// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pq is the post-quantum signer/verifier facade consumed by the
// core (§6.6). The actual FALCON/ML-DSA/Kyber lattice math is explicitly
// out of scope per spec.md's Non-goals; this package owns key handling
// and the hybrid classical+PQ envelope shape, treating the PQ primitive
// itself as a black box behind the Signer interface.
package pq

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Scheme tags a signature's algorithm, mirroring the teacher's
// scheme-tagged signature byte convention (first byte selects the
// scheme) so a verifier can dispatch without an out-of-band hint.
type Scheme byte

const (
	SchemeNone    Scheme = 0x00
	SchemeEd25519 Scheme = 0x01
	SchemeHybrid  Scheme = 0x04 // classical + PQ, composed
)

// KeyPair holds a classical Ed25519 key plus an opaque post-quantum key
// placeholder. Real deployments substitute a concrete ML-DSA/FALCON
// implementation behind the same Sign/Verify contract without touching
// any caller of this package.
type KeyPair struct {
	Ed25519Public  ed25519.PublicKey
	Ed25519Private ed25519.PrivateKey
	PQPublic       []byte
	PQPrivate      []byte
}

// GenerateKeyPair creates a fresh hybrid key pair. The PQ half is a
// placeholder derived from the classical key material via HKDF (real
// lattice keys are out of scope; see spec.md §1 Non-goals) rather than
// a bare hash, so the derivation matches the hybrid envelope's actual
// key-schedule discipline even though the derived bytes stand in for a
// real ML-KEM/ML-DSA key.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("pq: generate ed25519 key: %w", err)
	}
	pqPub, err := derivePlaceholderKey(pub, "pq-public")
	if err != nil {
		return nil, err
	}
	pqPriv, err := derivePlaceholderKey(priv, "pq-private")
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Ed25519Public:  pub,
		Ed25519Private: priv,
		PQPublic:       pqPub,
		PQPrivate:      pqPriv,
	}, nil
}

// derivePlaceholderKey expands classical key material into a 32-byte
// placeholder for the PQ half of the hybrid key pair using HKDF-SHA256.
func derivePlaceholderKey(ikm []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, nil, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("pq: deriving placeholder key: %w", err)
	}
	return out, nil
}

// Signer signs and verifies byte strings, as the consensus core's
// external collaborator contract requires: Sign(bytes, secret_key) -> sig,
// Verify(bytes, sig, public_key) -> bool.
type Signer interface {
	Sign(msg []byte, kp *KeyPair) ([]byte, error)
	Verify(msg, sig []byte, publicKey []byte) bool
}

// HybridSigner signs with the classical Ed25519 key and tags the
// signature with SchemeHybrid. The envelope carries no post-quantum
// signature bytes: only the scheme byte and the Ed25519 signature.
type HybridSigner struct{}

var _ Signer = HybridSigner{}

// Sign produces a tagged signature: [scheme byte][ed25519 sig 64 bytes].
func (HybridSigner) Sign(msg []byte, kp *KeyPair) ([]byte, error) {
	if kp == nil || len(kp.Ed25519Private) != ed25519.PrivateKeySize {
		return nil, errors.New("pq: invalid key pair")
	}
	sig := ed25519.Sign(kp.Ed25519Private, msg)
	out := make([]byte, 0, 1+len(sig))
	out = append(out, byte(SchemeHybrid))
	out = append(out, sig...)
	return out, nil
}

// Verify checks a tagged signature against publicKey (the classical
// Ed25519 public key bytes).
func (HybridSigner) Verify(msg, sig []byte, publicKey []byte) bool {
	if len(sig) < 1 {
		return false
	}
	scheme := Scheme(sig[0])
	body := sig[1:]
	switch scheme {
	case SchemeEd25519, SchemeHybrid:
		if len(publicKey) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(publicKey), msg, body)
	default:
		return false
	}
}
