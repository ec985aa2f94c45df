// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package pq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("validate-certificate-request:req-001")
	signer := HybridSigner{}
	sig, err := signer.Sign(msg, kp)
	require.NoError(t, err)
	require.True(t, signer.Verify(msg, sig, kp.Ed25519Public))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	signer := HybridSigner{}

	sig, err := signer.Sign([]byte("original"), kp)
	require.NoError(t, err)
	require.False(t, signer.Verify([]byte("tampered"), sig, kp.Ed25519Public))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp1, err := GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := GenerateKeyPair()
	require.NoError(t, err)
	signer := HybridSigner{}

	msg := []byte("payload")
	sig, err := signer.Sign(msg, kp1)
	require.NoError(t, err)
	require.False(t, signer.Verify(msg, sig, kp2.Ed25519Public))
}
