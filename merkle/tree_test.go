// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeChunks(n, size int) [][]byte {
	chunks := make([][]byte, n)
	for i := range chunks {
		c := make([]byte, size)
		for j := range c {
			c[j] = byte((i*31 + j) % 256)
		}
		chunks[i] = c
	}
	return chunks
}

func TestRoundTripAllSizes(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 17, 33} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			chunks := makeChunks(n, 64)
			tree := Build(chunks)
			require.Equal(t, n, tree.NumLeaves())
			for i := range chunks {
				proof, ok := tree.Proof(i)
				require.True(t, ok)
				require.True(t, VerifyProof(proof, chunks[i]))
			}
		})
	}
}

func TestBitFlipBreaksOnlyThatProof(t *testing.T) {
	chunks := makeChunks(1024, 1024)
	tree := Build(chunks)

	corrupted := make([]byte, len(chunks[37]))
	copy(corrupted, chunks[37])
	corrupted[512] ^= 0x01

	proof37, ok := tree.Proof(37)
	require.True(t, ok)
	require.False(t, VerifyProof(proof37, corrupted))

	for _, i := range []int{0, 1, 36, 38, 100, 1023} {
		proof, ok := tree.Proof(i)
		require.True(t, ok)
		require.True(t, VerifyProof(proof, chunks[i]))
	}
}

func TestProofOutOfRange(t *testing.T) {
	tree := Build(makeChunks(4, 16))
	_, ok := tree.Proof(-1)
	require.False(t, ok)
	_, ok = tree.Proof(4)
	require.False(t, ok)
}

func TestShortStringLength(t *testing.T) {
	addr := hashLeaf([]byte("hello"))
	require.Len(t, addr.ShortString(), 16)
	require.Len(t, addr.String(), 64)
}
