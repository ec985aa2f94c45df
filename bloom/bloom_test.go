// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterNoFalseNegatives(t *testing.T) {
	f := NewFilter(1<<16, 5)
	keys := make([][]byte, 200)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%d", i))
		f.Add(keys[i])
	}
	for _, k := range keys {
		require.True(t, f.MightContain(k))
	}
}

func TestBankSurvivesKMinusOneRotations(t *testing.T) {
	k := 4
	bank := NewBank(k, 1<<14, 4)
	key := []byte("hot-flow-key")
	bank.Add(key)

	for i := 0; i < k-1; i++ {
		require.True(t, bank.MightContain(key), "key should survive rotation %d", i)
		bank.Rotate()
	}
}

func TestBankMayForgetAfterKRotations(t *testing.T) {
	k := 3
	bank := NewBank(k, 1<<10, 3)
	key := []byte("ephemeral-key")
	bank.Add(key)

	for i := 0; i < k; i++ {
		bank.Rotate()
	}
	// After K rotations with no re-insert, every filter in the ring has
	// been zeroed at least once since the insert, so membership is gone.
	require.False(t, bank.MightContain(key))
}

func TestRotateClearsBeforeBecomingCurrent(t *testing.T) {
	bank := NewBank(2, 1<<10, 3)
	bank.Add([]byte("a"))
	bank.Rotate()
	// The newly current filter must start empty: keys inserted only into
	// the previous filter must not leak into the new current filter's bits.
	bank.Add([]byte("b"))
	require.True(t, bank.MightContain([]byte("a")))
	require.True(t, bank.MightContain([]byte("b")))
	bank.Rotate() // now "a"'s original filter becomes current again -> zeroed
	require.False(t, bank.MightContain([]byte("a")))
	require.True(t, bank.MightContain([]byte("b")))
}
