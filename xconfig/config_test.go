// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package xconfig

import (
	"testing"
)

func TestPresetsProduceDistinctCapacities(t *testing.T) {
	prod, err := NewBuilder().FromPreset(Production).Build()
	if err != nil {
		t.Fatalf("production preset: %v", err)
	}
	local, err := NewBuilder().FromPreset(Local).Build()
	if err != nil {
		t.Fatalf("local preset: %v", err)
	}
	if prod.TableCapacity == local.TableCapacity {
		t.Errorf("expected production and local table capacities to differ, both = %d", prod.TableCapacity)
	}
	if local.TableCapacity != 1<<10 {
		t.Errorf("local.TableCapacity = %d, want %d", local.TableCapacity, 1<<10)
	}
}

func TestWithOverridesApplyAfterPreset(t *testing.T) {
	cfg, err := NewBuilder().FromPreset(Staging).WithReplicationFactor(5).WithL3Dir("/tmp/x").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.ReplicationFactor != 5 {
		t.Errorf("ReplicationFactor = %d, want 5", cfg.ReplicationFactor)
	}
	if cfg.L3Dir != "/tmp/x" {
		t.Errorf("L3Dir = %q, want /tmp/x", cfg.L3Dir)
	}
}

func TestUnknownPresetIsAnError(t *testing.T) {
	_, err := NewBuilder().FromPreset(Preset("bogus")).Build()
	if err == nil {
		t.Fatal("expected an error for an unknown preset")
	}
}

func TestBuildReturnsACopyNotASharedPointer(t *testing.T) {
	b := NewBuilder()
	first, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	first.TableCapacity = 42
	second, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if second.TableCapacity == 42 {
		t.Error("mutating a built Config leaked back into the builder's internal state")
	}
}
