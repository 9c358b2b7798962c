package vkcore

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func memType(flags vk.MemoryPropertyFlags) vk.MemoryType {
	return vk.MemoryType{PropertyFlags: flags}
}

func TestMemoryTypePriority(t *testing.T) {
	if memoryTypePriority(MemoryAccessNone, memDeviceLocal) != 1 {
		t.Error("device-local should rank for no host access")
	}
	if memoryTypePriority(MemoryAccessNone, memHostVisible) != 0 {
		t.Error("host-visible should not rank for no host access")
	}

	// Host reads prefer cached coherent host memory over uncached.
	cached := memoryTypePriority(MemoryAccessReadOnly, memHostVisible|memHostCached|memHostCoherent)
	uncached := memoryTypePriority(MemoryAccessReadOnly, memHostVisible|memHostCoherent)
	if cached <= uncached {
		t.Errorf("read-only: cached %d should outrank uncached %d", cached, uncached)
	}

	// Host writes prefer device-local coherent memory.
	local := memoryTypePriority(MemoryAccessWriteOnly, memDeviceLocal|memHostVisible|memHostCoherent)
	remote := memoryTypePriority(MemoryAccessWriteOnly, memHostVisible|memHostCoherent)
	if local <= remote {
		t.Errorf("write-only: device-local %d should outrank host-only %d", local, remote)
	}

	// Unlisted combinations are unranked, not an error.
	if memoryTypePriority(MemoryAccessReadWrite, memDeviceLocal) != 0 {
		t.Error("device-local-only should be unranked for read-write")
	}
}

func TestRankMemoryTypes(t *testing.T) {
	types := []vk.MemoryType{
		memType(memDeviceLocal),
		memType(memHostVisible | memHostCoherent),
		memType(memDeviceLocal | memHostVisible | memHostCoherent),
		memType(memHostVisible | memHostCached | memHostCoherent),
	}

	order := rankMemoryTypes(MemoryAccessWriteOnly, types)
	if len(order) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(order))
	}
	// Highest priority for host writes is device-local host-coherent.
	if order[0] != 2 {
		t.Errorf("write-only: expected type 2 first, got %d", order[0])
	}

	order = rankMemoryTypes(MemoryAccessReadOnly, types)
	if order[0] != 3 {
		t.Errorf("read-only: expected type 3 first, got %d", order[0])
	}
}

func TestPickMemoryType(t *testing.T) {
	priorities := []uint32{2, 3, 1, 0}

	// The first priority whose bit is set wins.
	idx, ok := pickMemoryType(priorities, 1<<3|1<<1)
	if !ok || idx != 3 {
		t.Errorf("expected type 3, got %d ok=%v", idx, ok)
	}
	idx, ok = pickMemoryType(priorities, 1<<0|1<<1|1<<2|1<<3)
	if !ok || idx != 2 {
		t.Errorf("expected type 2, got %d ok=%v", idx, ok)
	}
	_, ok = pickMemoryType(priorities, 1<<7)
	if ok {
		t.Error("expected no match for out-of-range bit")
	}
	_, ok = pickMemoryType(priorities, 0)
	if ok {
		t.Error("expected no match for empty mask")
	}
}
