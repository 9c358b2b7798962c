package vkcore

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// MemoryAccess describes an intended traffic pattern against a resource,
// either from the host (resource creation) or from the device (barriers).
type MemoryAccess uint32

const (
	MemoryAccessNone      MemoryAccess = 0
	MemoryAccessReadOnly  MemoryAccess = 1
	MemoryAccessWriteOnly MemoryAccess = 2
	MemoryAccessReadWrite MemoryAccess = 3
)

func (a MemoryAccess) String() string {
	switch a {
	case MemoryAccessNone:
		return "none"
	case MemoryAccessReadOnly:
		return "read-only"
	case MemoryAccessWriteOnly:
		return "write-only"
	case MemoryAccessReadWrite:
		return "read-write"
	}
	return "unknown"
}

const (
	memDeviceLocal  = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	memHostVisible  = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	memHostCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	memHostCached   = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit)
)

// Exact-match property combinations in descending preference, one table
// per host-access mode. Host reads favor cached memory; host writes
// favor device-local coherent memory so uploads land near the device.
var memPriorityReadOnly = []vk.MemoryPropertyFlags{
	memHostVisible | memHostCached | memHostCoherent,
	memHostVisible | memHostCached,
	memHostVisible | memHostCoherent,
	memDeviceLocal | memHostVisible | memHostCoherent,
	memDeviceLocal | memHostVisible | memHostCached,
	memDeviceLocal | memHostVisible | memHostCached | memHostCoherent,
}

var memPriorityWriteOnly = []vk.MemoryPropertyFlags{
	memDeviceLocal | memHostVisible | memHostCoherent,
	memDeviceLocal | memHostVisible | memHostCached | memHostCoherent,
	memDeviceLocal | memHostVisible | memHostCached,
	memHostVisible | memHostCoherent,
	memHostVisible | memHostCached | memHostCoherent,
	memHostVisible | memHostCached,
}

var memPriorityReadWrite = []vk.MemoryPropertyFlags{
	memDeviceLocal | memHostVisible | memHostCached | memHostCoherent,
	memDeviceLocal | memHostVisible | memHostCoherent,
	memDeviceLocal | memHostVisible | memHostCached,
	memHostVisible | memHostCoherent,
	memHostVisible | memHostCached | memHostCoherent,
	memHostVisible | memHostCached,
}

// memoryTypePriority scores a memory type for a host-access mode. Higher
// is better; zero means unranked.
func memoryTypePriority(access MemoryAccess, props vk.MemoryPropertyFlags) uint32 {
	var lut []vk.MemoryPropertyFlags
	switch access {
	case MemoryAccessNone:
		if props&memDeviceLocal != 0 {
			return 1
		}
		return 0
	case MemoryAccessReadOnly:
		lut = memPriorityReadOnly
	case MemoryAccessWriteOnly:
		lut = memPriorityWriteOnly
	case MemoryAccessReadWrite:
		lut = memPriorityReadWrite
	default:
		panic("unexpected host access pattern")
	}
	for i, flags := range lut {
		if props == flags {
			return uint32(len(lut) - i)
		}
	}
	return 0
}

// rankMemoryTypes orders the device's memory-type indices by descending
// priority for the given host-access mode. Ties keep type-index order.
func rankMemoryTypes(access MemoryAccess, types []vk.MemoryType) []uint32 {
	idxs := make([]uint32, len(types))
	priors := make([]uint32, len(types))
	for i := range types {
		idxs[i] = uint32(i)
		priors[i] = memoryTypePriority(access, vk.MemoryPropertyFlags(types[i].PropertyFlags))
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return priors[idxs[a]] > priors[idxs[b]]
	})
	return idxs
}

// pickMemoryType selects the first index in the priority list whose bit
// is set in the requirement mask.
func pickMemoryType(priorities []uint32, memoryTypeBits uint32) (uint32, bool) {
	for _, idx := range priorities {
		if memoryTypeBits&(1<<idx) != 0 {
			return idx, true
		}
	}
	return 0, false
}
