package vkcore

import (
	"log"
	"math/bits"
	"sort"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SubmitType is a coarse partition of device work used to select a queue
// family.
type SubmitType int

const (
	SubmitTypeAny SubmitType = iota
	SubmitTypeCompute
	SubmitTypeGraphics
)

func (t SubmitType) String() string {
	switch t {
	case SubmitTypeAny:
		return "any"
	case SubmitTypeCompute:
		return "compute"
	case SubmitTypeGraphics:
		return "graphics"
	}
	return "unknown"
}

// ContextConfig selects the physical device a Context binds to.
type ContextConfig struct {
	DeviceIndex int
	Label       string
}

// ContextSubmitDetail is the queue a submit type resolves to.
type ContextSubmitDetail struct {
	QueueFamilyIndex uint32
	VKQueue          vk.Queue
}

// Context exclusively owns a logical device, one queue per distinct queue
// family serving a supported submit type, the per-host-access
// memory-type priority tables and a default
// linear sampler used as the immutable sampler of sampled-image bindings.
type Context struct {
	Config         ContextConfig
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
	VKSampler      vk.Sampler

	submitDetails     map[SubmitType]*ContextSubmitDetail
	memTypePriorities [4][]uint32
	nsPerTick         float64
	timestampValid    bool
}

type queueFamilyTrait struct {
	familyIndex uint32
	queueFlags  vk.QueueFlags
}

// CreateContext creates a Context on the configured physical device,
// initializing the instance first when needed.
//
// Queue families are bucketed by the popcount of their capability bits
// and each submit type takes the first satisfying family searching from
// the fullest bucket down. A submit type with no satisfying family is
// left unresolved; only commands needing it will fail.
func CreateContext(cfg ContextConfig) (*Context, error) {
	if vkInstance == nil {
		if err := Initialize(); err != nil {
			return nil, err
		}
	}
	if cfg.DeviceIndex < 0 || cfg.DeviceIndex >= len(physicalDevices) {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"wanted vulkan device does not exist (#%d of %d available devices)",
			cfg.DeviceIndex, len(physicalDevices))
	}
	physDev := physicalDevices[cfg.DeviceIndex]

	nsPerTick, timestampValid := physDev.TimestampPeriodNs()
	if !timestampValid {
		log.Printf("WARNING: context '%s' device does not support timestamps, "+
			"write-timestamp commands won't be available", cfg.Label)
	}

	families := physDev.QueueFamilies()
	if len(families) == 0 {
		return nil, errors.Wrapf(ErrUnsupported,
			"cannot find any queue family on device #%d", cfg.DeviceIndex)
	}

	buckets := make(map[int][]queueFamilyTrait)
	popcounts := make([]int, 0)
	for i, family := range families {
		if family.QueueCount == 0 {
			log.Printf("WARNING: ignored queue family #%d with zero queue count", i)
			continue
		}
		n := bits.OnesCount32(uint32(family.QueueFlags))
		if _, ok := buckets[n]; !ok {
			popcounts = append(popcounts, n)
		}
		buckets[n] = append(buckets[n], queueFamilyTrait{
			familyIndex: uint32(i),
			queueFlags:  family.QueueFlags,
		})
	}
	sort.Sort(sort.Reverse(sort.IntSlice(popcounts)))

	requirements := []struct {
		submitType SubmitType
		queueFlags vk.QueueFlags
		commands   string
	}{
		{SubmitTypeGraphics, vk.QueueFlags(vk.QueueGraphicsBit), "DRAW, DRAW_INDEXED"},
		{SubmitTypeCompute, vk.QueueFlags(vk.QueueComputeBit), "DISPATCH"},
	}

	chosen := make(map[SubmitType]uint32)
	for _, req := range requirements {
		familyIndex := uint32(vk.QueueFamilyIgnored)
	search:
		for _, n := range popcounts {
			for _, trait := range buckets[n] {
				if trait.queueFlags&req.queueFlags == req.queueFlags {
					familyIndex = trait.familyIndex
					break search
				}
			}
		}
		if familyIndex == uint32(vk.QueueFamilyIgnored) {
			log.Printf("WARNING: cannot find a suitable queue family for %s, "+
				"the following commands won't be available: %s",
				req.submitType, req.commands)
			continue
		}
		chosen[req.submitType] = familyIndex
	}

	// One queue per distinct family; submit types may share a queue.
	distinctFamilies := make([]uint32, 0, len(chosen))
	for _, familyIndex := range chosen {
		seen := false
		for _, f := range distinctFamilies {
			if f == familyIndex {
				seen = true
				break
			}
		}
		if !seen {
			distinctFamilies = append(distinctFamilies, familyIndex)
		}
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(distinctFamilies))
	for i, familyIndex := range distinctFamilies {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: familyIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions, err := physDev.SupportedExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}
	extensions = safeStrings(extensions)

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{physDev.Features()},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var device vk.Device
	err = vk.Error(vk.CreateDevice(physDev.VKPhysicalDevice, &deviceCreateInfo, nil, &device))
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}

	submitDetails := make(map[SubmitType]*ContextSubmitDetail)
	for submitType, familyIndex := range chosen {
		var queue vk.Queue
		vk.GetDeviceQueue(device, familyIndex, 0, &queue)
		submitDetails[submitType] = &ContextSubmitDetail{
			QueueFamilyIndex: familyIndex,
			VKQueue:          queue,
		}
	}

	memTypes := physDev.MemoryTypes()
	var memTypePriorities [4][]uint32
	for access := MemoryAccessNone; access <= MemoryAccessReadWrite; access++ {
		memTypePriorities[access] = rankMemoryTypes(access, memTypes)
	}

	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		UnnormalizedCoordinates: vk.False,
	}
	var sampler vk.Sampler
	err = vk.Error(vk.CreateSampler(device, &samplerCreateInfo, nil, &sampler))
	if err != nil {
		vk.DestroyDevice(device, nil)
		return nil, errors.Wrap(err, "create sampler")
	}

	log.Printf("created vulkan context '%s' on device #%d: %s",
		cfg.Label, cfg.DeviceIndex, DescribeDevice(cfg.DeviceIndex))
	return &Context{
		Config:            cfg,
		PhysicalDevice:    physDev,
		VKDevice:          device,
		VKSampler:         sampler,
		submitDetails:     submitDetails,
		memTypePriorities: memTypePriorities,
		nsPerTick:         nsPerTick,
		timestampValid:    timestampValid,
	}, nil
}

// Destroy releases the logical device. Destroying a destroyed Context is
// a no-op. All resources created from the Context must be destroyed
// first.
func (c *Context) Destroy() {
	if c.VKDevice == nil {
		return
	}
	vk.DestroySampler(c.VKDevice, c.VKSampler, nil)
	vk.DestroyDevice(c.VKDevice, nil)
	c.VKDevice = nil
	log.Printf("destroyed vulkan context '%s'", c.Config.Label)
}

// WaitIdle blocks until the device finishes all outstanding work.
func (c *Context) WaitIdle() {
	vk.DeviceWaitIdle(c.VKDevice)
}

// SupportsSubmitType reports whether the device resolved a queue family
// for the given submit type.
func (c *Context) SupportsSubmitType(submitType SubmitType) bool {
	_, ok := c.submitDetails[submitType]
	return ok
}

func (c *Context) submitDetail(submitType SubmitType) (*ContextSubmitDetail, error) {
	detail, ok := c.submitDetails[submitType]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported,
			"no %s queue on device #%d", submitType, c.Config.DeviceIndex)
	}
	return detail, nil
}

func (c *Context) memoryPriorities(access MemoryAccess) []uint32 {
	return c.memTypePriorities[access&3]
}
