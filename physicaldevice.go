package vkcore

import (
	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDevice is an enumerated hardware device.
type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

// QueueFamilies returns the dereferenced queue family properties of this
// device, in family-index order.
func (p *PhysicalDevice) QueueFamilies() []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil
	}
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, families)
	for i := range families {
		families[i].Deref()
	}
	return families
}

// MemoryTypes returns the dereferenced memory types of this device, in
// type-index order.
func (p *PhysicalDevice) MemoryTypes() []vk.MemoryType {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &props)
	props.Deref()

	types := make([]vk.MemoryType, 0, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		mt := props.MemoryTypes[i]
		mt.Deref()
		types = append(types, mt)
	}
	return types
}

// Features returns the feature set reported by this device.
func (p *PhysicalDevice) Features() vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &features)
	return features
}

// SupportedExtensions returns the device extension names supported by
// this device.
func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}
	exts := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, exts))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range exts {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// SupportsImageFormat returns nil when the device can create a 2D image
// with the given format, tiling and usage.
func (p *PhysicalDevice) SupportsImageFormat(format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags) error {
	var props vk.ImageFormatProperties
	return vk.Error(vk.GetPhysicalDeviceImageFormatProperties(p.VKPhysicalDevice,
		format, vk.ImageType2d, tiling, usage, 0, &props))
}

// TimestampPeriodNs returns the duration of one timestamp tick in
// nanoseconds, and whether timestamps are supported on all graphics and
// compute queues.
func (p *PhysicalDevice) TimestampPeriodNs() (float64, bool) {
	limits := p.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	return float64(limits.TimestampPeriod),
		limits.TimestampComputeAndGraphics == vk.True
}
