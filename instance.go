package vkcore

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Process-wide instance state. Initialized lazily by CreateContext or
// explicitly by Initialize; torn down by Finalize.
var (
	vkInstance          vk.Instance
	physicalDevices     []*PhysicalDevice
	physicalDeviceDescs []string
	validationWanted    bool
)

// EnableValidation opts into the Khronos validation layer on the next
// Initialize, when the layer is present on the system. Must be called
// before the instance is created.
func EnableValidation() {
	validationWanted = true
}

// SupportedLayers returns a list of instance layers supported by the
// installed Vulkan runtime.
func SupportedLayers() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil))
	if err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, count)
	err = vk.Error(vk.EnumerateInstanceLayerProperties(&count, layers))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range layers {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// SupportedExtensions returns a list of instance extensions supported by
// the installed Vulkan runtime.
func SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil))
	if err != nil {
		return nil, err
	}
	exts := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, exts))
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

// Initialize creates the process-wide Vulkan instance and enumerates
// physical devices. Redundant initialization is a no-op with a warning.
// All supported instance extensions are enabled; the validation layer is
// enabled when requested via EnableValidation and present.
func Initialize() error {
	if vkInstance != nil {
		log.Printf("WARNING: ignored redundant vulkan initialization")
		return nil
	}

	err := vk.SetDefaultGetInstanceProcAddr()
	if err != nil {
		return errors.Wrap(err, "load vulkan loader")
	}
	err = vk.Init()
	if err != nil {
		return errors.Wrap(err, "init vulkan")
	}

	extensions, err := SupportedExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	layers := make([]string, 0)
	if validationWanted {
		supported, err := SupportedLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}
		for _, layer := range supported {
			if layer == "VK_LAYER_KHRONOS_validation" {
				layers = append(layers, layer)
				log.Printf("vulkan validation layer is enabled")
			}
		}
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(0, 1, 0),
		PApplicationName:   safeString("vkcore"),
		PEngineName:        safeString("vkcore"),
	}

	extensions = safeStrings(extensions)
	layers = safeStrings(layers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	err = vk.Error(vk.CreateInstance(&createInfo, nil, &instance))
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	vk.InitInstance(instance)
	vkInstance = instance

	if err := enumeratePhysicalDevices(); err != nil {
		vk.DestroyInstance(vkInstance, nil)
		vkInstance = nil
		return err
	}

	log.Printf("vulkan backend initialized")
	return nil
}

// Finalize destroys the process-wide instance. Contexts must be
// destroyed first. Finalizing an uninitialized module is a no-op.
func Finalize() {
	if vkInstance == nil {
		return
	}
	vk.DestroyInstance(vkInstance, nil)
	vkInstance = nil
	physicalDevices = nil
	physicalDeviceDescs = nil
}

func enumeratePhysicalDevices() error {
	var count uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(vkInstance, &count, nil))
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}
	devices := make([]vk.PhysicalDevice, count)
	err = vk.Error(vk.EnumeratePhysicalDevices(vkInstance, &count, devices))
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	physicalDevices = make([]*PhysicalDevice, count)
	physicalDeviceDescs = make([]string, count)
	for i, device := range devices {
		p := &PhysicalDevice{VKPhysicalDevice: device}
		vk.GetPhysicalDeviceProperties(device, &p.VKPhysicalDeviceProperties)
		p.VKPhysicalDeviceProperties.Deref()
		p.DeviceName = vk.ToString(p.VKPhysicalDeviceProperties.DeviceName[:])

		var devType string
		switch p.VKPhysicalDeviceProperties.DeviceType {
		case vk.PhysicalDeviceTypeOther:
			devType = "Other"
		case vk.PhysicalDeviceTypeIntegratedGpu:
			devType = "Integrated GPU"
		case vk.PhysicalDeviceTypeDiscreteGpu:
			devType = "Discrete GPU"
		case vk.PhysicalDeviceTypeVirtualGpu:
			devType = "Virtual GPU"
		case vk.PhysicalDeviceTypeCpu:
			devType = "CPU"
		default:
			devType = "Unknown"
		}
		apiVersion := p.VKPhysicalDeviceProperties.ApiVersion
		physicalDevices[i] = p
		physicalDeviceDescs[i] = fmt.Sprintf("%s (%s, %d.%d)", p.DeviceName,
			devType, apiVersion>>22, (apiVersion>>12)&0x3ff)
	}
	return nil
}

// PhysicalDeviceCount reports the number of devices enumerated by
// Initialize.
func PhysicalDeviceCount() int {
	return len(physicalDevices)
}

// DescribeDevice returns the human-readable description of the idx-th
// physical device, or an empty string when idx is out of range.
func DescribeDevice(idx int) string {
	if idx < 0 || idx >= len(physicalDeviceDescs) {
		return ""
	}
	return physicalDeviceDescs[idx]
}
