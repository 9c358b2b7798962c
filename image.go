package vkcore

import (
	"log"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PixelFormat describes a color format by component count, integer width
// exponent (1 => 8-bit, 2 => 16-bit, 3 => 32-bit), signedness and
// floating-point flags.
type PixelFormat struct {
	CompCount int
	IntExp2   int
	Signed    bool
	Single    bool
	Half      bool
}

// VKFormat maps the descriptor to a concrete format. Half-precision
// formats are not supported; unrecognized descriptors are rejected.
func (f PixelFormat) VKFormat() (vk.Format, error) {
	if f.Half {
		return vk.FormatUndefined, errors.Wrap(ErrUnsupported,
			"half-precision pixel format")
	}
	if f.Single {
		switch f.CompCount {
		case 1:
			return vk.FormatR32Sfloat, nil
		case 2:
			return vk.FormatR32g32Sfloat, nil
		case 3:
			return vk.FormatR32g32b32Sfloat, nil
		case 4:
			return vk.FormatR32g32b32a32Sfloat, nil
		}
	} else if f.Signed {
		switch f.IntExp2 {
		case 1:
			switch f.CompCount {
			case 1:
				return vk.FormatR8Snorm, nil
			case 2:
				return vk.FormatR8g8Snorm, nil
			case 3:
				return vk.FormatR8g8b8Snorm, nil
			case 4:
				return vk.FormatR8g8b8a8Snorm, nil
			}
		case 2:
			switch f.CompCount {
			case 1:
				return vk.FormatR16Sint, nil
			case 2:
				return vk.FormatR16g16Sint, nil
			case 3:
				return vk.FormatR16g16b16Sint, nil
			case 4:
				return vk.FormatR16g16b16a16Sint, nil
			}
		case 3:
			switch f.CompCount {
			case 1:
				return vk.FormatR32Sint, nil
			case 2:
				return vk.FormatR32g32Sint, nil
			case 3:
				return vk.FormatR32g32b32Sint, nil
			case 4:
				return vk.FormatR32g32b32a32Sint, nil
			}
		}
	} else {
		switch f.IntExp2 {
		case 1:
			switch f.CompCount {
			case 1:
				return vk.FormatR8Unorm, nil
			case 2:
				return vk.FormatR8g8Unorm, nil
			case 3:
				return vk.FormatR8g8b8Unorm, nil
			case 4:
				return vk.FormatR8g8b8a8Unorm, nil
			}
		case 2:
			switch f.CompCount {
			case 1:
				return vk.FormatR16Uint, nil
			case 2:
				return vk.FormatR16g16Uint, nil
			case 3:
				return vk.FormatR16g16b16Uint, nil
			case 4:
				return vk.FormatR16g16b16a16Uint, nil
			}
		case 3:
			switch f.CompCount {
			case 1:
				return vk.FormatR32Uint, nil
			case 2:
				return vk.FormatR32g32Uint, nil
			case 3:
				return vk.FormatR32g32b32Uint, nil
			case 4:
				return vk.FormatR32g32b32a32Uint, nil
			}
		}
	}
	return vk.FormatUndefined, errors.Wrap(ErrInvalidArgument,
		"unrecognized pixel format")
}

// Size returns the byte size of one pixel.
func (f PixelFormat) Size() int {
	if f.Single {
		return 4 * f.CompCount
	}
	return f.CompCount << uint(f.IntExp2-1)
}

// ImageUsage is a set of roles an image may serve. Staging is exclusive
// with all other usages.
type ImageUsage uint32

const (
	ImageUsageNone       ImageUsage = 0
	ImageUsageSampled    ImageUsage = 1
	ImageUsageStorage    ImageUsage = 2
	ImageUsageAttachment ImageUsage = 4
	ImageUsagePresent    ImageUsage = 8
	ImageUsageStaging    ImageUsage = 16
)

// ImageConfig describes an image to be created.
type ImageConfig struct {
	Label      string
	Width      uint32
	Height     uint32
	Format     PixelFormat
	HostAccess MemoryAccess
	Usage      ImageUsage
}

// Image owns an image handle, its dedicated device memory and, for
// non-staging images, a 2D color-aspect view.
type Image struct {
	Context        *Context
	Config         ImageConfig
	VKImage        vk.Image
	VKDeviceMemory vk.DeviceMemory
	VKImageView    vk.ImageView
	VKFormat       vk.Format
	IsStaging      bool
}

// CreateImage creates an image and binds it to freshly allocated device
// memory. Staging images are linearly tiled, preinitialized and carry no
// view; all other images are optimally tiled and start undefined.
func (c *Context) CreateImage(cfg ImageConfig) (*Image, error) {
	format, err := cfg.Format.VKFormat()
	if err != nil {
		return nil, errors.Wrapf(err, "create image '%s'", cfg.Label)
	}

	var usage vk.ImageUsageFlagBits
	isStaging := false
	if cfg.Usage&ImageUsageSampled != 0 {
		usage |= vk.ImageUsageSampledBit | vk.ImageUsageTransferDstBit
	}
	if cfg.Usage&ImageUsageStorage != 0 {
		usage |= vk.ImageUsageStorageBit |
			vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
	}
	if cfg.Usage&ImageUsageAttachment != 0 {
		usage |= vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit |
			vk.ImageUsageSampledBit | vk.ImageUsageColorAttachmentBit |
			vk.ImageUsageInputAttachmentBit
	}
	if cfg.Usage&ImageUsageStaging != 0 {
		if cfg.Usage != ImageUsageStaging {
			return nil, errors.Wrapf(ErrInvalidArgument,
				"staging image '%s' can only be used for transfer", cfg.Label)
		}
		usage |= vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
		isStaging = true
	}

	tiling := vk.ImageTilingOptimal
	initialLayout := vk.ImageLayoutUndefined
	if isStaging {
		tiling = vk.ImageTilingLinear
		initialLayout = vk.ImageLayoutPreinitialized
	}

	err = c.PhysicalDevice.SupportsImageFormat(format, tiling, vk.ImageUsageFlags(usage))
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupported,
			"image format for '%s': %v", cfg.Label, err)
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  cfg.Width,
			Height: cfg.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        tiling,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: initialLayout,
	}

	var image vk.Image
	err = vk.Error(vk.CreateImage(c.VKDevice, &imageCreateInfo, nil, &image))
	if err != nil {
		return nil, errors.Wrapf(err, "create image '%s'", cfg.Label)
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(c.VKDevice, image, &memoryRequirements)
	memoryRequirements.Deref()

	memory, err := c.allocateDedicated(memoryRequirements, cfg.HostAccess)
	if err != nil {
		vk.DestroyImage(c.VKDevice, image, nil)
		return nil, errors.Wrapf(err, "allocate for image '%s'", cfg.Label)
	}

	err = vk.Error(vk.BindImageMemory(c.VKDevice, image, memory, 0))
	if err != nil {
		vk.FreeMemory(c.VKDevice, memory, nil)
		vk.DestroyImage(c.VKDevice, image, nil)
		return nil, errors.Wrapf(err, "bind image '%s'", cfg.Label)
	}

	imageView := vk.NullImageView
	if !isStaging {
		imageViewCreateInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		err = vk.Error(vk.CreateImageView(c.VKDevice, &imageViewCreateInfo, nil, &imageView))
		if err != nil {
			vk.FreeMemory(c.VKDevice, memory, nil)
			vk.DestroyImage(c.VKDevice, image, nil)
			return nil, errors.Wrapf(err, "create view for image '%s'", cfg.Label)
		}
	}

	log.Printf("created image '%s'", cfg.Label)
	return &Image{
		Context:        c,
		Config:         cfg,
		VKImage:        image,
		VKDeviceMemory: memory,
		VKImageView:    imageView,
		VKFormat:       format,
		IsStaging:      isStaging,
	}, nil
}

// Destroy releases the image, its view and its memory. Destroying a
// destroyed image is a no-op.
func (i *Image) Destroy() {
	if i.VKImage == vk.NullImage {
		return
	}
	if i.VKImageView != vk.NullImageView {
		vk.DestroyImageView(i.Context.VKDevice, i.VKImageView, nil)
	}
	vk.DestroyImage(i.Context.VKDevice, i.VKImage, nil)
	vk.FreeMemory(i.Context.VKDevice, i.VKDeviceMemory, nil)
	i.VKImage = vk.NullImage
	i.VKImageView = vk.NullImageView
	i.VKDeviceMemory = vk.NullDeviceMemory
	log.Printf("destroyed image '%s'", i.Config.Label)
}

// View returns a view spanning the whole image.
func (i *Image) View() ImageView {
	return ImageView{Image: i, Width: i.Config.Width, Height: i.Config.Height}
}

// ViewRegion returns a view of the (w, h) region at offset (x, y).
func (i *Image) ViewRegion(x, y, w, h uint32) ImageView {
	return ImageView{Image: i, XOffset: x, YOffset: y, Width: w, Height: h}
}

// Map maps the whole color subresource of a staging image and returns
// the mapped pointer plus the row pitch in bytes. The caller must
// guarantee no concurrent device access.
func (i *Image) Map() (unsafe.Pointer, uint64, error) {
	if !i.IsStaging {
		return nil, 0, errors.Wrapf(ErrInvalidArgument,
			"image '%s' is not host-mappable", i.Config.Label)
	}

	subresource := vk.ImageSubresource{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		MipLevel:   0,
		ArrayLayer: 0,
	}
	var layout vk.SubresourceLayout
	vk.GetImageSubresourceLayout(i.Context.VKDevice, i.VKImage, &subresource, &layout)
	layout.Deref()

	var ptr unsafe.Pointer
	err := vk.Error(vk.MapMemory(i.Context.VKDevice, i.VKDeviceMemory,
		layout.Offset, layout.Size, 0, &ptr))
	if err != nil {
		return nil, 0, errors.Wrapf(err, "map image '%s'", i.Config.Label)
	}
	return ptr, uint64(layout.RowPitch), nil
}

// Unmap unmaps a previously mapped staging image.
func (i *Image) Unmap() {
	vk.UnmapMemory(i.Context.VKDevice, i.VKDeviceMemory)
}

// ImageView is a non-owning (image, offset, extent) region.
type ImageView struct {
	Image   *Image
	XOffset uint32
	YOffset uint32
	Width   uint32
	Height  uint32
}
