package vkcore

import (
	"log"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// BufferUsage is a set of roles a buffer may serve.
type BufferUsage uint32

const (
	BufferUsageStaging BufferUsage = 1 << iota
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
)

// vkFlags translates a usage set into native buffer usage flags. Every
// role keeps the buffer copy-capable in the direction the role permits.
func (u BufferUsage) vkFlags() vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if u&BufferUsageStaging != 0 {
		flags |= vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit
	}
	if u&BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit | vk.BufferUsageTransferDstBit
	}
	if u&BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorageBufferBit |
			vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit
	}
	if u&BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit | vk.BufferUsageTransferDstBit
	}
	if u&BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit | vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

// BufferConfig describes a buffer to be created.
type BufferConfig struct {
	Label      string
	Size       uint64
	HostAccess MemoryAccess
	Usage      BufferUsage
}

// Buffer owns a buffer handle and its dedicated device memory
// allocation.
type Buffer struct {
	Context        *Context
	Config         BufferConfig
	VKBuffer       vk.Buffer
	VKDeviceMemory vk.DeviceMemory
}

// CreateBuffer creates a buffer and binds it to freshly allocated device
// memory. The memory type is the highest-priority type for the
// configured host access whose bit is set in the buffer's requirement
// mask.
func (c *Context) CreateBuffer(cfg BufferConfig) (*Buffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(cfg.Size),
		Usage:       cfg.Usage.vkFlags(),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(c.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return nil, errors.Wrapf(err, "create buffer '%s'", cfg.Label)
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(c.VKDevice, buffer, &memoryRequirements)
	memoryRequirements.Deref()

	memory, err := c.allocateDedicated(memoryRequirements, cfg.HostAccess)
	if err != nil {
		vk.DestroyBuffer(c.VKDevice, buffer, nil)
		return nil, errors.Wrapf(err, "allocate for buffer '%s'", cfg.Label)
	}

	err = vk.Error(vk.BindBufferMemory(c.VKDevice, buffer, memory, 0))
	if err != nil {
		vk.FreeMemory(c.VKDevice, memory, nil)
		vk.DestroyBuffer(c.VKDevice, buffer, nil)
		return nil, errors.Wrapf(err, "bind buffer '%s'", cfg.Label)
	}

	log.Printf("created buffer '%s'", cfg.Label)
	return &Buffer{
		Context:        c,
		Config:         cfg,
		VKBuffer:       buffer,
		VKDeviceMemory: memory,
	}, nil
}

// allocateDedicated allocates device memory sized for one resource.
func (c *Context) allocateDedicated(requirements vk.MemoryRequirements, access MemoryAccess) (vk.DeviceMemory, error) {
	typeIndex, ok := pickMemoryType(c.memoryPriorities(access), requirements.MemoryTypeBits)
	if !ok {
		return vk.NullDeviceMemory, errors.Wrap(ErrUnsupported,
			"host access cannot be satisfied")
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: typeIndex,
	}

	var memory vk.DeviceMemory
	err := vk.Error(vk.AllocateMemory(c.VKDevice, &allocateInfo, nil, &memory))
	if err != nil {
		return vk.NullDeviceMemory, errors.Wrap(ErrExhausted, err.Error())
	}
	return memory, nil
}

// Destroy releases the buffer and its memory. Destroying a destroyed
// buffer is a no-op.
func (b *Buffer) Destroy() {
	if b.VKBuffer == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.Context.VKDevice, b.VKBuffer, nil)
	vk.FreeMemory(b.Context.VKDevice, b.VKDeviceMemory, nil)
	b.VKBuffer = vk.NullBuffer
	b.VKDeviceMemory = vk.NullDeviceMemory
	log.Printf("destroyed buffer '%s'", b.Config.Label)
}

// View returns a view spanning the whole buffer.
func (b *Buffer) View() BufferView {
	return BufferView{Buffer: b, Offset: 0, Size: b.Config.Size}
}

// ViewRange returns a view of size bytes starting at offset.
func (b *Buffer) ViewRange(offset, size uint64) BufferView {
	return BufferView{Buffer: b, Offset: offset, Size: size}
}

// BufferView is a non-owning (buffer, offset, size) triple.
type BufferView struct {
	Buffer *Buffer
	Offset uint64
	Size   uint64
}

// Map maps the viewed range into host address space. The caller must
// guarantee no concurrent device access.
func (v BufferView) Map() (unsafe.Pointer, error) {
	var ptr unsafe.Pointer
	err := vk.Error(vk.MapMemory(v.Buffer.Context.VKDevice, v.Buffer.VKDeviceMemory,
		vk.DeviceSize(v.Offset), vk.DeviceSize(v.Size), 0, &ptr))
	if err != nil {
		return nil, errors.Wrapf(err, "map buffer '%s'", v.Buffer.Config.Label)
	}
	return ptr, nil
}

// Unmap unmaps a previously mapped view.
func (v BufferView) Unmap() {
	vk.UnmapMemory(v.Buffer.Context.VKDevice, v.Buffer.VKDeviceMemory)
}

// CopyFromHost maps the view, copies data into it and unmaps.
func (v BufferView) CopyFromHost(data []byte) error {
	if uint64(len(data)) > v.Size {
		return errors.Wrapf(ErrInvalidArgument,
			"copy of %d bytes into view of %d bytes", len(data), v.Size)
	}
	ptr, err := v.Map()
	if err != nil {
		return err
	}
	copy(ToBytes(ptr, len(data)), data)
	v.Unmap()
	return nil
}

// CopyToHost maps the view, copies its contents out and unmaps.
func (v BufferView) CopyToHost(data []byte) error {
	if uint64(len(data)) > v.Size {
		return errors.Wrapf(ErrInvalidArgument,
			"copy of %d bytes out of view of %d bytes", len(data), v.Size)
	}
	ptr, err := v.Map()
	if err != nil {
		return err
	}
	copy(data, ToBytes(ptr, len(data)))
	v.Unmap()
	return nil
}
