package vkcore

import (
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ResourcePool holds the single descriptor set of one Task and binds
// concrete buffer and image views into it. A pool built from a Task with
// no bindings is empty and cannot be bound to.
type ResourcePool struct {
	Task             *Task
	VKDescriptorPool vk.DescriptorPool
	VKDescriptorSet  vk.DescriptorSet
}

// CreateResourcePool allocates descriptor storage sized for this Task's
// binding signature.
func (t *Task) CreateResourcePool() (*ResourcePool, error) {
	if len(t.descPoolSizes) == 0 {
		log.Printf("created resource pool with no entry")
		return &ResourcePool{Task: t}, nil
	}

	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(t.descPoolSizes)),
		PPoolSizes:    t.descPoolSizes,
	}

	var pool vk.DescriptorPool
	err := vk.Error(vk.CreateDescriptorPool(t.Context.VKDevice, &poolCreateInfo, nil, &pool))
	if err != nil {
		return nil, errors.Wrap(ErrExhausted, err.Error())
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{t.VKDescriptorSetLayout},
	}

	var set vk.DescriptorSet
	err = vk.Error(vk.AllocateDescriptorSets(t.Context.VKDevice, &allocateInfo, &set))
	if err != nil {
		vk.DestroyDescriptorPool(t.Context.VKDevice, pool, nil)
		return nil, errors.Wrap(ErrExhausted, err.Error())
	}

	log.Printf("created resource pool")
	return &ResourcePool{
		Task:             t,
		VKDescriptorPool: pool,
		VKDescriptorSet:  set,
	}, nil
}

// Destroy releases the descriptor pool. Destroying a destroyed or empty
// pool is a no-op.
func (p *ResourcePool) Destroy() {
	if p.VKDescriptorPool == vk.NullDescriptorPool {
		return
	}
	vk.DestroyDescriptorPool(p.Task.Context.VKDevice, p.VKDescriptorPool, nil)
	p.VKDescriptorPool = vk.NullDescriptorPool
	p.VKDescriptorSet = vk.NullDescriptorSet
	log.Printf("destroyed resource pool")
}

func (p *ResourcePool) checkBinding(idx int, wantBuffer bool) error {
	if idx < 0 || idx >= len(p.Task.ResourceTypes) {
		return errors.Wrapf(ErrInvalidArgument,
			"binding #%d out of range for task '%s'", idx, p.Task.Label)
	}
	if p.Task.ResourceTypes[idx].isBuffer() != wantBuffer {
		return errors.Wrapf(ErrInvalidArgument,
			"binding #%d of task '%s' does not take this resource class",
			idx, p.Task.Label)
	}
	if p.VKDescriptorPool == vk.NullDescriptorPool {
		return errors.Wrap(ErrInvalidArgument, "cannot bind to empty resource pool")
	}
	return nil
}

// BindBuffer binds a buffer view to binding idx, which must be a
// uniform- or storage-buffer slot. Rebinding an index overwrites it.
func (p *ResourcePool) BindBuffer(idx int, view BufferView) error {
	if err := p.checkBinding(idx, true); err != nil {
		return err
	}

	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: view.Buffer.VKBuffer,
		Offset: vk.DeviceSize(view.Offset),
		Range:  vk.DeviceSize(view.Size),
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          p.VKDescriptorSet,
		DstBinding:      uint32(idx),
		DescriptorCount: 1,
		DescriptorType:  p.Task.ResourceTypes[idx].descriptorType(),
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}

	vk.UpdateDescriptorSets(p.Task.Context.VKDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	log.Printf("bound pool resource #%d to buffer '%s'", idx, view.Buffer.Config.Label)
	return nil
}

// BindImage binds an image view to binding idx, which must be a
// sampled- or storage-image slot. Sampled images are described in
// shader-read-only-optimal layout, storage images in general layout.
func (p *ResourcePool) BindImage(idx int, view ImageView) error {
	if err := p.checkBinding(idx, false); err != nil {
		return err
	}

	imageInfo := vk.DescriptorImageInfo{
		ImageView: view.Image.VKImageView,
	}
	switch p.Task.ResourceTypes[idx] {
	case ResourceTypeSampledImage:
		imageInfo.ImageLayout = vk.ImageLayoutShaderReadOnlyOptimal
	case ResourceTypeStorageImage:
		imageInfo.ImageLayout = vk.ImageLayoutGeneral
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          p.VKDescriptorSet,
		DstBinding:      uint32(idx),
		DescriptorCount: 1,
		DescriptorType:  p.Task.ResourceTypes[idx].descriptorType(),
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}

	vk.UpdateDescriptorSets(p.Task.Context.VKDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	log.Printf("bound pool resource #%d to image '%s'", idx, view.Image.Config.Label)
	return nil
}
