package vkcore

import (
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// TransactionSubmitDetail describes one command buffer bound to one
// queue family, with the semaphores chaining it to its neighbors.
// Detail i waits on the semaphore detail i-1 signals; detail 0 waits on
// nothing. The last detail's signal semaphore is created but unused.
type TransactionSubmitDetail struct {
	SubmitType        SubmitType
	VKCommandPool     vk.CommandPool
	VKCommandBuffer   vk.CommandBuffer
	VKWaitSemaphore   vk.Semaphore
	VKSignalSemaphore vk.Semaphore
}

// transactionLike is the translator state: an ordered list of submit
// details under construction, at primary or secondary recording level.
type transactionLike struct {
	ctxt          *Context
	submitDetails []*TransactionSubmitDetail
	level         vk.CommandBufferLevel
}

func (c *Context) createSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	err := vk.Error(vk.CreateSemaphore(c.VKDevice, &semaphoreCreateInfo, nil, &semaphore))
	return semaphore, err
}

func (c *Context) createFence() (vk.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	err := vk.Error(vk.CreateFence(c.VKDevice, &fenceCreateInfo, nil, &fence))
	return fence, err
}

func (c *Context) createCommandPool(familyIndex uint32) (vk.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: familyIndex,
	}
	var pool vk.CommandPool
	err := vk.Error(vk.CreateCommandPool(c.VKDevice, &poolCreateInfo, nil, &pool))
	return pool, err
}

func (c *Context) allocateCommandBuffer(pool vk.CommandPool, level vk.CommandBufferLevel) (vk.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              level,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	err := vk.Error(vk.AllocateCommandBuffers(c.VKDevice, &allocateInfo, buffers))
	if err != nil {
		return nil, err
	}
	return buffers[0], nil
}

func beginCommandBuffer(detail *TransactionSubmitDetail) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		PInheritanceInfo: []vk.CommandBufferInheritanceInfo{{
			SType: vk.StructureTypeCommandBufferInheritanceInfo,
		}},
	}
	if detail.SubmitType == SubmitTypeGraphics {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	return vk.Error(vk.BeginCommandBuffer(detail.VKCommandBuffer, &beginInfo))
}

func endCommandBuffer(detail *TransactionSubmitDetail) error {
	return vk.Error(vk.EndCommandBuffer(detail.VKCommandBuffer))
}

// pushSubmitDetail opens a fresh command buffer of the given submit type
// and chains it onto the detail list: its wait semaphore is the previous
// detail's signal semaphore.
func (t *transactionLike) pushSubmitDetail(submitType SubmitType, familyIndex uint32) error {
	pool, err := t.ctxt.createCommandPool(familyIndex)
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	cmdbuf, err := t.ctxt.allocateCommandBuffer(pool, t.level)
	if err != nil {
		vk.DestroyCommandPool(t.ctxt.VKDevice, pool, nil)
		return errors.Wrap(err, "allocate command buffer")
	}
	signal, err := t.ctxt.createSemaphore()
	if err != nil {
		vk.DestroyCommandPool(t.ctxt.VKDevice, pool, nil)
		return errors.Wrap(err, "create semaphore")
	}

	wait := vk.NullSemaphore
	if len(t.submitDetails) > 0 {
		wait = t.submitDetails[len(t.submitDetails)-1].VKSignalSemaphore
	}

	t.submitDetails = append(t.submitDetails, &TransactionSubmitDetail{
		SubmitType:        submitType,
		VKCommandPool:     pool,
		VKCommandBuffer:   cmdbuf,
		VKWaitSemaphore:   wait,
		VKSignalSemaphore: signal,
	})
	return nil
}

// submitDetail submits one recorded detail to its queue, waiting on its
// chain predecessor and signalling its successor. The fence, when not
// null, is signalled on completion.
func (t *transactionLike) submitDetail(detail *TransactionSubmitDetail, fence vk.Fence) error {
	ctxtDetail, err := t.ctxt.submitDetail(detail.SubmitType)
	if err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{detail.VKCommandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{detail.VKSignalSemaphore},
	}
	if detail.VKWaitSemaphore != vk.NullSemaphore {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{detail.VKWaitSemaphore}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		}
	}

	err = vk.Error(vk.QueueSubmit(ctxtDetail.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence))
	if err != nil {
		return errors.Wrap(err, "queue submit")
	}
	return nil
}

// getCommandBuffer resolves the command buffer commands of the given
// submit type record into. An any-type command inherits the open
// detail's type; with no open detail that is a caller contract
// violation. A type change ends the open detail - submitting it
// immediately in primary recordings - and opens a new one.
func (t *transactionLike) getCommandBuffer(submitType SubmitType) (vk.CommandBuffer, error) {
	if submitType == SubmitTypeAny {
		if len(t.submitDetails) == 0 {
			panic("cannot infer submit type for submit-type-independent command")
		}
		submitType = t.submitDetails[len(t.submitDetails)-1].SubmitType
	}
	ctxtDetail, err := t.ctxt.submitDetail(submitType)
	if err != nil {
		return nil, err
	}

	if len(t.submitDetails) > 0 {
		last := t.submitDetails[len(t.submitDetails)-1]
		if submitType == last.SubmitType {
			return last.VKCommandBuffer, nil
		}
		if err := endCommandBuffer(last); err != nil {
			return nil, err
		}
		if t.level == vk.CommandBufferLevelPrimary {
			if err := t.submitDetail(last, vk.NullFence); err != nil {
				return nil, err
			}
		}
	}

	if err := t.pushSubmitDetail(submitType, ctxtDetail.QueueFamilyIndex); err != nil {
		return nil, err
	}
	last := t.submitDetails[len(t.submitDetails)-1]
	if err := beginCommandBuffer(last); err != nil {
		return nil, err
	}
	return last.VKCommandBuffer, nil
}

// recordCommand translates one command into the current recording.
// Unknown tags are rejected.
func (t *transactionLike) recordCommand(cmd Command) error {
	switch cmd.Type {
	case CommandTypeSetSubmitType:
		return t.recordSetSubmitType(cmd)
	case CommandTypeInlineTransaction:
		return t.recordInlineTransaction(cmd)
	case CommandTypeCopyBuffer:
		return t.recordCopyBuffer(cmd)
	case CommandTypeCopyBufferToImage:
		return t.recordCopyBufferToImage(cmd)
	case CommandTypeCopyImageToBuffer:
		return t.recordCopyImageToBuffer(cmd)
	case CommandTypeCopyImage:
		return t.recordCopyImage(cmd)
	case CommandTypeDispatch:
		return t.recordDispatch(cmd)
	case CommandTypeDraw:
		return t.recordDraw(cmd)
	case CommandTypeDrawIndexed:
		return t.recordDrawIndexed(cmd)
	case CommandTypeWriteTimestamp:
		return t.recordWriteTimestamp(cmd)
	case CommandTypeBufferBarrier:
		return t.recordBufferBarrier(cmd)
	case CommandTypeImageBarrier:
		return t.recordImageBarrier(cmd)
	case CommandTypeBeginRenderPass:
		return t.recordBeginRenderPass(cmd)
	case CommandTypeEndRenderPass:
		return t.recordEndRenderPass(cmd)
	}
	return errors.Wrapf(ErrInvalidArgument, "unknown command type %d", cmd.Type)
}

func (t *transactionLike) recordSetSubmitType(cmd Command) error {
	_, err := t.getCommandBuffer(cmd.SubmitType)
	return err
}

func (t *transactionLike) recordInlineTransaction(cmd Command) error {
	if t.level != vk.CommandBufferLevelPrimary {
		panic("nested inline transaction is not allowed")
	}
	for _, subDetail := range cmd.Transaction.SubmitDetails {
		cmdbuf, err := t.getCommandBuffer(subDetail.SubmitType)
		if err != nil {
			return err
		}
		vk.CmdExecuteCommands(cmdbuf, 1, []vk.CommandBuffer{subDetail.VKCommandBuffer})
	}
	log.Printf("scheduled inline transaction '%s'", cmd.Transaction.Label)
	return nil
}

func (t *transactionLike) recordCopyBuffer(cmd Command) error {
	src := cmd.SrcBuffer
	dst := cmd.DstBuffer
	if src.Size != dst.Size {
		return errors.Wrapf(ErrInvalidArgument,
			"buffer copy size mismatched (%d vs %d)", src.Size, dst.Size)
	}
	if src.Size == 0 {
		log.Printf("WARNING: ignored zero-sized buffer copy")
		return nil
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	vk.CmdCopyBuffer(cmdbuf, src.Buffer.VKBuffer, dst.Buffer.VKBuffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(src.Offset),
		DstOffset: vk.DeviceSize(dst.Offset),
		Size:      vk.DeviceSize(dst.Size),
	}})
	return nil
}

func (t *transactionLike) recordCopyBufferToImage(cmd Command) error {
	src := cmd.SrcBuffer
	dst := cmd.DstImage
	if dst.Width == 0 || dst.Height == 0 {
		log.Printf("WARNING: ignored zero-sized buffer-to-image copy")
		return nil
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(src.Offset),
		BufferRowLength:   0,
		BufferImageHeight: dst.Image.Config.Height,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(dst.XOffset), Y: int32(dst.YOffset)},
		ImageExtent: vk.Extent3D{Width: dst.Width, Height: dst.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cmdbuf, src.Buffer.VKBuffer, dst.Image.VKImage,
		vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	return nil
}

func (t *transactionLike) recordCopyImageToBuffer(cmd Command) error {
	src := cmd.SrcImage
	dst := cmd.DstBuffer
	if src.Width == 0 || src.Height == 0 {
		log.Printf("WARNING: ignored zero-sized image-to-buffer copy")
		return nil
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(dst.Offset),
		BufferRowLength:   0,
		BufferImageHeight: src.Image.Config.Height,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(src.XOffset), Y: int32(src.YOffset)},
		ImageExtent: vk.Extent3D{Width: src.Width, Height: src.Height, Depth: 1},
	}
	vk.CmdCopyImageToBuffer(cmdbuf, src.Image.VKImage,
		vk.ImageLayoutTransferSrcOptimal, dst.Buffer.VKBuffer, 1, []vk.BufferImageCopy{region})
	return nil
}

func (t *transactionLike) recordCopyImage(cmd Command) error {
	src := cmd.SrcImage
	dst := cmd.DstImage
	if src.Width != dst.Width || src.Height != dst.Height {
		return errors.Wrap(ErrInvalidArgument, "image copy size mismatched")
	}
	if dst.Width == 0 || dst.Height == 0 {
		log.Printf("WARNING: ignored zero-sized image copy")
		return nil
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	region := vk.ImageCopy{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		SrcOffset: vk.Offset3D{X: int32(src.XOffset), Y: int32(src.YOffset)},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		DstOffset: vk.Offset3D{X: int32(dst.XOffset), Y: int32(dst.YOffset)},
		Extent:    vk.Extent3D{Width: dst.Width, Height: dst.Height, Depth: 1},
	}
	vk.CmdCopyImage(cmdbuf, src.Image.VKImage, vk.ImageLayoutTransferSrcOptimal,
		dst.Image.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageCopy{region})
	return nil
}

func (t *transactionLike) recordDispatch(cmd Command) error {
	cmdbuf, err := t.getCommandBuffer(SubmitTypeCompute)
	if err != nil {
		return err
	}

	vk.CmdBindPipeline(cmdbuf, vk.PipelineBindPointCompute, cmd.Task.VKPipeline)
	if cmd.ResourcePool.VKDescriptorSet != vk.NullDescriptorSet {
		vk.CmdBindDescriptorSets(cmdbuf, vk.PipelineBindPointCompute,
			cmd.Task.VKPipelineLayout, 0, 1,
			[]vk.DescriptorSet{cmd.ResourcePool.VKDescriptorSet}, 0, nil)
	}
	vk.CmdDispatch(cmdbuf, cmd.Workgroups[0], cmd.Workgroups[1], cmd.Workgroups[2])
	if t.level == vk.CommandBufferLevelPrimary {
		log.Printf("scheduled compute task '%s' for execution", cmd.Task.Label)
	}
	return nil
}

func (t *transactionLike) bindGraphicsState(cmdbuf vk.CommandBuffer, cmd Command) {
	vk.CmdBindPipeline(cmdbuf, vk.PipelineBindPointGraphics, cmd.Task.VKPipeline)
	if cmd.ResourcePool.VKDescriptorSet != vk.NullDescriptorSet {
		vk.CmdBindDescriptorSets(cmdbuf, vk.PipelineBindPointGraphics,
			cmd.Task.VKPipelineLayout, 0, 1,
			[]vk.DescriptorSet{cmd.ResourcePool.VKDescriptorSet}, 0, nil)
	}
	vk.CmdBindVertexBuffers(cmdbuf, 0, 1,
		[]vk.Buffer{cmd.VertexBuffer.Buffer.VKBuffer},
		[]vk.DeviceSize{vk.DeviceSize(cmd.VertexBuffer.Offset)})
}

func (t *transactionLike) recordDraw(cmd Command) error {
	cmdbuf, err := t.getCommandBuffer(SubmitTypeGraphics)
	if err != nil {
		return err
	}

	t.bindGraphicsState(cmdbuf, cmd)
	vk.CmdDraw(cmdbuf, cmd.VertexCount, cmd.InstanceCount, 0, 0)
	if t.level == vk.CommandBufferLevelPrimary {
		log.Printf("scheduled graphics task '%s' for execution", cmd.Task.Label)
	}
	return nil
}

func (t *transactionLike) recordDrawIndexed(cmd Command) error {
	cmdbuf, err := t.getCommandBuffer(SubmitTypeGraphics)
	if err != nil {
		return err
	}

	t.bindGraphicsState(cmdbuf, cmd)
	vk.CmdBindIndexBuffer(cmdbuf, cmd.IndexBuffer.Buffer.VKBuffer,
		vk.DeviceSize(cmd.IndexBuffer.Offset), vk.IndexTypeUint16)
	vk.CmdDrawIndexed(cmdbuf, cmd.IndexCount, cmd.InstanceCount, 0, 0, 0)
	if t.level == vk.CommandBufferLevelPrimary {
		log.Printf("scheduled graphics task '%s' for execution", cmd.Task.Label)
	}
	return nil
}

func (t *transactionLike) recordWriteTimestamp(cmd Command) error {
	if !t.ctxt.timestampValid {
		return errors.Wrap(ErrUnsupported, "device does not support timestamps")
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	vk.CmdResetQueryPool(cmdbuf, cmd.Timestamp.VKQueryPool, 0, 1)
	vk.CmdWriteTimestamp(cmdbuf, vk.PipelineStageAllCommandsBit, cmd.Timestamp.VKQueryPool, 0)
	return nil
}

func (t *transactionLike) recordBufferBarrier(cmd Command) error {
	srcAccess, srcStage, err := bufferBarrierParams(cmd.SrcBufferUsage, cmd.SrcAccess, true)
	if err != nil {
		return err
	}
	dstAccess, dstStage, err := bufferBarrierParams(cmd.DstBufferUsage, cmd.DstAccess, false)
	if err != nil {
		return err
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              cmd.Buffer.VKBuffer,
		Offset:              0,
		Size:                vk.DeviceSize(vk.WholeSize),
	}
	vk.CmdPipelineBarrier(cmdbuf, srcStage, dstStage, 0,
		0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
	return nil
}

func (t *transactionLike) recordImageBarrier(cmd Command) error {
	srcAccess, srcStage, srcLayout, err := imageBarrierParams(cmd.SrcImageUsage, cmd.SrcAccess, true)
	if err != nil {
		return err
	}
	dstAccess, dstStage, dstLayout, err := imageBarrierParams(cmd.DstImageUsage, cmd.DstAccess, false)
	if err != nil {
		return err
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeAny)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           srcLayout,
		NewLayout:           dstLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               cmd.Image.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: vk.RemainingMipLevels,
			LayerCount: vk.RemainingArrayLayers,
		},
	}
	vk.CmdPipelineBarrier(cmdbuf, srcStage, dstStage, 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

func (t *transactionLike) recordBeginRenderPass(cmd Command) error {
	if t.level != vk.CommandBufferLevelPrimary {
		panic("render pass scope must open in a primary recording")
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeGraphics)
	if err != nil {
		return err
	}
	pass := cmd.RenderPass

	contents := vk.SubpassContentsSecondaryCommandBuffers
	if cmd.DrawInline {
		contents = vk.SubpassContentsInline
	}
	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass.VKRenderPass,
		Framebuffer:     pass.VKFramebuffer,
		RenderArea:      vk.Rect2D{Extent: pass.Viewport.Extent},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{pass.ClearValue},
	}
	vk.CmdBeginRenderPass(cmdbuf, &beginInfo, contents)
	return nil
}

func (t *transactionLike) recordEndRenderPass(cmd Command) error {
	if t.level != vk.CommandBufferLevelPrimary {
		panic("render pass scope must close in a primary recording")
	}
	cmdbuf, err := t.getCommandBuffer(SubmitTypeGraphics)
	if err != nil {
		return err
	}
	vk.CmdEndRenderPass(cmdbuf)
	return nil
}

// clearSubmitDetails destroys the semaphores and command pools a detail
// list owns. Wait semaphores are owned by the detail that signals them.
func clearSubmitDetails(ctxt *Context, details []*TransactionSubmitDetail) {
	for _, detail := range details {
		vk.DestroySemaphore(ctxt.VKDevice, detail.VKSignalSemaphore, nil)
		vk.DestroyCommandPool(ctxt.VKDevice, detail.VKCommandPool, nil)
	}
}
