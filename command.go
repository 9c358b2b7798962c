package vkcore

// CommandType tags the Command variant.
type CommandType int

const (
	CommandTypeSetSubmitType CommandType = iota
	CommandTypeInlineTransaction
	CommandTypeCopyBuffer
	CommandTypeCopyBufferToImage
	CommandTypeCopyImageToBuffer
	CommandTypeCopyImage
	CommandTypeDispatch
	CommandTypeDraw
	CommandTypeDrawIndexed
	CommandTypeWriteTimestamp
	CommandTypeBufferBarrier
	CommandTypeImageBarrier
	CommandTypeBeginRenderPass
	CommandTypeEndRenderPass
)

// Command is a device-agnostic recorded operation; only the payload
// fields of its type are meaningful. Build commands with the Cmd*
// constructors.
type Command struct {
	Type CommandType

	SubmitType  SubmitType
	Transaction *Transaction

	SrcBuffer BufferView
	DstBuffer BufferView
	SrcImage  ImageView
	DstImage  ImageView

	Task          *Task
	ResourcePool  *ResourcePool
	Workgroups    [3]uint32
	VertexBuffer  BufferView
	IndexBuffer   BufferView
	VertexCount   uint32
	IndexCount    uint32
	InstanceCount uint32

	Timestamp *Timestamp

	Buffer         *Buffer
	Image          *Image
	SrcBufferUsage BufferUsage
	DstBufferUsage BufferUsage
	SrcImageUsage  ImageUsage
	DstImageUsage  ImageUsage
	SrcAccess      MemoryAccess
	DstAccess      MemoryAccess

	RenderPass *RenderPass
	DrawInline bool
}

// requiredSubmitType classifies the command for queue selection.
// Dispatches need a compute queue; draws and render-pass scopes need a
// graphics queue; everything else runs anywhere and inherits the class
// of the open submit detail.
func (c *Command) requiredSubmitType() SubmitType {
	switch c.Type {
	case CommandTypeSetSubmitType:
		return c.SubmitType
	case CommandTypeDispatch:
		return SubmitTypeCompute
	case CommandTypeDraw, CommandTypeDrawIndexed,
		CommandTypeBeginRenderPass, CommandTypeEndRenderPass:
		return SubmitTypeGraphics
	}
	return SubmitTypeAny
}

// CmdSetSubmitType forces open a submit detail of the given type without
// emitting device work.
func CmdSetSubmitType(submitType SubmitType) Command {
	return Command{Type: CommandTypeSetSubmitType, SubmitType: submitType}
}

// CmdInlineTransaction schedules a prerecorded secondary transaction
// inside the current recording.
func CmdInlineTransaction(transaction *Transaction) Command {
	return Command{Type: CommandTypeInlineTransaction, Transaction: transaction}
}

// CmdCopyBuffer copies between two equally sized buffer views.
func CmdCopyBuffer(src, dst BufferView) Command {
	return Command{Type: CommandTypeCopyBuffer, SrcBuffer: src, DstBuffer: dst}
}

// CmdCopyBufferToImage copies tightly packed texels from a buffer view
// into an image region. The image must already be in
// transfer-dst-optimal layout.
func CmdCopyBufferToImage(src BufferView, dst ImageView) Command {
	return Command{Type: CommandTypeCopyBufferToImage, SrcBuffer: src, DstImage: dst}
}

// CmdCopyImageToBuffer copies an image region into a buffer view. The
// image must already be in transfer-src-optimal layout.
func CmdCopyImageToBuffer(src ImageView, dst BufferView) Command {
	return Command{Type: CommandTypeCopyImageToBuffer, SrcImage: src, DstBuffer: dst}
}

// CmdCopyImage copies between two equally sized image regions.
func CmdCopyImage(src, dst ImageView) Command {
	return Command{Type: CommandTypeCopyImage, SrcImage: src, DstImage: dst}
}

// CmdDispatch launches a compute task over the given workgroup counts.
func CmdDispatch(task *Task, pool *ResourcePool, x, y, z uint32) Command {
	return Command{
		Type:         CommandTypeDispatch,
		Task:         task,
		ResourcePool: pool,
		Workgroups:   [3]uint32{x, y, z},
	}
}

// CmdDraw draws nvert vertices from the vertex buffer view, ninst
// instances.
func CmdDraw(task *Task, pool *ResourcePool, verts BufferView, nvert, ninst uint32) Command {
	return Command{
		Type:          CommandTypeDraw,
		Task:          task,
		ResourcePool:  pool,
		VertexBuffer:  verts,
		VertexCount:   nvert,
		InstanceCount: ninst,
	}
}

// CmdDrawIndexed draws nidx 16-bit indices from the index buffer view
// against the vertex buffer view, ninst instances.
func CmdDrawIndexed(task *Task, pool *ResourcePool, verts, idxs BufferView, nidx, ninst uint32) Command {
	return Command{
		Type:          CommandTypeDrawIndexed,
		Task:          task,
		ResourcePool:  pool,
		VertexBuffer:  verts,
		IndexBuffer:   idxs,
		IndexCount:    nidx,
		InstanceCount: ninst,
	}
}

// CmdWriteTimestamp resets the timestamp query and writes it after all
// prior commands complete.
func CmdWriteTimestamp(timestamp *Timestamp) Command {
	return Command{Type: CommandTypeWriteTimestamp, Timestamp: timestamp}
}

// CmdBufferBarrier orders accesses to a buffer between a source and a
// destination usage/device-access pair.
func CmdBufferBarrier(buf *Buffer, srcUsage BufferUsage, srcAccess MemoryAccess,
	dstUsage BufferUsage, dstAccess MemoryAccess) Command {
	return Command{
		Type:           CommandTypeBufferBarrier,
		Buffer:         buf,
		SrcBufferUsage: srcUsage,
		DstBufferUsage: dstUsage,
		SrcAccess:      srcAccess,
		DstAccess:      dstAccess,
	}
}

// CmdImageBarrier orders accesses to an image and transitions it
// between the layouts implied by the usage/device-access pairs.
func CmdImageBarrier(img *Image, srcUsage ImageUsage, srcAccess MemoryAccess,
	dstUsage ImageUsage, dstAccess MemoryAccess) Command {
	return Command{
		Type:          CommandTypeImageBarrier,
		Image:         img,
		SrcImageUsage: srcUsage,
		DstImageUsage: dstUsage,
		SrcAccess:     srcAccess,
		DstAccess:     dstAccess,
	}
}

// CmdBeginRenderPass opens a render-pass scope. When drawInline is
// false the pass contents come from secondary command buffers.
func CmdBeginRenderPass(pass *RenderPass, drawInline bool) Command {
	return Command{Type: CommandTypeBeginRenderPass, RenderPass: pass, DrawInline: drawInline}
}

// CmdEndRenderPass closes the current render-pass scope.
func CmdEndRenderPass() Command {
	return Command{Type: CommandTypeEndRenderPass}
}
