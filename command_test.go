package vkcore

import (
	"testing"
)

func TestCommandSubmitTypeClassification(t *testing.T) {
	cases := []struct {
		cmd  Command
		want SubmitType
	}{
		{CmdSetSubmitType(SubmitTypeCompute), SubmitTypeCompute},
		{CmdSetSubmitType(SubmitTypeGraphics), SubmitTypeGraphics},
		{CmdDispatch(nil, nil, 1, 1, 1), SubmitTypeCompute},
		{CmdDraw(nil, nil, BufferView{}, 3, 1), SubmitTypeGraphics},
		{CmdDrawIndexed(nil, nil, BufferView{}, BufferView{}, 3, 1), SubmitTypeGraphics},
		{CmdBeginRenderPass(nil, true), SubmitTypeGraphics},
		{CmdEndRenderPass(), SubmitTypeGraphics},
		{CmdCopyBuffer(BufferView{}, BufferView{}), SubmitTypeAny},
		{CmdCopyBufferToImage(BufferView{}, ImageView{}), SubmitTypeAny},
		{CmdCopyImageToBuffer(ImageView{}, BufferView{}), SubmitTypeAny},
		{CmdCopyImage(ImageView{}, ImageView{}), SubmitTypeAny},
		{CmdWriteTimestamp(nil), SubmitTypeAny},
		{CmdBufferBarrier(nil, BufferUsageStorage, MemoryAccessReadOnly, BufferUsageStorage, MemoryAccessWriteOnly), SubmitTypeAny},
		{CmdImageBarrier(nil, ImageUsageNone, MemoryAccessNone, ImageUsageStaging, MemoryAccessWriteOnly), SubmitTypeAny},
		{CmdInlineTransaction(nil), SubmitTypeAny},
	}
	for _, c := range cases {
		if got := c.cmd.requiredSubmitType(); got != c.want {
			t.Errorf("command type %d: submit type %v, want %v", c.cmd.Type, got, c.want)
		}
	}
}

func TestCommandConstructors(t *testing.T) {
	cmd := CmdDispatch(nil, nil, 2, 3, 4)
	if cmd.Type != CommandTypeDispatch || cmd.Workgroups != [3]uint32{2, 3, 4} {
		t.Errorf("dispatch payload: %+v", cmd)
	}

	cmd = CmdDraw(nil, nil, BufferView{Offset: 16, Size: 64}, 6, 2)
	if cmd.VertexBuffer.Offset != 16 || cmd.VertexCount != 6 || cmd.InstanceCount != 2 {
		t.Errorf("draw payload: %+v", cmd)
	}

	cmd = CmdBufferBarrier(nil, BufferUsageStaging, MemoryAccessWriteOnly,
		BufferUsageStorage, MemoryAccessReadOnly)
	if cmd.SrcBufferUsage != BufferUsageStaging || cmd.DstAccess != MemoryAccessReadOnly {
		t.Errorf("barrier payload: %+v", cmd)
	}

	cmd = CmdBeginRenderPass(nil, false)
	if cmd.DrawInline {
		t.Error("begin render pass should record secondary contents")
	}
}
