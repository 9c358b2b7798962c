package vkcore

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestBufferBarrierTable(t *testing.T) {
	legal := []struct {
		usage  BufferUsage
		access MemoryAccess
		want   vk.AccessFlags
	}{
		{BufferUsageStaging, MemoryAccessReadOnly, vk.AccessFlags(vk.AccessTransferReadBit)},
		{BufferUsageStaging, MemoryAccessWriteOnly, vk.AccessFlags(vk.AccessTransferWriteBit)},
		{BufferUsageVertex, MemoryAccessReadOnly, vk.AccessFlags(vk.AccessVertexAttributeReadBit)},
		{BufferUsageIndex, MemoryAccessReadOnly, vk.AccessFlags(vk.AccessIndexReadBit)},
		{BufferUsageUniform, MemoryAccessReadOnly, vk.AccessFlags(vk.AccessUniformReadBit)},
		{BufferUsageStorage, MemoryAccessReadOnly, vk.AccessFlags(vk.AccessShaderReadBit)},
		{BufferUsageStorage, MemoryAccessWriteOnly, vk.AccessFlags(vk.AccessShaderWriteBit)},
		{BufferUsageStorage, MemoryAccessReadWrite, vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit)},
	}
	for _, c := range legal {
		access, stage, err := bufferBarrierParams(c.usage, c.access, true)
		if err != nil {
			t.Errorf("usage %#x access %v: %v", c.usage, c.access, err)
			continue
		}
		if access != c.want {
			t.Errorf("usage %#x access %v: access %#x, want %#x",
				c.usage, c.access, access, c.want)
		}
		if stage == 0 {
			t.Errorf("usage %#x access %v: zero stage mask", c.usage, c.access)
		}
	}
}

func TestBufferBarrierIllegal(t *testing.T) {
	illegal := []struct {
		usage  BufferUsage
		access MemoryAccess
	}{
		{BufferUsageStaging, MemoryAccessReadWrite},
		{BufferUsageVertex, MemoryAccessWriteOnly},
		{BufferUsageVertex, MemoryAccessReadWrite},
		{BufferUsageIndex, MemoryAccessWriteOnly},
		{BufferUsageUniform, MemoryAccessWriteOnly},
		{BufferUsageUniform, MemoryAccessReadWrite},
		{0, MemoryAccessReadOnly},
		{BufferUsageStaging | BufferUsageStorage, MemoryAccessReadOnly},
	}
	for _, c := range illegal {
		_, _, err := bufferBarrierParams(c.usage, c.access, false)
		if err == nil {
			t.Errorf("usage %#x access %v: expected error", c.usage, c.access)
		}
	}
}

func TestBufferBarrierNoneAccess(t *testing.T) {
	access, stage, err := bufferBarrierParams(BufferUsageStorage, MemoryAccessNone, true)
	if err != nil || access != 0 {
		t.Errorf("src none: access %#x err %v", access, err)
	}
	if stage != vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit) {
		t.Errorf("src none: stage %#x", stage)
	}
	_, stage, _ = bufferBarrierParams(BufferUsageStorage, MemoryAccessNone, false)
	if stage != vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit) {
		t.Errorf("dst none: stage %#x", stage)
	}
}

func TestImageBarrierLayouts(t *testing.T) {
	cases := []struct {
		usage  ImageUsage
		access MemoryAccess
		src    bool
		layout vk.ImageLayout
	}{
		{ImageUsageNone, MemoryAccessNone, true, vk.ImageLayoutUndefined},
		{ImageUsageStaging, MemoryAccessReadOnly, true, vk.ImageLayoutTransferSrcOptimal},
		{ImageUsageStaging, MemoryAccessWriteOnly, false, vk.ImageLayoutTransferDstOptimal},
		{ImageUsageSampled, MemoryAccessReadOnly, false, vk.ImageLayoutShaderReadOnlyOptimal},
		{ImageUsageStorage, MemoryAccessReadOnly, true, vk.ImageLayoutGeneral},
		{ImageUsageStorage, MemoryAccessWriteOnly, false, vk.ImageLayoutGeneral},
		{ImageUsageStorage, MemoryAccessReadWrite, false, vk.ImageLayoutGeneral},
		{ImageUsageAttachment, MemoryAccessWriteOnly, true, vk.ImageLayoutColorAttachmentOptimal},
		{ImageUsageAttachment, MemoryAccessReadOnly, false, vk.ImageLayoutColorAttachmentOptimal},
		{ImageUsagePresent, MemoryAccessReadOnly, false, vk.ImageLayoutPresentSrc},
	}
	for _, c := range cases {
		_, _, layout, err := imageBarrierParams(c.usage, c.access, c.src)
		if err != nil {
			t.Errorf("usage %#x access %v: %v", c.usage, c.access, err)
			continue
		}
		if layout != c.layout {
			t.Errorf("usage %#x access %v src %v: layout %d, want %d",
				c.usage, c.access, c.src, layout, c.layout)
		}
	}
}

func TestImageBarrierIllegal(t *testing.T) {
	illegal := []struct {
		usage  ImageUsage
		access MemoryAccess
	}{
		{ImageUsageStaging, MemoryAccessReadWrite},
		{ImageUsageSampled, MemoryAccessWriteOnly},
		{ImageUsageSampled, MemoryAccessReadWrite},
		{ImageUsagePresent, MemoryAccessWriteOnly},
		{ImageUsageSampled | ImageUsageStorage, MemoryAccessReadOnly},
	}
	for _, c := range illegal {
		_, _, _, err := imageBarrierParams(c.usage, c.access, true)
		if err == nil {
			t.Errorf("usage %#x access %v: expected error", c.usage, c.access)
		}
	}
}

// The two transitions around an upload-then-sample sequence: undefined
// to transfer-dst, then transfer-dst to shader-read-only.
func TestImageBarrierUploadSequence(t *testing.T) {
	_, _, oldLayout, err := imageBarrierParams(ImageUsageNone, MemoryAccessNone, true)
	if err != nil || oldLayout != vk.ImageLayoutUndefined {
		t.Errorf("first barrier src: layout %d err %v", oldLayout, err)
	}
	_, _, newLayout, err := imageBarrierParams(ImageUsageStaging, MemoryAccessWriteOnly, false)
	if err != nil || newLayout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("first barrier dst: layout %d err %v", newLayout, err)
	}
	_, _, oldLayout, err = imageBarrierParams(ImageUsageStaging, MemoryAccessWriteOnly, true)
	if err != nil || oldLayout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("second barrier src: layout %d err %v", oldLayout, err)
	}
	_, _, newLayout, err = imageBarrierParams(ImageUsageSampled, MemoryAccessReadOnly, false)
	if err != nil || newLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("second barrier dst: layout %d err %v", newLayout, err)
	}
}
