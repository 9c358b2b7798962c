package vkcore

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Barrier translation tables. A device access of none keeps access flags
// empty and anchors the stage at the end (source side) or start
// (destination side) of the pipe; image layouts stay undefined so the
// transition discards nothing it shouldn't.

func bufferBarrierParams(usage BufferUsage, devAccess MemoryAccess, src bool) (vk.AccessFlags, vk.PipelineStageFlags, error) {
	stage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	if src {
		stage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	if devAccess == MemoryAccessNone {
		return 0, stage, nil
	}

	switch usage {
	case BufferUsageStaging:
		switch devAccess {
		case MemoryAccessReadOnly:
			return vk.AccessFlags(vk.AccessTransferReadBit),
				vk.PipelineStageFlags(vk.PipelineStageTransferBit), nil
		case MemoryAccessWriteOnly:
			return vk.AccessFlags(vk.AccessTransferWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageTransferBit), nil
		}
		return 0, 0, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: staging buffer cannot be both read and written")
	case BufferUsageVertex:
		if devAccess == MemoryAccessReadOnly {
			return vk.AccessFlags(vk.AccessVertexAttributeReadBit),
				vk.PipelineStageFlags(vk.PipelineStageVertexInputBit), nil
		}
		return 0, 0, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: vertex buffer cannot be written")
	case BufferUsageIndex:
		if devAccess == MemoryAccessReadOnly {
			return vk.AccessFlags(vk.AccessIndexReadBit),
				vk.PipelineStageFlags(vk.PipelineStageVertexInputBit), nil
		}
		return 0, 0, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: index buffer cannot be written")
	case BufferUsageUniform:
		if devAccess == MemoryAccessReadOnly {
			return vk.AccessFlags(vk.AccessUniformReadBit),
				vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit|
					vk.PipelineStageFragmentShaderBit|
					vk.PipelineStageComputeShaderBit), nil
		}
		return 0, 0, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: uniform buffer cannot be written")
	case BufferUsageStorage:
		stage := vk.PipelineStageFlags(vk.PipelineStageAllGraphicsBit |
			vk.PipelineStageComputeShaderBit)
		switch devAccess {
		case MemoryAccessReadOnly:
			return vk.AccessFlags(vk.AccessShaderReadBit), stage, nil
		case MemoryAccessWriteOnly:
			return vk.AccessFlags(vk.AccessShaderWriteBit), stage, nil
		default:
			return vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
				stage, nil
		}
	}
	return 0, 0, errors.Wrapf(ErrInvalidArgument,
		"cannot make barrier for buffer usage %#x", uint32(usage))
}

func imageBarrierParams(usage ImageUsage, devAccess MemoryAccess, src bool) (vk.AccessFlags, vk.PipelineStageFlags, vk.ImageLayout, error) {
	stage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	if src {
		stage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	if devAccess == MemoryAccessNone || usage == ImageUsageNone {
		return 0, stage, vk.ImageLayoutUndefined, nil
	}

	switch usage {
	case ImageUsageStaging:
		switch devAccess {
		case MemoryAccessReadOnly:
			return vk.AccessFlags(vk.AccessTransferReadBit),
				vk.PipelineStageFlags(vk.PipelineStageTransferBit),
				vk.ImageLayoutTransferSrcOptimal, nil
		case MemoryAccessWriteOnly:
			return vk.AccessFlags(vk.AccessTransferWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageTransferBit),
				vk.ImageLayoutTransferDstOptimal, nil
		}
		return 0, 0, vk.ImageLayoutUndefined, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: staging image cannot be both read and written")
	case ImageUsageAttachment:
		if devAccess == MemoryAccessReadOnly {
			return vk.AccessFlags(vk.AccessInputAttachmentReadBit),
				vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
				vk.ImageLayoutColorAttachmentOptimal, nil
		}
		if src {
			return vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
				vk.ImageLayoutColorAttachmentOptimal, nil
		}
		return vk.AccessFlags(vk.AccessColorAttachmentReadBit),
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			vk.ImageLayoutColorAttachmentOptimal, nil
	case ImageUsageSampled:
		if devAccess == MemoryAccessReadOnly {
			return vk.AccessFlags(vk.AccessShaderReadBit),
				vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit|
					vk.PipelineStageComputeShaderBit),
				vk.ImageLayoutShaderReadOnlyOptimal, nil
		}
		return 0, 0, vk.ImageLayoutUndefined, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: sampled image cannot be written")
	case ImageUsageStorage:
		stage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit |
			vk.PipelineStageComputeShaderBit)
		var access vk.AccessFlags
		switch devAccess {
		case MemoryAccessReadOnly:
			access = vk.AccessFlags(vk.AccessShaderReadBit)
		case MemoryAccessWriteOnly:
			access = vk.AccessFlags(vk.AccessShaderWriteBit)
		default:
			access = vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit)
		}
		return access, stage, vk.ImageLayoutGeneral, nil
	case ImageUsagePresent:
		if devAccess == MemoryAccessReadOnly {
			return 0, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
				vk.ImageLayoutPresentSrc, nil
		}
		return 0, 0, vk.ImageLayoutUndefined, errors.Wrap(ErrInvalidArgument,
			"cannot make barrier: present image cannot be written")
	}
	return 0, 0, vk.ImageLayoutUndefined, errors.Wrapf(ErrInvalidArgument,
		"cannot make barrier for image usage %#x", uint32(usage))
}
