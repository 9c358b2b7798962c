package vkcore

import (
	"log"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ResourceType identifies the descriptor class of one binding slot.
type ResourceType int

const (
	ResourceTypeUniformBuffer ResourceType = iota
	ResourceTypeStorageBuffer
	ResourceTypeSampledImage
	ResourceTypeStorageImage
)

func (t ResourceType) descriptorType() vk.DescriptorType {
	switch t {
	case ResourceTypeUniformBuffer:
		return vk.DescriptorTypeUniformBuffer
	case ResourceTypeStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case ResourceTypeSampledImage:
		return vk.DescriptorTypeCombinedImageSampler
	case ResourceTypeStorageImage:
		return vk.DescriptorTypeStorageImage
	}
	panic("unexpected resource type")
}

func (t ResourceType) isBuffer() bool {
	return t == ResourceTypeUniformBuffer || t == ResourceTypeStorageBuffer
}

// WorkgroupSize is a compute shader's local group size, injected through
// specialization constants 0, 1 and 2.
type WorkgroupSize struct {
	X, Y, Z int32
}

// ComputeTaskConfig describes a compute Task.
type ComputeTaskConfig struct {
	Label         string
	EntryName     string
	Code          []byte
	ResourceTypes []ResourceType
	WorkgroupSize WorkgroupSize
}

// Topology selects the primitive list a graphics Task assembles.
type Topology int

const (
	TopologyPoint Topology = iota
	TopologyLine
	TopologyTriangle
)

// VertexInputRate selects per-vertex or per-instance attribute stepping.
type VertexInputRate int

const (
	VertexInputRateVertex VertexInputRate = iota
	VertexInputRateInstance
)

// VertexInput describes one vertex attribute. Attributes are laid out
// contiguously in declaration order within a single binding.
type VertexInput struct {
	Format PixelFormat
	Rate   VertexInputRate
}

// GraphicsTaskConfig describes a graphics Task.
type GraphicsTaskConfig struct {
	Label             string
	VertexEntryName   string
	VertexCode        []byte
	FragmentEntryName string
	FragmentCode      []byte
	VertexInputs      []VertexInput
	Topology          Topology
	ResourceTypes     []ResourceType
}

// Task is a compiled pipeline bundle: a descriptor-set layout, a
// pipeline layout, a pipeline and the shader modules behind it, plus the
// binding signature used by resource pools.
type Task struct {
	Context               *Context
	Label                 string
	VKDescriptorSetLayout vk.DescriptorSetLayout
	VKPipelineLayout      vk.PipelineLayout
	VKPipeline            vk.Pipeline
	ResourceTypes         []ResourceType

	shaderModules []vk.ShaderModule
	descPoolSizes []vk.DescriptorPoolSize
}

// createDescriptorSetLayout builds the layout with one binding per
// resource type at sequential indices, visible to all graphics stages
// and compute. Sampled-image bindings take the Context's default sampler
// as an immutable sampler.
func (c *Context) createDescriptorSetLayout(resourceTypes []ResourceType) (vk.DescriptorSetLayout, []vk.DescriptorPoolSize, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(resourceTypes))
	descCounts := make(map[vk.DescriptorType]uint32)
	for i, resourceType := range resourceTypes {
		binding := vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorCount: 1,
			DescriptorType:  resourceType.descriptorType(),
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageAllGraphics) |
				vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		}
		if resourceType == ResourceTypeSampledImage {
			binding.PImmutableSamplers = []vk.Sampler{c.VKSampler}
		}
		descCounts[binding.DescriptorType]++
		bindings[i] = binding
	}

	poolSizes := make([]vk.DescriptorPoolSize, 0, len(descCounts))
	for _, descType := range []vk.DescriptorType{
		vk.DescriptorTypeUniformBuffer,
		vk.DescriptorTypeStorageBuffer,
		vk.DescriptorTypeCombinedImageSampler,
		vk.DescriptorTypeStorageImage,
	} {
		if count := descCounts[descType]; count > 0 {
			poolSizes = append(poolSizes, vk.DescriptorPoolSize{
				Type:            descType,
				DescriptorCount: count,
			})
		}
	}

	layoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	err := vk.Error(vk.CreateDescriptorSetLayout(c.VKDevice, &layoutCreateInfo, nil, &layout))
	if err != nil {
		return vk.NullDescriptorSetLayout, nil, errors.Wrap(err, "create descriptor set layout")
	}
	return layout, poolSizes, nil
}

func (c *Context) createPipelineLayout(setLayout vk.DescriptorSetLayout) (vk.PipelineLayout, error) {
	layoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}

	var layout vk.PipelineLayout
	err := vk.Error(vk.CreatePipelineLayout(c.VKDevice, &layoutCreateInfo, nil, &layout))
	if err != nil {
		return vk.NullPipelineLayout, errors.Wrap(err, "create pipeline layout")
	}
	return layout, nil
}

func (c *Context) createShaderModule(code []byte) (vk.ShaderModule, error) {
	moduleCreateInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}

	var module vk.ShaderModule
	err := vk.Error(vk.CreateShaderModule(c.VKDevice, &moduleCreateInfo, nil, &module))
	if err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "create shader module")
	}
	return module, nil
}

// CreateComputeTask compiles a compute Task from shader bytecode. The
// workgroup size is injected through specialization constants 0/1/2.
func (c *Context) CreateComputeTask(cfg ComputeTaskConfig) (*Task, error) {
	setLayout, poolSizes, err := c.createDescriptorSetLayout(cfg.ResourceTypes)
	if err != nil {
		return nil, errors.Wrapf(err, "create compute task '%s'", cfg.Label)
	}
	pipeLayout, err := c.createPipelineLayout(setLayout)
	if err != nil {
		vk.DestroyDescriptorSetLayout(c.VKDevice, setLayout, nil)
		return nil, errors.Wrapf(err, "create compute task '%s'", cfg.Label)
	}
	shaderModule, err := c.createShaderModule(cfg.Code)
	if err != nil {
		vk.DestroyPipelineLayout(c.VKDevice, pipeLayout, nil)
		vk.DestroyDescriptorSetLayout(c.VKDevice, setLayout, nil)
		return nil, errors.Wrapf(err, "create compute task '%s'", cfg.Label)
	}

	workgroupSize := [3]int32{cfg.WorkgroupSize.X, cfg.WorkgroupSize.Y, cfg.WorkgroupSize.Z}
	specInfo := vk.SpecializationInfo{
		MapEntryCount: 3,
		PMapEntries: []vk.SpecializationMapEntry{
			{ConstantID: 0, Offset: 0, Size: 4},
			{ConstantID: 1, Offset: 4, Size: 4},
			{ConstantID: 2, Offset: 8, Size: 4},
		},
		DataSize: uint(unsafe.Sizeof(workgroupSize)),
		PData:    unsafe.Pointer(&workgroupSize[0]),
	}

	pipelineCreateInfo := vk.ComputePipelineCreateInfo{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:               vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:               vk.ShaderStageComputeBit,
			Module:              shaderModule,
			PName:               safeString(cfg.EntryName),
			PSpecializationInfo: []vk.SpecializationInfo{specInfo},
		},
		Layout: pipeLayout,
	}

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateComputePipelines(c.VKDevice, vk.NullPipelineCache,
		1, []vk.ComputePipelineCreateInfo{pipelineCreateInfo}, nil, pipelines))
	if err != nil {
		vk.DestroyShaderModule(c.VKDevice, shaderModule, nil)
		vk.DestroyPipelineLayout(c.VKDevice, pipeLayout, nil)
		vk.DestroyDescriptorSetLayout(c.VKDevice, setLayout, nil)
		return nil, errors.Wrapf(err, "create compute task '%s'", cfg.Label)
	}

	log.Printf("created compute task '%s'", cfg.Label)
	return &Task{
		Context:               c,
		Label:                 cfg.Label,
		VKDescriptorSetLayout: setLayout,
		VKPipelineLayout:      pipeLayout,
		VKPipeline:            pipelines[0],
		ResourceTypes:         append([]ResourceType(nil), cfg.ResourceTypes...),
		shaderModules:         []vk.ShaderModule{shaderModule},
		descPoolSizes:         poolSizes,
	}, nil
}

// CreateGraphicsTask compiles a graphics Task against this render pass.
// The single vertex binding packs the declared attributes contiguously;
// its stride is the sum of the attribute sizes.
func (p *RenderPass) CreateGraphicsTask(cfg GraphicsTaskConfig) (*Task, error) {
	c := p.Context

	setLayout, poolSizes, err := c.createDescriptorSetLayout(cfg.ResourceTypes)
	if err != nil {
		return nil, errors.Wrapf(err, "create graphics task '%s'", cfg.Label)
	}
	pipeLayout, err := c.createPipelineLayout(setLayout)
	if err != nil {
		vk.DestroyDescriptorSetLayout(c.VKDevice, setLayout, nil)
		return nil, errors.Wrapf(err, "create graphics task '%s'", cfg.Label)
	}

	cleanup := func(modules ...vk.ShaderModule) {
		for _, module := range modules {
			vk.DestroyShaderModule(c.VKDevice, module, nil)
		}
		vk.DestroyPipelineLayout(c.VKDevice, pipeLayout, nil)
		vk.DestroyDescriptorSetLayout(c.VKDevice, setLayout, nil)
	}

	vertModule, err := c.createShaderModule(cfg.VertexCode)
	if err != nil {
		cleanup()
		return nil, errors.Wrapf(err, "create graphics task '%s'", cfg.Label)
	}
	fragModule, err := c.createShaderModule(cfg.FragmentCode)
	if err != nil {
		cleanup(vertModule)
		return nil, errors.Wrapf(err, "create graphics task '%s'", cfg.Label)
	}

	attributes := make([]vk.VertexInputAttributeDescription, len(cfg.VertexInputs))
	stride := uint32(0)
	for i, input := range cfg.VertexInputs {
		if input.Rate == VertexInputRateInstance {
			cleanup(vertModule, fragModule)
			return nil, errors.Wrapf(ErrUnsupported,
				"instanced vertex input in task '%s'", cfg.Label)
		}
		format, err := input.Format.VKFormat()
		if err != nil {
			cleanup(vertModule, fragModule)
			return nil, errors.Wrapf(err, "vertex input #%d of task '%s'", i, cfg.Label)
		}
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  0,
			Format:   format,
			Offset:   stride,
		}
		stride += uint32(input.Format.Size())
	}
	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    stride,
		InputRate: vk.VertexInputRateVertex,
	}

	var topology vk.PrimitiveTopology
	switch cfg.Topology {
	case TopologyPoint:
		topology = vk.PrimitiveTopologyPointList
	case TopologyLine:
		topology = vk.PrimitiveTopologyLineList
	case TopologyTriangle:
		topology = vk.PrimitiveTopologyTriangleList
	default:
		cleanup(vertModule, fragModule)
		return nil, errors.Wrapf(ErrInvalidArgument,
			"unexpected topology (%d)", cfg.Topology)
	}

	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               topology,
		PrimitiveRestartEnable: vk.False,
	}

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(p.Viewport.Extent.Width),
		Height:   float32(p.Viewport.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{p.Viewport},
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		PolygonMode: vk.PolygonModeFill,
		LineWidth:   1.0,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	depthStencilState := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.True,
		DepthCompareOp:   vk.CompareOpLess,
		MinDepthBounds:   0.0,
		MaxDepthBounds:   1.0,
	}

	blendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{{
			BlendEnable: vk.False,
			ColorWriteMask: vk.ColorComponentFlags(
				vk.ColorComponentRBit | vk.ColorComponentGBit |
					vk.ColorComponentBBit | vk.ColorComponentABit),
		}},
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType: vk.StructureTypePipelineDynamicStateCreateInfo,
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: 2,
		PStages: []vk.PipelineShaderStageCreateInfo{
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageVertexBit,
				Module: vertModule,
				PName:  safeString(cfg.VertexEntryName),
			},
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageFragmentBit,
				Module: fragModule,
				PName:  safeString(cfg.FragmentEntryName),
			},
		},
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PDepthStencilState:  &depthStencilState,
		PColorBlendState:    &blendState,
		PDynamicState:       &dynamicState,
		Layout:              pipeLayout,
		RenderPass:          p.VKRenderPass,
		Subpass:             0,
	}

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateGraphicsPipelines(c.VKDevice, vk.NullPipelineCache,
		1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, nil, pipelines))
	if err != nil {
		cleanup(vertModule, fragModule)
		return nil, errors.Wrapf(err, "create graphics task '%s'", cfg.Label)
	}

	log.Printf("created graphics task '%s'", cfg.Label)
	return &Task{
		Context:               c,
		Label:                 cfg.Label,
		VKDescriptorSetLayout: setLayout,
		VKPipelineLayout:      pipeLayout,
		VKPipeline:            pipelines[0],
		ResourceTypes:         append([]ResourceType(nil), cfg.ResourceTypes...),
		shaderModules:         []vk.ShaderModule{vertModule, fragModule},
		descPoolSizes:         poolSizes,
	}, nil
}

// Destroy releases the pipeline, its layouts and shader modules.
// Destroying a destroyed task is a no-op.
func (t *Task) Destroy() {
	if t.VKPipeline == vk.NullPipeline {
		return
	}
	vk.DestroyPipeline(t.Context.VKDevice, t.VKPipeline, nil)
	for _, module := range t.shaderModules {
		vk.DestroyShaderModule(t.Context.VKDevice, module, nil)
	}
	t.shaderModules = nil
	vk.DestroyPipelineLayout(t.Context.VKDevice, t.VKPipelineLayout, nil)
	vk.DestroyDescriptorSetLayout(t.Context.VKDevice, t.VKDescriptorSetLayout, nil)
	t.VKPipeline = vk.NullPipeline
	log.Printf("destroyed task '%s'", t.Label)
}
