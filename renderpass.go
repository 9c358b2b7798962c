package vkcore

import (
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass bundles one color attachment with a framebuffer and a
// viewport covering the attachment's full extent. The attachment image
// is referenced, not owned.
type RenderPass struct {
	Context       *Context
	Attachment    *Image
	VKRenderPass  vk.RenderPass
	VKFramebuffer vk.Framebuffer
	Viewport      vk.Rect2D
	ClearValue    vk.ClearValue
}

// CreateRenderPass creates a single-subpass render pass rendering into
// attachment, which must be an attachment-usage image. The attachment is
// cleared on load and stored on completion; it stays in
// color-attachment-optimal layout on both ends.
func (c *Context) CreateRenderPass(attachment *Image) (*RenderPass, error) {
	if attachment.Config.Usage&ImageUsageAttachment == 0 {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"image '%s' is not an attachment", attachment.Config.Label)
	}

	attachmentDesc := vk.AttachmentDescription{
		Format:        attachment.VKFormat,
		Samples:       vk.SampleCount1Bit,
		LoadOp:        vk.AttachmentLoadOpClear,
		StoreOp:       vk.AttachmentStoreOpStore,
		InitialLayout: vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:   vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{attachmentDesc},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(c.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{attachment.VKImageView},
		Width:           attachment.Config.Width,
		Height:          attachment.Config.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	err = vk.Error(vk.CreateFramebuffer(c.VKDevice, &framebufferCreateInfo, nil, &framebuffer))
	if err != nil {
		vk.DestroyRenderPass(c.VKDevice, renderPass, nil)
		return nil, errors.Wrap(err, "create framebuffer")
	}

	pass := &RenderPass{
		Context:       c,
		Attachment:    attachment,
		VKRenderPass:  renderPass,
		VKFramebuffer: framebuffer,
		Viewport: vk.Rect2D{
			Extent: vk.Extent2D{
				Width:  attachment.Config.Width,
				Height: attachment.Config.Height,
			},
		},
	}
	pass.ClearValue.SetColor([]float32{0, 0, 0, 1})

	log.Printf("created render pass")
	return pass, nil
}

// SetClearColor sets the color the attachment is cleared to when the
// pass begins.
func (p *RenderPass) SetClearColor(r, g, b, a float32) {
	p.ClearValue.SetColor([]float32{r, g, b, a})
}

// Destroy releases the pass and framebuffer. Destroying a destroyed
// pass is a no-op.
func (p *RenderPass) Destroy() {
	if p.VKRenderPass == vk.NullRenderPass {
		return
	}
	vk.DestroyFramebuffer(p.Context.VKDevice, p.VKFramebuffer, nil)
	vk.DestroyRenderPass(p.Context.VKDevice, p.VKRenderPass, nil)
	p.VKRenderPass = vk.NullRenderPass
	p.VKFramebuffer = vk.NullFramebuffer
	log.Printf("destroyed render pass")
}
