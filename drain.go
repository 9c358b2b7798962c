package vkcore

import (
	"log"
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// waitSpinInterval is how long one fence wait blocks before the drain
// re-polls.
const waitSpinInterval = 3 * time.Millisecond

// CommandDrain is a one-shot primary submission scope. It owns the
// command pools and semaphores of everything submitted through it until
// Wait observes completion through its fence.
type CommandDrain struct {
	Context       *Context
	SubmitDetails []*TransactionSubmitDetail
	VKFence       vk.Fence

	pending bool
}

// CreateCommandDrain creates an empty drain.
func (c *Context) CreateCommandDrain() (*CommandDrain, error) {
	fence, err := c.createFence()
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	log.Printf("created command drain")
	return &CommandDrain{Context: c, VKFence: fence}, nil
}

// Destroy releases the drain and anything it still owns. Destroying a
// destroyed drain is a no-op.
func (d *CommandDrain) Destroy() {
	if d.VKFence == vk.NullFence {
		return
	}
	clearSubmitDetails(d.Context, d.SubmitDetails)
	d.SubmitDetails = nil
	vk.DestroyFence(d.Context.VKDevice, d.VKFence, nil)
	d.VKFence = vk.NullFence
	log.Printf("destroyed command drain")
}

// SubmitCommands translates the command sequence at primary level and
// submits it. Intermediate submit details are submitted as soon as a
// submit-type boundary closes them; the trailing one is submitted here
// with the drain's fence attached. Submitting an empty sequence is a
// caller contract violation.
func (d *CommandDrain) SubmitCommands(cmds ...Command) error {
	if len(cmds) == 0 {
		panic("cannot submit empty command sequence")
	}

	transact := transactionLike{
		ctxt:  d.Context,
		level: vk.CommandBufferLevelPrimary,
	}
	start := time.Now()
	for i := range cmds {
		if err := transact.recordCommand(cmds[i]); err != nil {
			clearSubmitDetails(d.Context, transact.submitDetails)
			return err
		}
	}
	d.SubmitDetails = transact.submitDetails

	if len(d.SubmitDetails) == 0 {
		log.Printf("WARNING: command sequence recorded no work")
		return nil
	}

	last := d.SubmitDetails[len(d.SubmitDetails)-1]
	if err := endCommandBuffer(last); err != nil {
		return err
	}
	if err := transact.submitDetail(last, d.VKFence); err != nil {
		return err
	}
	d.pending = true

	log.Printf("submitted transaction for execution, command recording took %v",
		time.Since(start))
	return nil
}

// Wait blocks until the drain's fence signals, polling on a fixed spin
// interval, then recycles the submitted command pools and semaphores and
// resets the fence. There is no timeout and no cancellation.
func (d *CommandDrain) Wait() error {
	if !d.pending {
		return nil
	}
	for {
		result := vk.WaitForFences(d.Context.VKDevice, 1, []vk.Fence{d.VKFence},
			vk.True, uint64(waitSpinInterval.Nanoseconds()))
		if result == vk.Timeout {
			continue
		}
		if result != vk.Success {
			return errors.Wrap(vk.Error(result), "wait command drain")
		}
		break
	}

	clearSubmitDetails(d.Context, d.SubmitDetails)
	d.SubmitDetails = nil
	err := vk.Error(vk.ResetFences(d.Context.VKDevice, 1, []vk.Fence{d.VKFence}))
	if err != nil {
		return errors.Wrap(err, "reset fence")
	}
	d.pending = false
	return nil
}
