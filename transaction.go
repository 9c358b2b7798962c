package vkcore

import (
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Transaction is a prerecorded set of secondary command buffers. It is
// immutable after creation and may be inline-scheduled any number of
// times while it and the resources it references are alive. The
// semaphores carried by its submit details are vestigial: secondary
// buffers execute inside the primary that schedules them.
type Transaction struct {
	Label         string
	Context       *Context
	SubmitDetails []*TransactionSubmitDetail
}

// CreateTransaction translates the command sequence at secondary level.
// The sequence must record work into at least one command buffer.
func (c *Context) CreateTransaction(label string, cmds ...Command) (*Transaction, error) {
	transact := transactionLike{
		ctxt:  c,
		level: vk.CommandBufferLevelSecondary,
	}
	for i := range cmds {
		if err := transact.recordCommand(cmds[i]); err != nil {
			clearSubmitDetails(c, transact.submitDetails)
			return nil, err
		}
	}
	if len(transact.submitDetails) == 0 {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"transaction '%s' recorded no work", label)
	}
	last := transact.submitDetails[len(transact.submitDetails)-1]
	if err := endCommandBuffer(last); err != nil {
		clearSubmitDetails(c, transact.submitDetails)
		return nil, err
	}

	log.Printf("created transaction '%s'", label)
	return &Transaction{
		Label:         label,
		Context:       c,
		SubmitDetails: transact.submitDetails,
	}, nil
}

// Destroy releases the transaction's command pools and semaphores.
// Destroying a destroyed transaction is a no-op.
func (t *Transaction) Destroy() {
	if t.SubmitDetails == nil {
		return
	}
	clearSubmitDetails(t.Context, t.SubmitDetails)
	t.SubmitDetails = nil
	log.Printf("destroyed transaction '%s'", t.Label)
}
