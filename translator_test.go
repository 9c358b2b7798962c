package vkcore

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}

func TestAnyClassWithoutSubmitTypePanics(t *testing.T) {
	transact := transactionLike{level: vk.CommandBufferLevelPrimary}
	src := BufferView{Buffer: &Buffer{}, Size: 8}
	dst := BufferView{Buffer: &Buffer{}, Size: 8}
	expectPanic(t, "copy without submit type", func() {
		transact.recordCommand(CmdCopyBuffer(src, dst))
	})
}

func TestNestedInlineTransactionPanics(t *testing.T) {
	transact := transactionLike{level: vk.CommandBufferLevelSecondary}
	expectPanic(t, "inline in secondary recording", func() {
		transact.recordCommand(CmdInlineTransaction(&Transaction{}))
	})
}

func TestEmptySubmitPanics(t *testing.T) {
	drain := &CommandDrain{}
	expectPanic(t, "empty submit", func() {
		drain.SubmitCommands()
	})
}

func TestUnknownCommandRejected(t *testing.T) {
	transact := transactionLike{level: vk.CommandBufferLevelPrimary}
	err := transact.recordCommand(Command{Type: CommandType(99)})
	if err == nil {
		t.Error("expected error for unknown command tag")
	}
}
