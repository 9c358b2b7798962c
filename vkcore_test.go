package vkcore

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// testContext creates a Context on the first device, skipping the test
// when no Vulkan runtime or device is present.
func testContext(t *testing.T) *Context {
	t.Helper()
	if err := Initialize(); err != nil {
		t.Skipf("no vulkan runtime: %v", err)
	}
	if PhysicalDeviceCount() == 0 {
		t.Skip("no vulkan devices")
	}
	ctxt, err := CreateContext(ContextConfig{Label: "test"})
	if err != nil {
		t.Skipf("cannot create context: %v", err)
	}
	return ctxt
}

// anySubmitType returns a submit type the context can serve.
func anySubmitType(t *testing.T, ctxt *Context) SubmitType {
	t.Helper()
	for _, ty := range []SubmitType{SubmitTypeCompute, SubmitTypeGraphics} {
		if ctxt.SupportsSubmitType(ty) {
			return ty
		}
	}
	t.Skip("device serves neither compute nor graphics")
	return SubmitTypeAny
}

func TestInitializeIdempotent(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Skipf("no vulkan runtime: %v", err)
	}
	if err := Initialize(); err != nil {
		t.Errorf("redundant initialize: %v", err)
	}
	if PhysicalDeviceCount() > 0 && DescribeDevice(0) == "" {
		t.Error("first device has no description")
	}
}

func TestBufferDestroyIdempotent(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()

	buf, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "scratch",
		Size:       256,
		HostAccess: MemoryAccessReadWrite,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	buf.Destroy()
	buf.Destroy()
}

func TestBufferHostRoundtrip(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()

	buf, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "roundtrip",
		Size:       64,
		HostAccess: MemoryAccessReadWrite,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	wrote := make([]byte, 64)
	for i := range wrote {
		wrote[i] = byte(i * 3)
	}
	if err := buf.View().CopyFromHost(wrote); err != nil {
		t.Fatal(err)
	}
	read := make([]byte, 64)
	if err := buf.View().CopyToHost(read); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(wrote, read) {
		t.Error("readback does not match written data")
	}
}

func TestDeviceCopyBuffer(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()
	submitType := anySubmitType(t, ctxt)

	src, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "src",
		Size:       128,
		HostAccess: MemoryAccessWriteOnly,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Destroy()
	dst, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "dst",
		Size:       128,
		HostAccess: MemoryAccessReadOnly,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Destroy()

	wrote := make([]byte, 128)
	for i := range wrote {
		wrote[i] = byte(255 - i)
	}
	if err := src.View().CopyFromHost(wrote); err != nil {
		t.Fatal(err)
	}

	drain, err := ctxt.CreateCommandDrain()
	if err != nil {
		t.Fatal(err)
	}
	defer drain.Destroy()

	err = drain.SubmitCommands(
		CmdSetSubmitType(submitType),
		CmdBufferBarrier(src, BufferUsageStaging, MemoryAccessNone,
			BufferUsageStaging, MemoryAccessReadOnly),
		CmdCopyBuffer(src.View(), dst.View()),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := drain.Wait(); err != nil {
		t.Fatal(err)
	}

	read := make([]byte, 128)
	if err := dst.View().CopyToHost(read); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(wrote, read) {
		t.Error("device copy did not preserve data")
	}
}

func TestCrossClassFencing(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()
	if !ctxt.SupportsSubmitType(SubmitTypeCompute) ||
		!ctxt.SupportsSubmitType(SubmitTypeGraphics) {
		t.Skip("device does not serve both compute and graphics")
	}

	buf, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "pingpong",
		Size:       64,
		HostAccess: MemoryAccessReadWrite,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	drain, err := ctxt.CreateCommandDrain()
	if err != nil {
		t.Fatal(err)
	}
	defer drain.Destroy()

	err = drain.SubmitCommands(
		CmdSetSubmitType(SubmitTypeCompute),
		CmdBufferBarrier(buf, BufferUsageStaging, MemoryAccessNone,
			BufferUsageStaging, MemoryAccessReadOnly),
		CmdSetSubmitType(SubmitTypeGraphics),
		CmdBufferBarrier(buf, BufferUsageStaging, MemoryAccessReadOnly,
			BufferUsageStaging, MemoryAccessNone),
	)
	if err != nil {
		t.Fatal(err)
	}

	details := drain.SubmitDetails
	if len(details) != 2 {
		t.Fatalf("expected 2 submit details, got %d", len(details))
	}
	if details[0].SubmitType != SubmitTypeCompute ||
		details[1].SubmitType != SubmitTypeGraphics {
		t.Errorf("submit classes %v, %v; want compute, graphics",
			details[0].SubmitType, details[1].SubmitType)
	}
	if details[0].VKWaitSemaphore != vk.NullSemaphore {
		t.Error("first detail must wait on nothing")
	}
	if details[1].VKWaitSemaphore != details[0].VKSignalSemaphore {
		t.Error("chain broken: detail 1 must wait on detail 0's signal")
	}

	if err := drain.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestZeroSizedCopyRecordsNothing(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()
	submitType := anySubmitType(t, ctxt)

	buf, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "empty",
		Size:       16,
		HostAccess: MemoryAccessReadWrite,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	drain, err := ctxt.CreateCommandDrain()
	if err != nil {
		t.Fatal(err)
	}
	defer drain.Destroy()

	err = drain.SubmitCommands(
		CmdSetSubmitType(submitType),
		CmdCopyBuffer(buf.ViewRange(0, 0), buf.ViewRange(0, 0)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(drain.SubmitDetails) != 1 {
		t.Errorf("expected the forced detail only, got %d", len(drain.SubmitDetails))
	}
	if err := drain.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestCopyBufferSizeMismatch(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()
	submitType := anySubmitType(t, ctxt)

	buf, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "mismatch",
		Size:       32,
		HostAccess: MemoryAccessReadWrite,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	drain, err := ctxt.CreateCommandDrain()
	if err != nil {
		t.Fatal(err)
	}
	defer drain.Destroy()

	err = drain.SubmitCommands(
		CmdSetSubmitType(submitType),
		CmdCopyBuffer(buf.ViewRange(0, 16), buf.ViewRange(16, 8)),
	)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestStagingImageUsageExclusive(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()

	_, err := ctxt.CreateImage(ImageConfig{
		Label:      "bad",
		Width:      4,
		Height:     4,
		Format:     PixelFormat{CompCount: 4, IntExp2: 1},
		HostAccess: MemoryAccessWriteOnly,
		Usage:      ImageUsageStaging | ImageUsageSampled,
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestTransactionRequiresWork(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()

	_, err := ctxt.CreateTransaction("empty")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestInlineTransaction(t *testing.T) {
	ctxt := testContext(t)
	defer ctxt.Destroy()
	submitType := anySubmitType(t, ctxt)

	src, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "tx-src",
		Size:       32,
		HostAccess: MemoryAccessWriteOnly,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Destroy()
	dst, err := ctxt.CreateBuffer(BufferConfig{
		Label:      "tx-dst",
		Size:       32,
		HostAccess: MemoryAccessReadOnly,
		Usage:      BufferUsageStaging,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Destroy()

	wrote := make([]byte, 32)
	for i := range wrote {
		wrote[i] = byte(i ^ 0x5a)
	}
	if err := src.View().CopyFromHost(wrote); err != nil {
		t.Fatal(err)
	}

	transaction, err := ctxt.CreateTransaction("copy",
		CmdSetSubmitType(submitType),
		CmdCopyBuffer(src.View(), dst.View()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer transaction.Destroy()

	drain, err := ctxt.CreateCommandDrain()
	if err != nil {
		t.Fatal(err)
	}
	defer drain.Destroy()

	err = drain.SubmitCommands(
		CmdSetSubmitType(submitType),
		CmdInlineTransaction(transaction),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := drain.Wait(); err != nil {
		t.Fatal(err)
	}

	read := make([]byte, 32)
	if err := dst.View().CopyToHost(read); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(wrote, read) {
		t.Error("inlined transaction did not copy data")
	}
}
