/*
Package vkcore is a thin hardware-abstraction layer over Vulkan for compute
and graphics workloads.

Applications describe work in terms of high-level resources - buffers,
images, tasks and render passes - and submit flat sequences of commands.
The package translates each sequence into one or more queue-family-bound
command buffers, inserting the cross-queue semaphores required to
preserve the order the commands were recorded in. Pipeline barriers and
image layout transitions are recorded only where the sequence carries
explicit CmdBufferBarrier or CmdImageBarrier commands.

A typical compute roundtrip looks like:

	vkcore.Initialize()

	ctxt, err := vkcore.CreateContext(vkcore.ContextConfig{Label: "demo"})
	buf, err := ctxt.CreateBuffer(vkcore.BufferConfig{
		Label:        "data",
		Size:         1024,
		HostAccess:   vkcore.MemoryAccessReadWrite,
		Usage:        vkcore.BufferUsageStorage,
	})
	task, err := ctxt.CreateComputeTask(vkcore.ComputeTaskConfig{
		Label:         "step",
		EntryName:     "main",
		Code:          code, // opaque SPIR-V produced by an external compiler
		ResourceTypes: []vkcore.ResourceType{vkcore.ResourceTypeStorageBuffer},
		WorkgroupSize: vkcore.WorkgroupSize{X: 64, Y: 1, Z: 1},
	})
	pool, err := task.CreateResourcePool()
	err = pool.BindBuffer(0, buf.View())

	drain, err := ctxt.CreateCommandDrain()
	err = drain.SubmitCommands(
		vkcore.CmdSetSubmitType(vkcore.SubmitTypeCompute),
		vkcore.CmdDispatch(task, pool, 4, 1, 1),
	)
	err = drain.Wait()

The package wraps only the slice of Vulkan this model needs. Native
handles are exposed on every wrapper struct with VK-prefixed field names
so applications can drop down to the raw API when the abstraction runs
out.

Recording and submission are single-threaded per Context. The device
executes asynchronously; the only blocking calls are CommandDrain.Wait,
Timestamp.GetTimeUs and Context.WaitIdle.
*/
package vkcore
