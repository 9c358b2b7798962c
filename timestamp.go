package vkcore

import (
	"log"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Timestamp is a single-entry timestamp query written by
// CmdWriteTimestamp and read back in microseconds.
type Timestamp struct {
	Context     *Context
	VKQueryPool vk.QueryPool
}

// CreateTimestamp creates a one-entry timestamp query pool.
func (c *Context) CreateTimestamp() (*Timestamp, error) {
	if !c.timestampValid {
		return nil, errors.Wrap(ErrUnsupported, "device does not support timestamps")
	}

	queryPoolCreateInfo := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: 1,
	}

	var queryPool vk.QueryPool
	err := vk.Error(vk.CreateQueryPool(c.VKDevice, &queryPoolCreateInfo, nil, &queryPool))
	if err != nil {
		return nil, errors.Wrap(err, "create query pool")
	}

	log.Printf("created timestamp")
	return &Timestamp{Context: c, VKQueryPool: queryPool}, nil
}

// Destroy releases the query pool. Destroying a destroyed timestamp is
// a no-op.
func (t *Timestamp) Destroy() {
	if t.VKQueryPool == vk.NullQueryPool {
		return
	}
	vk.DestroyQueryPool(t.Context.VKDevice, t.VKQueryPool, nil)
	t.VKQueryPool = vk.NullQueryPool
	log.Printf("destroyed timestamp")
}

// GetTimeUs blocks until the query result is available and returns the
// written timestamp in microseconds, scaled by the device's tick period.
func (t *Timestamp) GetTimeUs() (float64, error) {
	var ticks uint64
	err := vk.Error(vk.GetQueryPoolResults(t.Context.VKDevice, t.VKQueryPool,
		0, 1, uint(unsafe.Sizeof(ticks)), unsafe.Pointer(&ticks),
		vk.DeviceSize(unsafe.Sizeof(ticks)),
		vk.QueryResultFlags(vk.QueryResult64Bit|vk.QueryResultWaitBit)))
	if err != nil {
		return 0, errors.Wrap(err, "query timestamp")
	}
	return float64(ticks) * t.Context.nsPerTick / 1000.0, nil
}
