package vkcore

import (
	"testing"

	"github.com/pkg/errors"
)

func TestPoolBindingSignature(t *testing.T) {
	pool := &ResourcePool{Task: &Task{
		Label: "sig",
		ResourceTypes: []ResourceType{
			ResourceTypeStorageBuffer,
			ResourceTypeSampledImage,
		},
	}}

	// A buffer-typed binding rejects image views and vice versa.
	if err := pool.BindImage(0, ImageView{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("image into buffer slot: %v", err)
	}
	if err := pool.BindBuffer(1, BufferView{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("buffer into image slot: %v", err)
	}
	if err := pool.BindBuffer(5, BufferView{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("out-of-range binding: %v", err)
	}

	// The pool above was never allocated, so a correctly classed bind
	// still fails as an empty pool.
	if err := pool.BindBuffer(0, BufferView{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty pool: %v", err)
	}
}
