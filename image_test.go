package vkcore

import (
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestPixelFormatTable(t *testing.T) {
	cases := []struct {
		fmt  PixelFormat
		want vk.Format
	}{
		{PixelFormat{CompCount: 1, Single: true}, vk.FormatR32Sfloat},
		{PixelFormat{CompCount: 4, Single: true}, vk.FormatR32g32b32a32Sfloat},
		{PixelFormat{CompCount: 1, IntExp2: 1}, vk.FormatR8Unorm},
		{PixelFormat{CompCount: 4, IntExp2: 1}, vk.FormatR8g8b8a8Unorm},
		{PixelFormat{CompCount: 2, IntExp2: 2}, vk.FormatR16g16Uint},
		{PixelFormat{CompCount: 4, IntExp2: 3}, vk.FormatR32g32b32a32Uint},
		{PixelFormat{CompCount: 1, IntExp2: 1, Signed: true}, vk.FormatR8Snorm},
		{PixelFormat{CompCount: 3, IntExp2: 2, Signed: true}, vk.FormatR16g16b16Sint},
		{PixelFormat{CompCount: 2, IntExp2: 3, Signed: true}, vk.FormatR32g32Sint},
	}
	for _, c := range cases {
		got, err := c.fmt.VKFormat()
		if err != nil {
			t.Errorf("%+v: %v", c.fmt, err)
			continue
		}
		if got != c.want {
			t.Errorf("%+v: format %d, want %d", c.fmt, got, c.want)
		}
	}
}

func TestPixelFormatRejected(t *testing.T) {
	if _, err := (PixelFormat{CompCount: 4, Half: true}).VKFormat(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("half float: %v", err)
	}
	if _, err := (PixelFormat{CompCount: 5, IntExp2: 1}).VKFormat(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("5 components: %v", err)
	}
	if _, err := (PixelFormat{CompCount: 2, IntExp2: 4}).VKFormat(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad width exponent: %v", err)
	}
}

func TestPixelFormatSize(t *testing.T) {
	cases := []struct {
		fmt  PixelFormat
		want int
	}{
		{PixelFormat{CompCount: 1, IntExp2: 1}, 1},
		{PixelFormat{CompCount: 4, IntExp2: 1}, 4},
		{PixelFormat{CompCount: 2, IntExp2: 2}, 4},
		{PixelFormat{CompCount: 4, IntExp2: 3}, 16},
		{PixelFormat{CompCount: 3, Single: true}, 12},
	}
	for _, c := range cases {
		if got := c.fmt.Size(); got != c.want {
			t.Errorf("%+v: size %d, want %d", c.fmt, got, c.want)
		}
	}
}

func TestBufferUsageFlags(t *testing.T) {
	flags := BufferUsageStaging.vkFlags()
	want := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit)
	if flags != want {
		t.Errorf("staging: %#x, want %#x", flags, want)
	}

	// Usages compose by OR; a storage+vertex buffer keeps both roles and
	// stays copyable in both directions.
	flags = (BufferUsageStorage | BufferUsageVertex).vkFlags()
	want = vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit |
		vk.BufferUsageVertexBufferBit |
		vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit)
	if flags != want {
		t.Errorf("storage|vertex: %#x, want %#x", flags, want)
	}

	flags = BufferUsageUniform.vkFlags()
	if flags&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) == 0 {
		t.Error("uniform buffers must be transfer destinations")
	}
}
