package vkcore

import (
	"github.com/pkg/errors"
)

// Error kinds surfaced by this package. Wrapped with additional context
// via github.com/pkg/errors; match with errors.Is.
var (
	// ErrUnsupported indicates the device lacks a required capability,
	// for example a compute queue family or a pixel format.
	ErrUnsupported = errors.New("unsupported")

	// ErrInvalidArgument indicates a malformed request, for example
	// mismatched copy sizes or an illegal usage/access combination in a
	// barrier.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrExhausted indicates a device allocation failure.
	ErrExhausted = errors.New("resource exhausted")
)
