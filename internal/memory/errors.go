package memory

import (
	"errors"
	"fmt"
)

// AllocError represents an allocator failure. All errors are final; the only
// internal recovery is the single evict-and-retry on backend allocation
// failure.
type AllocError struct {
	// Code identifies the error category.
	Code AllocErrorCode

	// Message is a human-readable description.
	Message string

	// Device is the device the operation targeted, when known.
	Device int

	// Requested is the rounded request size for OUT_OF_MEMORY.
	Requested int64

	// Ptr is the offending pointer for INVALID_POINTER.
	Ptr uintptr
}

// AllocErrorCode categorizes allocator errors.
type AllocErrorCode string

const (
	// ErrCodeOutOfMemory indicates the backend was exhausted even after
	// evicting cached blocks.
	ErrCodeOutOfMemory AllocErrorCode = "OUT_OF_MEMORY"

	// ErrCodeInvalidPointer indicates a pointer unknown to the allocator.
	ErrCodeInvalidPointer AllocErrorCode = "INVALID_POINTER"
)

// Error implements the error interface.
func (e *AllocError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsOutOfMemory reports whether err is an OUT_OF_MEMORY.
// Uses errors.As to handle wrapped errors.
func IsOutOfMemory(err error) bool {
	var ae *AllocError
	return errors.As(err, &ae) && ae.Code == ErrCodeOutOfMemory
}

// IsInvalidPointer reports whether err is an INVALID_POINTER.
func IsInvalidPointer(err error) bool {
	var ae *AllocError
	return errors.As(err, &ae) && ae.Code == ErrCodeInvalidPointer
}

func invalidPointer(ptr uintptr) *AllocError {
	return &AllocError{
		Code:    ErrCodeInvalidPointer,
		Message: fmt.Sprintf("invalid device pointer: %#x", ptr),
		Ptr:     ptr,
	}
}

func outOfMemory(device int, requested int64, deviceFree, deviceTotal uint64, allocated, cached uint64) *AllocError {
	return &AllocError{
		Code: ErrCodeOutOfMemory,
		Message: fmt.Sprintf(
			"out of memory: tried to allocate %s (device %d; %s total capacity; %s already allocated; %s free; %s cached)",
			formatSize(uint64(requested)), device, formatSize(deviceTotal),
			formatSize(allocated), formatSize(deviceFree), formatSize(cached-allocated)),
		Device:    device,
		Requested: requested,
	}
}

// formatSize renders a byte count with a binary unit.
func formatSize(size uint64) string {
	switch {
	case size <= 1024:
		return fmt.Sprintf("%d bytes", size)
	case size <= 1048576:
		return fmt.Sprintf("%.2f KiB", float64(size)/1024.0)
	case size <= 1073741824:
		return fmt.Sprintf("%.2f MiB", float64(size)/1048576.0)
	default:
		return fmt.Sprintf("%.2f GiB", float64(size)/1073741824.0)
	}
}
