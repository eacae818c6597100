package memory

// Stream identifies one ordered queue of device work.
type Stream struct {
	Device int
	ID     int64
}

// DeviceAllocator is the underlying device memory backend.
type DeviceAllocator interface {
	// Malloc allocates size bytes on device and returns the base pointer.
	Malloc(device int, size int64) (uintptr, error)

	// Free releases a pointer previously returned by Malloc.
	Free(ptr uintptr) error

	// MemGetInfo reports free and total memory on device, in bytes.
	MemGetInfo(device int) (free, total uint64, err error)
}

// Event is one completion marker recorded on a stream.
type Event interface {
	// Query reports whether all work preceding the event has completed.
	Query() (bool, error)

	// Destroy releases the event's resources.
	Destroy() error
}

// EventSource records completion events on streams.
type EventSource interface {
	Record(stream Stream) (Event, error)
}
