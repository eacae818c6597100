package testutil

import (
	"fmt"
	"sync"
)

// FakeDevice is an in-memory DeviceAllocator with a fixed per-device
// capacity, call counting and fault injection.
//
// Thread-safety: safe for concurrent use via an internal mutex.
type FakeDevice struct {
	mu       sync.Mutex
	capacity uint64
	used     map[int]uint64
	next     uintptr
	live     map[uintptr]fakeAlloc

	mallocCalls int
	failNext    int
}

type fakeAlloc struct {
	device int
	size   int64
}

// NewFakeDevice creates a fake with the given capacity per device.
func NewFakeDevice(capacityPerDevice uint64) *FakeDevice {
	return &FakeDevice{
		capacity: capacityPerDevice,
		used:     make(map[int]uint64),
		live:     make(map[uintptr]fakeAlloc),
		next:     0x1000,
	}
}

// Malloc implements memory.DeviceAllocator.
func (d *FakeDevice) Malloc(device int, size int64) (uintptr, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.mallocCalls++
	if d.failNext > 0 {
		d.failNext--
		return 0, fmt.Errorf("injected allocation failure")
	}
	if d.used[device]+uint64(size) > d.capacity {
		return 0, fmt.Errorf("device %d exhausted: %d used of %d", device, d.used[device], d.capacity)
	}

	ptr := d.next
	d.next += uintptr(size)
	d.used[device] += uint64(size)
	d.live[ptr] = fakeAlloc{device: device, size: size}
	return ptr, nil
}

// Free implements memory.DeviceAllocator.
func (d *FakeDevice) Free(ptr uintptr) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.live[ptr]
	if !ok {
		return fmt.Errorf("freeing unknown pointer %#x", ptr)
	}
	delete(d.live, ptr)
	d.used[a.device] -= uint64(a.size)
	return nil
}

// MemGetInfo implements memory.DeviceAllocator.
func (d *FakeDevice) MemGetInfo(device int) (free, total uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capacity - d.used[device], d.capacity, nil
}

// MallocCalls returns how many times Malloc was invoked, including
// failures.
func (d *FakeDevice) MallocCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mallocCalls
}

// LiveBytes returns the bytes currently allocated on device.
func (d *FakeDevice) LiveBytes(device int) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used[device]
}

// LiveAllocations returns the number of outstanding backend allocations.
func (d *FakeDevice) LiveAllocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// FailNext makes the next n Malloc calls fail.
func (d *FakeDevice) FailNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}
