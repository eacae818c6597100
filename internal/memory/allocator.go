package memory

import (
	"sort"
	"sync"

	"github.com/google/btree"
)

// Allocator is the stream-aware caching allocator. See the package comment
// for the caching and deferral model.
type Allocator struct {
	// mu guards all per-device state: pools, the allocated map, statistics
	// and the event queue.
	mu sync.Mutex

	// deviceFreeMu serializes calls into the backend's free primitive.
	// Lock order is mu then deviceFreeMu.
	deviceFreeMu sync.Mutex

	backend DeviceAllocator
	events  EventSource

	small *btree.BTreeG[*block] // cached blocks of 1 MiB or less
	large *btree.BTreeG[*block] // cached blocks larger than 1 MiB

	allocated map[uintptr]*block

	// pending is the FIFO of (event, block) pairs deferring reuse
	pending []eventEntry

	stats map[int]*DeviceStats
}

type eventEntry struct {
	event Event
	block *block
}

// NewAllocator creates an allocator over the given backend and event source.
func NewAllocator(backend DeviceAllocator, events EventSource) *Allocator {
	less := func(a, b *block) bool { return a.less(b) }
	return &Allocator{
		backend:   backend,
		events:    events,
		small:     btree.NewG(8, less),
		large:     btree.NewG(8, less),
		allocated: make(map[uintptr]*block),
		stats:     make(map[int]*DeviceStats),
	}
}

func (a *Allocator) poolFor(size int64) *btree.BTreeG[*block] {
	if size <= smallAlloc {
		return a.small
	}
	return a.large
}

// Malloc allocates size bytes safe to use from stream and returns the
// device pointer.
func (a *Allocator) Malloc(device int, size int64, stream Stream) (uintptr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.processEventsLocked(); err != nil {
		return 0, err
	}

	size = roundSize(size)
	small := size <= smallAlloc
	pool := a.poolFor(size)
	stats := a.statsFor(device)

	var blk *block
	search := &block{device: device, stream: stream, size: size}
	pool.AscendGreaterOrEqual(search, func(candidate *block) bool {
		if candidate.device == device && candidate.stream == stream {
			blk = candidate
		}
		return false
	})

	if blk != nil {
		pool.Delete(blk)
	} else {
		allocSize := size
		if small {
			allocSize = smallAlloc
		}
		ptr, err := a.mallocRetryLocked(device, allocSize)
		if err != nil {
			deviceFree, deviceTotal, infoErr := a.backend.MemGetInfo(device)
			if infoErr != nil {
				return 0, infoErr
			}
			return 0, outOfMemory(device, size, deviceFree, deviceTotal,
				stats.amountAllocated, stats.amountCached)
		}
		stats.increaseCached(uint64(allocSize))
		blk = newBlock(device, stream, allocSize, ptr)
	}

	// Split when the leftover is worth keeping as its own free block.
	minRemainder := roundSmall
	if !small {
		minRemainder = smallAlloc + 1
	}
	if blk.size-size >= minRemainder {
		remaining := blk
		blk = newBlock(device, stream, size, remaining.ptr)
		blk.prev = remaining.prev
		if blk.prev != nil {
			blk.prev.next = blk
		}
		blk.next = remaining
		remaining.prev = blk
		remaining.ptr += uintptr(size)
		remaining.size -= size
		pool.ReplaceOrInsert(remaining)
	}

	blk.allocated = true
	a.allocated[blk.ptr] = blk
	stats.increaseAllocated(uint64(blk.size))
	return blk.ptr, nil
}

// Free releases ptr back to the cache. When the block was used on streams
// other than its allocation stream, reuse is deferred until one completion
// event per using stream has finished.
func (a *Allocator) Free(ptr uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ptr == 0 {
		return nil
	}
	blk, ok := a.allocated[ptr]
	if !ok {
		return invalidPointer(ptr)
	}
	delete(a.allocated, ptr)
	blk.allocated = false
	a.statsFor(blk.device).decreaseAllocated(uint64(blk.size))

	if len(blk.streamUses) > 0 {
		return a.insertEventsLocked(blk)
	}
	a.freeBlockLocked(blk)
	return nil
}

// RecordStream marks the allocation at ptr as used on stream. Uses on the
// allocation stream need no extra synchronization and are ignored.
func (a *Allocator) RecordStream(ptr uintptr, stream Stream) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	blk, ok := a.allocated[ptr]
	if !ok {
		return invalidPointer(ptr)
	}
	if stream == blk.stream {
		return nil
	}
	if blk.streamUses == nil {
		blk.streamUses = make(map[Stream]struct{})
	}
	blk.streamUses[stream] = struct{}{}
	return nil
}

// BaseAllocation returns the base pointer and total size of the slab that
// contains ptr.
func (a *Allocator) BaseAllocation(ptr uintptr) (uintptr, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	blk, ok := a.allocated[ptr]
	if !ok {
		return 0, 0, invalidPointer(ptr)
	}
	for blk.prev != nil {
		blk = blk.prev
	}
	base := blk.ptr
	var total int64
	for cur := blk; cur != nil; cur = cur.next {
		total += cur.size
	}
	return base, total, nil
}

// CacheInfo reports the total cached bytes and the largest cached block on
// device.
func (a *Allocator) CacheInfo(device int) (total, largest int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	scan := func(pool *btree.BTreeG[*block]) {
		pool.Ascend(func(b *block) bool {
			if b.device == device {
				total += b.size
				if b.size > largest {
					largest = b.size
				}
			}
			return true
		})
	}
	scan(a.large)
	scan(a.small)
	return total, largest
}

// ProcessEvents drains completed events from the front of the queue,
// returning deferred blocks to their pools.
func (a *Allocator) ProcessEvents() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.processEventsLocked()
}

// EmptyCache returns every cached, unsplit block to the backend.
func (a *Allocator) EmptyCache() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.freeBlocksInPoolLocked(a.large, nil); err != nil {
		return err
	}
	return a.freeBlocksInPoolLocked(a.small, nil)
}

// FreeCachedBlocks returns device's cached, unsplit blocks to the backend.
func (a *Allocator) FreeCachedBlocks(device int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.freeCachedBlocksLocked(device)
}

// --- internals ----------------------------------------------------------

// mallocRetryLocked delegates to the backend; on failure it evicts all
// unsplit cached blocks on the device and retries exactly once.
func (a *Allocator) mallocRetryLocked(device int, size int64) (uintptr, error) {
	ptr, err := a.backend.Malloc(device, size)
	if err == nil {
		return ptr, nil
	}
	if evictErr := a.freeCachedBlocksLocked(device); evictErr != nil {
		return 0, evictErr
	}
	return a.backend.Malloc(device, size)
}

func (a *Allocator) freeCachedBlocksLocked(device int) error {
	match := func(b *block) bool { return b.device == device }
	if err := a.freeBlocksInPoolLocked(a.large, match); err != nil {
		return err
	}
	return a.freeBlocksInPoolLocked(a.small, match)
}

// freeBlocksInPoolLocked returns the pool's unsplit blocks matching the
// filter (nil matches all) to the backend. Split blocks stay cached: their
// siblings may still be in use.
func (a *Allocator) freeBlocksInPoolLocked(pool *btree.BTreeG[*block], match func(*block) bool) error {
	var victims []*block
	pool.Ascend(func(b *block) bool {
		if (match == nil || match(b)) && b.prev == nil && b.next == nil {
			victims = append(victims, b)
		}
		return true
	})

	a.deviceFreeMu.Lock()
	defer a.deviceFreeMu.Unlock()
	for _, b := range victims {
		if err := a.backend.Free(b.ptr); err != nil {
			return err
		}
		a.statsFor(b.device).decreaseCached(uint64(b.size))
		pool.Delete(b)
	}
	return nil
}

// freeBlockLocked inserts blk into its pool, coalescing with free split
// siblings first.
func (a *Allocator) freeBlockLocked(blk *block) {
	a.tryMergeLocked(blk, blk.prev)
	a.tryMergeLocked(blk, blk.next)
	a.poolFor(blk.size).ReplaceOrInsert(blk)
}

// tryMergeLocked combines previously split adjacent blocks. src is skipped
// unless it is free with no outstanding events.
func (a *Allocator) tryMergeLocked(dst, src *block) {
	if src == nil || src.allocated || src.eventCount > 0 {
		return
	}
	if dst.prev == src {
		dst.ptr = src.ptr
		dst.prev = src.prev
		if dst.prev != nil {
			dst.prev.next = dst
		}
	} else {
		dst.next = src.next
		if dst.next != nil {
			dst.next.prev = dst
		}
	}
	dst.size += src.size
	a.poolFor(src.size).Delete(src)
}

// insertEventsLocked records one completion event per stream that used blk
// and queues them for ProcessEvents.
func (a *Allocator) insertEventsLocked(blk *block) error {
	streams := make([]Stream, 0, len(blk.streamUses))
	for s := range blk.streamUses {
		streams = append(streams, s)
	}
	blk.streamUses = nil
	sort.Slice(streams, func(i, j int) bool {
		if streams[i].Device != streams[j].Device {
			return streams[i].Device < streams[j].Device
		}
		return streams[i].ID < streams[j].ID
	})

	for _, s := range streams {
		event, err := a.events.Record(s)
		if err != nil {
			return err
		}
		blk.eventCount++
		a.pending = append(a.pending, eventEntry{event: event, block: blk})
	}
	return nil
}

// processEventsLocked pops completed events off the queue front, stopping
// at the first incomplete one. Later completed events may be delayed, which
// only makes reuse more conservative.
func (a *Allocator) processEventsLocked() error {
	for len(a.pending) > 0 {
		entry := a.pending[0]
		done, err := entry.event.Query()
		if err != nil {
			return err
		}
		if !done {
			break
		}
		if err := entry.event.Destroy(); err != nil {
			return err
		}
		entry.block.eventCount--
		if entry.block.eventCount == 0 && !entry.block.allocated {
			a.freeBlockLocked(entry.block)
		}
		a.pending = a.pending[1:]
	}
	return nil
}
