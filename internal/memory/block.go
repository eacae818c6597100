package memory

// Rounding thresholds. Small allocations round to 512-byte multiples and are
// carved from 1 MiB slabs; everything above 1 MiB rounds to 128 KiB
// multiples and is backed exactly.
const (
	roundSmall int64 = 512
	roundLarge int64 = 128 * 1024
	smallAlloc int64 = 1 << 20
)

// block is one contiguous span of device memory, possibly split from a
// larger slab. Split siblings are doubly linked through prev/next; the sum
// of sizes along a chain always equals the chain's underlying slab size.
type block struct {
	device     int
	stream     Stream              // allocation stream
	streamUses map[Stream]struct{} // other streams this allocation was used on
	size       int64
	ptr        uintptr
	allocated  bool
	prev       *block
	next       *block
	eventCount int // outstanding completion events
}

func newBlock(device int, stream Stream, size int64, ptr uintptr) *block {
	return &block{device: device, stream: stream, size: size, ptr: ptr}
}

// less orders free blocks by (device, stream, size, pointer), which makes
// the smallest sufficient block on a given stream the first candidate at or
// after a search key.
func (b *block) less(other *block) bool {
	if b.device != other.device {
		return b.device < other.device
	}
	if b.stream.ID != other.stream.ID {
		return b.stream.ID < other.stream.ID
	}
	if b.size != other.size {
		return b.size < other.size
	}
	return b.ptr < other.ptr
}

// roundSize rounds a request up per the small/large policy.
func roundSize(size int64) int64 {
	if size < roundSmall {
		return roundSmall
	}
	if size < smallAlloc {
		return size + roundSmall - 1 - (size-1)%roundSmall
	}
	return size + roundLarge - 1 - (size-1)%roundLarge
}
