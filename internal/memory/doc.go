// Package memory implements a stream-aware caching allocator over an
// underlying device memory backend.
//
// Allocations are associated with a stream. Once freed, a block can be
// re-allocated on the same stream, but not on any other stream. The
// allocator hands out the smallest cached block that fits the request,
// splitting it when the leftover is worth keeping. When nothing fits it
// delegates to the backend; if the backend fails it evicts all unsplit
// cached blocks and retries once. Large (>1 MiB) and small requests are kept
// in separate pools; small requests carve 1 MiB slabs.
//
// Allocations and frees are "usages" of the memory segment on the
// allocation stream, like kernel launches. RecordStream marks a block as
// used on additional streams; at free time one completion event per
// recorded stream is enqueued and the block only re-enters its free pool
// once every event has completed. Event-based deferral is the sole
// cross-stream ordering mechanism.
//
// CONCURRENCY: the allocator is fully concurrent, serialized by two ordered
// locks - the primary mutex over all per-device state, and a secondary
// mutex around the backend's free primitive (so collective-communication
// libraries holding a device lock cannot deadlock against eviction). Lock
// order is always primary then secondary. No call blocks inside a critical
// section.
package memory
