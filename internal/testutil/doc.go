// Package testutil provides deterministic fakes for tests: an in-memory
// device allocator with fault injection and a manually completed event
// source. Production code must not import it.
package testutil
