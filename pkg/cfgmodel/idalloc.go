package cfgmodel

// IDAllocator hands out monotonically increasing node ids. A single
// allocator is shared across every routine built from the same
// translation unit so that the post-processor's function-call and
// function-return edges can reference a callee's ENTRY/EXIT id from
// within a different routine's Graph without colliding with that
// routine's own ids — a global uniqueness guarantee that also satisfies
// the weaker per-routine uniqueness a single CFG needs on its own.
type IDAllocator struct {
	next int
}

// NewIDAllocator returns an allocator starting at 1 (0 is reserved as
// the sentinel "no node" value).
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Next returns the next unused id.
func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}
