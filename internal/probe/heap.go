package probe

import "runtime"

// HeapReader reports the bytes currently allocated on the heap.
type HeapReader interface {
	HeapBytes() uint64
}

// HeapFunc adapts a function to HeapReader.
type HeapFunc func() uint64

func (f HeapFunc) HeapBytes() uint64 { return f() }

// RuntimeHeap reads runtime.MemStats.HeapAlloc.
type RuntimeHeap struct {
	// ForceGC runs a collection before each reading so only reachable
	// objects are counted.
	ForceGC bool
}

func (h RuntimeHeap) HeapBytes() uint64 {
	if h.ForceGC {
		runtime.GC()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
