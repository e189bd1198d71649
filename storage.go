// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package bbq

// StorageProvider supplies the fixed-capacity, mutable byte region a Queue
// is built on. Capacity is fixed for the lifetime of the provider; the
// region's contents are not guaranteed to be zeroed until ZeroInitialized
// reports true or the queue performs its own zeroing at split time.
//
// This is the Go equivalent of the three storage-provider variants
// original_source/core/src/storage_provider.rs exposes: an inline array
// owned by the queue, a caller-owned slice, and any other caller-supplied
// region meeting the same contract (see bbq/storagemmap for a third,
// mmap-backed implementation).
type StorageProvider interface {
	// Bytes returns the backing region. Callers must not retain the slice
	// beyond the provider's lifetime or resize it.
	Bytes() []byte

	// ZeroInitialized reports whether the region is already known to be
	// all-zero (e.g. freshly mmapped anonymous memory, or a Go make([]byte,
	// n) allocation, which the runtime always zeroes). When false, the
	// queue zeroes the region itself each time it is split.
	ZeroInitialized() bool
}

// heapStorage is the provider-owned variant: it allocates its own backing
// slice once, at construction, and never reallocates it. This is the
// idiomatic Go stand-in for the Rust "inline fixed-size array" variant —
// Go has no const-generic array length, so the closest equivalent that
// preserves "a fixed region whose size never changes" is a slice allocated
// once and handed out by reference from then on.
type heapStorage struct {
	buf []byte
}

// NewHeapStorage allocates a new provider-owned byte region of the given
// capacity.
func NewHeapStorage(capacity int) StorageProvider {
	if capacity < 0 {
		capacity = 0
	}
	return &heapStorage{buf: make([]byte, capacity)}
}

func (h *heapStorage) Bytes() []byte { return h.buf }

// make([]byte, n) is always zeroed by the Go runtime.
func (h *heapStorage) ZeroInitialized() bool { return true }

// sliceStorage wraps a caller-owned byte slice, lifetime tied to the
// caller, matching storage_provider.rs's SliceStorageProvider.
type sliceStorage struct {
	buf []byte
}

// NewSliceStorage wraps buf as the queue's backing region. The caller must
// not use buf for anything else for as long as the queue is alive.
func NewSliceStorage(buf []byte) StorageProvider {
	return &sliceStorage{buf: buf}
}

func (s *sliceStorage) Bytes() []byte { return s.buf }

// Unknown provenance: a caller-supplied slice might be reused scratch
// memory, so the queue must zero it defensively.
func (s *sliceStorage) ZeroInitialized() bool { return false }
