// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package bbq

import "sync/atomic"

// cacheLinePad mirrors the teacher package's padding constant: enough to
// push a following field onto its own cache line on the common 64-byte
// line size, preventing false sharing between producer-owned and
// consumer-owned cursors.
const cacheLinePad = 64

// Queue is the shared ring-buffer state: the four cursors, the two
// in-progress flags, the split flag, and the two waker slots described in
// spec §3. It is constructed idle, transitions to "owned by one producer
// and one consumer" via TrySplit, and can be returned to idle via
// TryRelease to be split again (possibly in framed mode).
type Queue struct {
	storage  StorageProvider
	buf      []byte
	capacity uint64

	// Owned by the writer.
	write atomic.Uint64
	_     [cacheLinePad - 8]byte

	// Owned by the writer, "private" scratch recording the tail of the
	// outstanding write grant.
	reserve atomic.Uint64
	_       [cacheLinePad - 8]byte

	// Owned by the writer: a commit that wraps sets it to the old write
	// position, and a later commit that advances write past it restores it
	// to capacity.
	last atomic.Uint64
	_    [cacheLinePad - 8]byte

	// Owned by the reader.
	read atomic.Uint64
	_    [cacheLinePad - 8]byte

	writeInProgress atomic.Bool
	readInProgress  atomic.Bool
	alreadySplit    atomic.Bool

	// Woken by commit; registered by the consumer's *_async methods.
	readWaker wakerSlot
	// Woken by release; registered by the producer's *_async methods.
	writeWaker wakerSlot
}

// NewHeap builds a Queue backed by a freshly allocated, provider-owned byte
// region of the given capacity.
func NewHeap(capacity int) *Queue {
	return New(NewHeapStorage(capacity))
}

// NewFromSlice builds a Queue backed by a caller-owned byte slice. The
// caller must not touch buf again for as long as the queue is alive.
func NewFromSlice(buf []byte) *Queue {
	return New(NewSliceStorage(buf))
}

// New builds a Queue over any StorageProvider, e.g. bbq/storagemmap's
// mmap-backed provider.
func New(storage StorageProvider) *Queue {
	buf := storage.Bytes()
	return &Queue{
		storage:  storage,
		buf:      buf,
		capacity: uint64(len(buf)),
	}
}

// Capacity returns the fixed byte capacity of the queue.
func (q *Queue) Capacity() int {
	return int(q.capacity)
}

// AlreadySplit reports whether the queue currently has outstanding
// Producer/Consumer handles.
func (q *Queue) AlreadySplit() bool {
	return q.alreadySplit.Load()
}

// TrySplit hands out the Producer/Consumer pair. Returns ErrAlreadySplit if
// the queue is already split.
//
// The backing region is explicitly zeroed each time the queue is split,
// unless its StorageProvider reports it is already zero-initialized (spec
// §4.3 "Initialization"): grants hand out slices of this region directly,
// so reading through an un-zeroed slice before the owning side has written
// to it would observe whatever garbage the allocator left behind.
func (q *Queue) TrySplit() (*Producer, *Consumer, error) {
	if q.alreadySplit.Swap(true) {
		return nil, nil, ErrAlreadySplit
	}

	if !q.storage.ZeroInitialized() {
		clear(q.buf)
	}

	return &Producer{q: q}, &Consumer{q: q}, nil
}

// TryRelease returns the queue to idle, provided prod and cons belong to
// this queue and neither has a grant in progress. On success all cursors
// reset to zero and the queue may be split again, possibly in framed mode.
func (q *Queue) TryRelease(prod *Producer, cons *Consumer) error {
	if prod == nil || cons == nil || prod.q != q || cons.q != q {
		return ErrNotOwner
	}

	if q.writeInProgress.Load() || q.readInProgress.Load() {
		return ErrGrantInProgress
	}

	q.write.Store(0)
	q.read.Store(0)
	q.reserve.Store(0)
	q.last.Store(0)
	q.alreadySplit.Store(false)

	return nil
}
