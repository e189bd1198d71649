// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package bbq

import (
	"context"
	"errors"
)

// Producer is the primary interface for pushing data into a Queue. It is
// not safe for concurrent use by more than one goroutine at a time, but the
// single goroutine holding it may differ from the one that constructed the
// queue (it is safe to hand a Producer to another goroutine, just not to
// share it between two at once).
//
// Two grant strategies are offered, mirroring
// original_source/core/src/bbqueue.rs's Producer doc comment:
//
//   - GrantExact(n): always n bytes, or an error. May skip up to n-1 bytes
//     at the tail of the ring to start an inversion early.
//   - GrantMaxRemaining(n): between 1 and n bytes, or an error. Only
//     inverts when exactly zero bytes remain at the tail, so it never
//     wastes space.
type Producer struct {
	q *Queue
}

// GrantExact requests a writable, contiguous section of exactly sz bytes.
// If sz bytes aren't available as a single contiguous run — at the current
// write tail, or (by inverting) at the front of the ring — ErrInsufficientSize
// is returned and no state changes.
func (p *Producer) GrantExact(sz int) (*GrantW, error) {
	if sz < 0 {
		sz = 0
	}
	size := uint64(sz)
	q := p.q

	if q.writeInProgress.Swap(true) {
		return nil, ErrGrantInProgress
	}

	write := q.write.Load()
	read := q.read.Load()

	var start uint64
	if write < read {
		// Already inverted: the gap is [write, read). Must stay strictly
		// below read, otherwise write == read would be ambiguous with the
		// empty/uninverted state.
		if write+size < read {
			start = write
		} else {
			q.writeInProgress.Store(false)
			return nil, ErrInsufficientSize
		}
	} else {
		if write+size <= q.capacity {
			start = write
		} else if size < read {
			// Not yet inverted, but this grant will invert it.
			start = 0
		} else {
			q.writeInProgress.Store(false)
			return nil, ErrInsufficientSize
		}
	}

	q.reserve.Store(start + size)
	return &GrantW{q: q, buf: q.buf[start : start+size]}, nil
}

// GrantMaxRemaining requests a writable section of up to sz bytes, possibly
// fewer if that's all that's available without wrapping. It only wraps to
// the front of the ring when the tail is entirely exhausted.
func (p *Producer) GrantMaxRemaining(sz int) (*GrantW, error) {
	if sz < 0 {
		sz = 0
	}
	size := uint64(sz)
	q := p.q

	if q.writeInProgress.Swap(true) {
		return nil, ErrGrantInProgress
	}

	write := q.write.Load()
	read := q.read.Load()

	var start uint64
	if write < read {
		remain := read - write - 1
		if remain != 0 {
			size = min(remain, size)
			start = write
		} else {
			q.writeInProgress.Store(false)
			return nil, ErrInsufficientSize
		}
	} else {
		if write != q.capacity {
			size = min(q.capacity-write, size)
			start = write
		} else if read > 1 {
			size = min(read-1, size)
			start = 0
		} else {
			q.writeInProgress.Store(false)
			return nil, ErrInsufficientSize
		}
	}

	q.reserve.Store(start + size)
	return &GrantW{q: q, buf: q.buf[start : start+size]}, nil
}

// GrantExactAsync blocks (respecting ctx) until a grant of exactly sz bytes
// can be issued, or returns immediately with ErrInsufficientSize if sz can
// never be satisfied from either the current tail or the wrap-around
// prefix — the same pre-flight check
// original_source/core/src/bbqueue.rs's GrantExactFuture::poll performs, so
// callers never suspend forever on a structurally impossible request.
func (p *Producer) GrantExactAsync(ctx context.Context, sz int) (*GrantW, error) {
	if sz < 0 {
		sz = 0
	}
	q := p.q
	size := uint64(sz)

	for {
		write := q.write.Load()
		if size > q.capacity || (size > q.capacity-write && size >= write) {
			return nil, ErrInsufficientSize
		}

		// Register before trying: a release that lands between the try
		// below and registration would otherwise wake a channel nobody is
		// listening on yet and be lost for good.
		ch := registerWaker(&q.writeWaker)

		grant, err := p.GrantExact(sz)
		if err == nil {
			return grant, nil
		}
		if !errors.Is(err, ErrGrantInProgress) && !errors.Is(err, ErrInsufficientSize) {
			return nil, err
		}

		if err := waitOnWaker(ctx, ch); err != nil {
			return nil, err
		}
	}
}

// GrantMaxRemainingAsync blocks (respecting ctx) until at least one byte is
// available to write, then returns a grant of up to sz bytes. Unlike
// GrantExactAsync, any sz > 0 is always eventually satisfiable as the
// consumer releases bytes, so there is no pre-flight feasibility check.
func (p *Producer) GrantMaxRemainingAsync(ctx context.Context, sz int) (*GrantW, error) {
	q := p.q

	for {
		ch := registerWaker(&q.writeWaker)

		grant, err := p.GrantMaxRemaining(sz)
		if err == nil {
			return grant, nil
		}
		if !errors.Is(err, ErrGrantInProgress) && !errors.Is(err, ErrInsufficientSize) {
			return nil, err
		}

		if err := waitOnWaker(ctx, ch); err != nil {
			return nil, err
		}
	}
}

// registerWaker creates a fresh, once-only wake channel and registers it on
// slot, returning it for a subsequent waitOnWaker call. Registration must
// happen before the try-operation it guards: a release/commit that lands
// after the try fails but before registration would otherwise wake a slot
// nobody is listening on yet, and wakerSlot.wake is a no-op when nothing is
// registered, silently dropping that wakeup.
func registerWaker(slot *wakerSlot) chan struct{} {
	ch := make(chan struct{}, 1)
	slot.register(ch)
	return ch
}

// waitOnWaker blocks until ch fires or ctx is done. Spurious wakeups are
// fine: the caller always re-checks the underlying try-operation in a loop.
func waitOnWaker(ctx context.Context, ch chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
