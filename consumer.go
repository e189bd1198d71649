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

// Consumer is the primary interface for reading data from a Queue. Like
// Producer, it is not safe for two goroutines to share concurrently, but
// may be handed off between goroutines freely.
type Consumer struct {
	q *Queue
}

// Read obtains a contiguous slice of committed bytes. This slice may not
// contain every available byte if the writer has wrapped around; the
// remaining bytes surface on a later Read once this grant is released.
func (c *Consumer) Read() (*GrantR, error) {
	q := c.q

	if q.readInProgress.Swap(true) {
		return nil, ErrGrantInProgress
	}

	write := q.write.Load()
	last := q.last.Load()
	read := q.read.Load()

	if read == last && write < read {
		// Inverted rollover: the reader has drained the tail entirely, so
		// it restarts at the front where the writer already wrapped to.
		read = 0
		q.read.Store(0)
	}

	var sz uint64
	if write < read {
		sz = last - read
	} else {
		sz = write - read
	}

	if sz == 0 {
		q.readInProgress.Store(false)
		return nil, ErrInsufficientSize
	}

	return &GrantR{q: q, buf: q.buf[read : read+sz]}, nil
}

// SplitRead is like Read, but when the ring is inverted it returns both
// disjoint segments of committed data instead of only the first: the
// primary run [read, last) and the secondary run [0, write) that the
// writer already placed after wrapping. Fails only when the primary
// segment is empty.
func (c *Consumer) SplitRead() (*SplitGrantR, error) {
	q := c.q

	if q.readInProgress.Swap(true) {
		return nil, ErrGrantInProgress
	}

	write := q.write.Load()
	last := q.last.Load()
	read := q.read.Load()

	if read == last && write < read {
		read = 0
		q.read.Store(0)
	}

	var sz1, sz2 uint64
	if write < read {
		sz1 = last - read
		sz2 = write
	} else {
		sz1 = write - read
		sz2 = 0
	}

	if sz1 == 0 {
		q.readInProgress.Store(false)
		return nil, ErrInsufficientSize
	}

	return &SplitGrantR{
		q:    q,
		buf1: q.buf[read : read+sz1],
		buf2: q.buf[0:sz2],
	}, nil
}

// ReadAsync blocks (respecting ctx) until at least one committed byte is
// available, then returns a Read grant over it.
func (c *Consumer) ReadAsync(ctx context.Context) (*GrantR, error) {
	q := c.q

	for {
		ch := registerWaker(&q.readWaker)

		grant, err := c.Read()
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

// SplitReadAsync is the async counterpart of SplitRead.
func (c *Consumer) SplitReadAsync(ctx context.Context) (*SplitGrantR, error) {
	q := c.q

	for {
		ch := registerWaker(&q.readWaker)

		grant, err := c.SplitRead()
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

// WaitReadable blocks (respecting ctx) until at least one committed byte
// looks available, without claiming a read grant the way ReadAsync does.
// It exists for callers like framed.FrameConsumer.ReadFrame that only want
// to wait for "more might be here now" and will immediately make their own
// synchronous try; a full ReadAsync+Discard for that purpose would churn
// the read grant for no reason.
//
// Because the check below isn't paired with claiming readInProgress, the
// answer is advisory: by the time the caller retries, another goroutine may
// have raced it (readInProgress is SPSC from the consumer side, so this
// only matters across the register/wake window, not across calls).
func (c *Consumer) WaitReadable(ctx context.Context) error {
	q := c.q

	for {
		ch := registerWaker(&q.readWaker)

		if readableSize(q) > 0 {
			return nil
		}

		if err := waitOnWaker(ctx, ch); err != nil {
			return err
		}
	}
}

// readableSize reports how many committed bytes Read could hand out right
// now, replicating its rollover and wrap arithmetic without mutating
// q.read or claiming readInProgress.
func readableSize(q *Queue) uint64 {
	write := q.write.Load()
	last := q.last.Load()
	read := q.read.Load()

	if read == last && write < read {
		read = 0
	}

	if write < read {
		return last - read
	}
	return write - read
}
