// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package bbq

// GrantW is a scoped reservation of a contiguous writable region. Go has no
// destructors, so the "commit zero bytes if the grant is abandoned"
// fail-safe that Rust gets from Drop is instead provided by Discard, which
// callers are expected to defer immediately after obtaining a grant —
// mirroring the acquire-then-defer-release idiom already used throughout
// Go for sync.Mutex.
//
//	grant, err := prod.GrantExact(n)
//	if err != nil { return err }
//	defer grant.Discard()
//	... fill grant.Bytes(), then ...
//	grant.Commit(used)
//
// Calling Commit after Discard (or vice versa, or either twice) is a no-op:
// only the first call takes effect, matching
// original_source/core/src/bbqueue.rs's "no grant in progress ⇒ no-op" rule
// for a grant dropped after being wrapped by something else.
type GrantW struct {
	q             *Queue
	buf           []byte
	autoCommit    uint64
	autoCommitSet bool
	done          bool
}

// Bytes returns the grant's writable region.
func (g *GrantW) Bytes() []byte { return g.buf }

// Len returns the grant's length in bytes.
func (g *GrantW) Len() int { return len(g.buf) }

// SetAutoCommit pre-arms the amount Discard commits instead of zero, the
// Go equivalent of GrantW::to_commit.
func (g *GrantW) SetAutoCommit(n int) {
	g.autoCommit = clampUsize(n, len(g.buf))
	g.autoCommitSet = true
}

// Commit finalizes the grant, publishing the first used bytes (saturated
// to the grant's length) to the consumer. Consumes the grant.
func (g *GrantW) Commit(used int) {
	if g.done {
		return
	}
	g.done = true
	g.commitInner(clampUsize(used, len(g.buf)))
}

// Discard abandons the grant, committing SetAutoCommit's amount (zero by
// default). Safe to defer unconditionally right after the grant is
// obtained.
func (g *GrantW) Discard() {
	if g.done {
		return
	}
	g.done = true
	amt := uint64(0)
	if g.autoCommitSet {
		amt = g.autoCommit
	}
	g.commitInner(amt)
}

func (g *GrantW) commitInner(used uint64) {
	q := g.q

	// No grant in progress: this commit is happening through a wrapper
	// (e.g. a framed grant) that already resolved it.
	if !q.writeInProgress.Load() {
		return
	}

	length := uint64(len(g.buf))
	if used > length {
		used = length
	}

	write := q.write.Load()
	newWrite := q.reserve.Add(-(length - used))
	last := q.last.Load()

	if newWrite < write && write != q.capacity {
		// We wrapped, but skipped some bytes at the old tail: hold the
		// line there until the reader catches up to it.
		q.last.Store(write)
	} else if newWrite > last {
		// We've advanced past the old artificial barrier: lift it.
		q.last.Store(q.capacity)
	}

	// write must publish after last, or a reader could observe the new
	// write and the stale last at the same time and invert prematurely.
	q.write.Store(newWrite)

	q.writeInProgress.Store(false)
	q.readWaker.wake()
}

// GrantR is a scoped reservation of a contiguous readable region.
type GrantR struct {
	q              *Queue
	buf            []byte
	autoRelease    uint64
	autoReleaseSet bool
	done           bool
}

// Bytes returns the grant's readable region.
func (g *GrantR) Bytes() []byte { return g.buf }

// Len returns the grant's length in bytes.
func (g *GrantR) Len() int { return len(g.buf) }

// SetAutoRelease pre-arms the amount Discard releases instead of zero.
func (g *GrantR) SetAutoRelease(n int) {
	g.autoRelease = clampUsize(n, len(g.buf))
	g.autoReleaseSet = true
}

// Release marks the first used bytes (saturated to the grant's length) as
// consumed, reclaiming the space for the writer. Consumes the grant.
func (g *GrantR) Release(used int) {
	if g.done {
		return
	}
	g.done = true
	g.releaseInner(clampUsize(used, len(g.buf)))
}

// Discard abandons the grant, releasing SetAutoRelease's amount (zero by
// default).
func (g *GrantR) Discard() {
	if g.done {
		return
	}
	g.done = true
	amt := uint64(0)
	if g.autoReleaseSet {
		amt = g.autoRelease
	}
	g.releaseInner(amt)
}

func (g *GrantR) releaseInner(used uint64) {
	q := g.q
	if !q.readInProgress.Load() {
		return
	}

	q.read.Add(used)
	q.readInProgress.Store(false)
	q.writeWaker.wake()
}

// SplitGrantR is a scoped reservation over up to two disjoint readable
// regions, returned by Consumer.SplitRead when the ring is inverted.
type SplitGrantR struct {
	q              *Queue
	buf1, buf2     []byte
	autoRelease    uint64
	autoReleaseSet bool
	done           bool
}

// Bufs returns the primary and (possibly empty) secondary segments.
func (g *SplitGrantR) Bufs() (first, second []byte) { return g.buf1, g.buf2 }

// CombinedLen returns the total length across both segments.
func (g *SplitGrantR) CombinedLen() int { return len(g.buf1) + len(g.buf2) }

// SetAutoRelease pre-arms the amount (across both segments, combined)
// Discard releases instead of zero.
func (g *SplitGrantR) SetAutoRelease(n int) {
	g.autoRelease = clampUsize(n, g.CombinedLen())
	g.autoReleaseSet = true
}

// Release marks the first used bytes (saturated to CombinedLen, counted
// across both segments in order) as consumed. A used that crosses into the
// second segment atomically performs the inversion rollover the spec
// describes for split_read's release path.
func (g *SplitGrantR) Release(used int) {
	if g.done {
		return
	}
	g.done = true
	g.releaseInner(clampUsize(used, g.CombinedLen()))
}

// Discard abandons the grant, releasing SetAutoRelease's amount (zero by
// default).
func (g *SplitGrantR) Discard() {
	if g.done {
		return
	}
	g.done = true
	amt := uint64(0)
	if g.autoReleaseSet {
		amt = g.autoRelease
	}
	g.releaseInner(amt)
}

func (g *SplitGrantR) releaseInner(used uint64) {
	q := g.q
	if !q.readInProgress.Load() {
		return
	}

	if used <= uint64(len(g.buf1)) {
		q.read.Add(used)
	} else {
		// used spills into the secondary segment: read must become an
		// absolute offset into the now-current (post-rollover) front of
		// the ring, not an increment.
		q.read.Store(used - uint64(len(g.buf1)))
	}

	q.readInProgress.Store(false)
	q.writeWaker.wake()
}

// clampUsize converts a possibly negative or oversized signed length into
// a uint64 saturated to [0, max].
func clampUsize(n, max int) uint64 {
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return uint64(n)
}
