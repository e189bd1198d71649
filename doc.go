// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

// Package bbq provides a wait-free, single-producer single-consumer (SPSC)
// byte ring buffer with contiguous write/read grants.
//
// Unlike a plain circular buffer, bbq never hands out a grant that straddles
// the wrap point. When a write can't fit at the tail of the backing region
// but does fit at the front, the queue enters an "inverted" state: the
// writer restarts at index 0 while the reader keeps draining the old tail,
// tracked by an extra "last" cursor. This gives both sides a genuinely
// contiguous []byte for every grant, at the cost of occasionally wasting the
// tail bytes skipped by an inversion.
//
// # Thread-Safety Guarantees
//
// This queue is lock-free and wait-free for its documented use case:
//   - Single goroutine may hold the Producer and call its grant methods
//   - Single goroutine may hold the Consumer and call Read/SplitRead
//   - Both goroutines may run concurrently; all synchronization is through
//     atomic cursors, never a mutex, on the synchronous fast path
//
// Violating these constraints (two producers, or two consumers, sharing one
// handle concurrently) will cause data races and undefined behavior, exactly
// as documented for any SPSC structure.
//
// # Grant Lifecycle
//
// A producer asks for a writable region with GrantExact or
// GrantMaxRemaining, writes into it, then calls Commit(n) to publish a
// prefix of it (or Discard, which — deferred right after the grant is
// obtained — commits zero bytes, the same "fail safe on early return"
// default Rust gets for free from Drop). A consumer asks for a readable
// region with Read or SplitRead, and calls Release(n) (or Discard) the same
// way.
//
// # Usage Example
//
//	q := bbq.NewHeap(6)
//	prod, cons, _ := q.TrySplit()
//
//	grant, _ := prod.GrantExact(4)
//	copy(grant.Bytes(), []byte{1, 2, 3, 4})
//	grant.Commit(4)
//
//	rd, _ := cons.Read()
//	fmt.Println(rd.Bytes()) // [1 2 3 4]
//	rd.Release(4)
//
// # Interior Mutability Note
//
// Producer and Consumer both hold a pointer to the same backing []byte and
// read/write through overlapping index ranges while the other side is
// active. This is safe without unsafe.Pointer games because a Go slice
// sharing a backing array already permits aliased access from multiple
// goroutines — the race detector only objects when two goroutines touch the
// *same* bytes without synchronization, and the cursor protocol (backed by
// the atomics in queue.go) guarantees the producer's writable range and the
// consumer's readable range never overlap at the same instant.
package bbq
