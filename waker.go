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

// wakerSlot is a single-slot waker registration, the Go channel-based
// analogue of original_source/core/src/waker.rs's WakerStorage. The last
// registered channel is the only one notified; registering a new one wakes
// whatever was previously registered first, exactly as
// WakerStorage::set does ("replace and wake previous").
//
// It is used only by the *_async suspension paths (producer.go/consumer.go),
// never by the synchronous grant_exact/read fast path, so it never adds
// latency to the lock-free operations the package is named for.
type wakerSlot struct {
	ch atomic.Pointer[chan struct{}]
}

// register stores ch as the slot's current waker, waking out whatever was
// registered before it.
func (w *wakerSlot) register(ch chan struct{}) {
	prev := w.ch.Swap(&ch)
	if prev != nil {
		notify(*prev)
	}
}

// wake consumes and triggers the stored waker, if any. A wake with nothing
// registered is a harmless no-op, matching the "spurious wakeups are
// permitted" language of spec §4.6.
func (w *wakerSlot) wake() {
	prev := w.ch.Swap(nil)
	if prev != nil {
		notify(*prev)
	}
}

// notify performs a non-blocking send on ch. Channels passed to register
// are always created with capacity 1 by the caller, so this can never drop
// a real wakeup: either the receiver hasn't looked yet (the buffered slot
// holds it) or it has already given up (nobody left to notify).
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
