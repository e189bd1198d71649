// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package bbq

import "errors"

// Sentinel errors returned by the queue's fallible operations. Check them
// with errors.Is, following the same pattern as drgolem/ringbuffer's
// ErrInsufficientSpace/ErrInsufficientData.
var (
	// ErrInsufficientSize means no contiguous region satisfies the request,
	// or (for GrantExactAsync) the request is structurally impossible given
	// the current cursors and will never be satisfiable.
	ErrInsufficientSize = errors.New("bbq: insufficient contiguous size")

	// ErrGrantInProgress means the caller tried to open a second grant on
	// the same side while one was still outstanding.
	ErrGrantInProgress = errors.New("bbq: grant already in progress")

	// ErrAlreadySplit means TrySplit was called on a queue that already
	// holds outstanding Producer/Consumer handles.
	ErrAlreadySplit = errors.New("bbq: queue already split")

	// ErrNotOwner means TryRelease was called with a Producer/Consumer
	// that doesn't belong to the queue being released.
	ErrNotOwner = errors.New("bbq: producer/consumer do not belong to this queue")
)
