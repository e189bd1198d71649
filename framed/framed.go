// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

// Package framed layers length-prefixed records over a bbq byte queue: a
// producer reserves worst-case header space up front and shrinks it at
// commit time, a consumer parses the header back out and hands back a view
// scoped to exactly the payload.
package framed

import (
	"context"
	"errors"

	"github.com/JoshuaSkootsky/bbq"
)

// FrameProducer wraps a bbq.Producer with frame-at-a-time grants.
type FrameProducer struct {
	prod *bbq.Producer
}

// NewFrameProducer adapts an existing byte-mode producer to frame mode.
func NewFrameProducer(prod *bbq.Producer) *FrameProducer {
	return &FrameProducer{prod: prod}
}

// FrameGrantW is a scoped reservation for a single outgoing frame of at
// most the requested length.
type FrameGrantW struct {
	grant   *bbq.GrantW
	hdrMax  int
	payload []byte
	done    bool
}

// Bytes returns the frame's writable payload region (header space is not
// exposed).
func (g *FrameGrantW) Bytes() []byte { return g.payload }

// Len returns the grant's maximum payload length.
func (g *FrameGrantW) Len() int { return len(g.payload) }

// Commit finalizes the frame, encoding its header for the first used bytes
// (saturated to Len) and publishing header+payload as one atomic raw
// commit. The header length is computed from the saturated used count, not
// from the worst case reserved by Grant: when it needs fewer bytes than were
// reserved, the payload is moved down to sit immediately after the shorter
// header, so the committed frame carries no gap.
func (g *FrameGrantW) Commit(used int) {
	if g.done {
		return
	}
	g.done = true
	if used < 0 {
		used = 0
	}
	if used > len(g.payload) {
		used = len(g.payload)
	}
	raw := g.grant.Bytes()
	hdrLen := headerLen(used)
	encodeHeader(uint64(used), raw[:hdrLen])
	if hdrLen < g.hdrMax {
		copy(raw[hdrLen:], raw[g.hdrMax:g.hdrMax+used])
	}
	g.grant.Commit(hdrLen + used)
}

// Discard abandons the frame, committing nothing.
func (g *FrameGrantW) Discard() {
	if g.done {
		return
	}
	g.done = true
	g.grant.Discard()
}

// Grant reserves space for a frame of up to n payload bytes.
func (fp *FrameProducer) Grant(n int) (*FrameGrantW, error) {
	return fp.grant(n, func(total int) (*bbq.GrantW, error) {
		return fp.prod.GrantExact(total)
	})
}

// GrantAsync is the blocking counterpart of Grant.
func (fp *FrameProducer) GrantAsync(ctx context.Context, n int) (*FrameGrantW, error) {
	return fp.grant(n, func(total int) (*bbq.GrantW, error) {
		return fp.prod.GrantExactAsync(ctx, total)
	})
}

func (fp *FrameProducer) grant(n int, open func(total int) (*bbq.GrantW, error)) (*FrameGrantW, error) {
	if n < 0 {
		n = 0
	}
	hdrMax := headerLen(n)
	raw, err := open(hdrMax + n)
	if err != nil {
		return nil, err
	}
	buf := raw.Bytes()
	return &FrameGrantW{grant: raw, hdrMax: hdrMax, payload: buf[hdrMax:]}, nil
}

// WriteFrame grants, fills, and commits a frame containing payload in one
// call, blocking (respecting ctx) until the queue has room.
func (fp *FrameProducer) WriteFrame(ctx context.Context, payload []byte) error {
	g, err := fp.GrantAsync(ctx, len(payload))
	if err != nil {
		return err
	}
	copy(g.Bytes(), payload)
	g.Commit(len(payload))
	return nil
}

// FrameConsumer wraps a bbq.Consumer with frame-at-a-time reads.
type FrameConsumer struct {
	cons *bbq.Consumer
}

// NewFrameConsumer adapts an existing byte-mode consumer to frame mode.
func NewFrameConsumer(cons *bbq.Consumer) *FrameConsumer {
	return &FrameConsumer{cons: cons}
}

// FrameGrantR is a scoped view over a single incoming frame's payload.
type FrameGrantR struct {
	raw     *bbq.GrantR
	hdrLen  int
	payload []byte
	done    bool
}

// Bytes returns the frame's payload.
func (g *FrameGrantR) Bytes() []byte { return g.payload }

// Len returns the frame's payload length.
func (g *FrameGrantR) Len() int { return len(g.payload) }

// Release marks the frame (header and payload) consumed.
func (g *FrameGrantR) Release() {
	if g.done {
		return
	}
	g.done = true
	g.raw.Release(g.hdrLen + len(g.payload))
}

// Discard abandons the frame without consuming it; a later Read will
// parse the same frame again.
func (g *FrameGrantR) Discard() {
	if g.done {
		return
	}
	g.done = true
	g.raw.Discard()
}

// Read parses the next frame out of whatever contiguous committed bytes
// are currently available. ok is false, with a nil error, when the queue
// holds no complete frame right now — a distinct empty outcome rather than
// an error, the same "nothing to read yet" idiom an io.EOF sentinel gives
// a byte-oriented reader.
func (fc *FrameConsumer) Read() (grant *FrameGrantR, ok bool, err error) {
	raw, err := fc.cons.Read()
	if err != nil {
		if errors.Is(err, bbq.ErrInsufficientSize) {
			return nil, false, nil
		}
		return nil, false, err
	}

	buf := raw.Bytes()
	length, hdrLen, valid := decodeHeader(buf)
	if !valid || hdrLen+int(length) > len(buf) {
		raw.Discard()
		return nil, false, nil
	}

	return &FrameGrantR{raw: raw, hdrLen: hdrLen, payload: buf[hdrLen : hdrLen+int(length)]}, true, nil
}

// ReadFrame blocks (respecting ctx) until a frame is available, copies its
// payload out, and releases the grant.
func (fc *FrameConsumer) ReadFrame(ctx context.Context) ([]byte, error) {
	for {
		g, ok, err := fc.Read()
		if err != nil {
			return nil, err
		}
		if ok {
			out := make([]byte, g.Len())
			copy(out, g.Bytes())
			g.Release()
			return out, nil
		}

		if err := fc.cons.WaitReadable(ctx); err != nil {
			return nil, err
		}
	}
}
