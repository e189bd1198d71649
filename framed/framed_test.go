// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package framed_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JoshuaSkootsky/bbq"
	"github.com/JoshuaSkootsky/bbq/framed"
)

func newPair(t *testing.T, capacity int) (*framed.FrameProducer, *framed.FrameConsumer) {
	t.Helper()
	q := bbq.NewHeap(capacity)
	prod, cons, err := q.TrySplit()
	require.NoError(t, err)
	return framed.NewFrameProducer(prod), framed.NewFrameConsumer(cons)
}

func TestFrameSanity(t *testing.T) {
	fp, fc := newPair(t, 1000)

	g, err := fp.Grant(128)
	require.NoError(t, err)
	payload := bytes.Repeat([]byte{0xAB}, 128)
	copy(g.Bytes(), payload)
	g.Commit(128)

	fr, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload, fr.Bytes())
	fr.Release()

	for _, sz := range []int{16, 32, 24} {
		g, err := fp.Grant(sz)
		require.NoError(t, err)
		data := bytes.Repeat([]byte{byte(sz)}, sz)
		copy(g.Bytes(), data)
		g.Commit(sz)
	}

	for _, sz := range []int{16, 32, 24} {
		fr, ok, err := fc.Read()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, sz, fr.Len())
		fr.Release()
	}
}

func TestFrameWrap(t *testing.T) {
	// capacity 22 exactly fits two 10-byte-payload frames (11 bytes each
	// with their 1-byte headers). A third same-size frame can't fit even
	// after releasing one, since grant_exact's wrap check is strictly
	// less-than (write must never equal read, or the two states become
	// indistinguishable) — so the third frame here is one byte smaller,
	// which does fit once the first frame's space is reclaimed.
	fp, fc := newPair(t, 22)

	g1, err := fp.Grant(10)
	require.NoError(t, err)
	copy(g1.Bytes(), bytes.Repeat([]byte{1}, 10))
	g1.Commit(10)

	g2, err := fp.Grant(10)
	require.NoError(t, err)
	copy(g2.Bytes(), bytes.Repeat([]byte{2}, 10))
	g2.Commit(10)

	_, err = fp.Grant(10)
	require.Error(t, err)

	fr1, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	fr1.Release()

	_, err = fp.Grant(10)
	require.Error(t, err, "still can't fit 11 bytes when exactly 11 are free, to avoid the write==read ambiguity")

	g3, err := fp.Grant(9)
	require.NoError(t, err)
	copy(g3.Bytes(), bytes.Repeat([]byte{3}, 9))
	g3.Commit(9)

	fr2, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bytes.Repeat([]byte{2}, 10), fr2.Bytes())
	fr2.Release()

	fr3, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bytes.Repeat([]byte{3}, 9), fr3.Bytes())
	fr3.Release()

	_, ok, err = fc.Read()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFrameBigLittle(t *testing.T) {
	fp, fc := newPair(t, 65536)

	_, err := fp.Grant(65534)
	require.Error(t, err)

	g, err := fp.Grant(65533)
	require.NoError(t, err)
	payload := bytes.Repeat([]byte{0x7}, 127)
	copy(g.Bytes(), payload)
	g.Commit(127)

	fr, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 127, fr.Len())
	require.Equal(t, payload, fr.Bytes())
	fr.Release()
}

func TestFrameDiscard_LeavesFrameUnread(t *testing.T) {
	fp, fc := newPair(t, 256)

	g, err := fp.Grant(8)
	require.NoError(t, err)
	copy(g.Bytes(), []byte("abcdefgh"))
	g.Commit(8)

	fr, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	fr.Discard()

	fr2, ok, err := fc.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("abcdefgh"), fr2.Bytes())
	fr2.Release()
}

func TestWriteReadFrame_Async(t *testing.T) {
	fp, fc := newPair(t, 64)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, fp.WriteFrame(ctx, []byte("hello")))
	got, err := fc.ReadFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}
