// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package storagemmap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JoshuaSkootsky/bbq"
	"github.com/JoshuaSkootsky/bbq/storagemmap"
)

func TestProvider_QueueRoundTrip(t *testing.T) {
	p, err := storagemmap.New(4096)
	require.NoError(t, err)
	defer p.Close()

	require.True(t, p.ZeroInitialized())
	require.Len(t, p.Bytes(), 4096)

	q := bbq.New(p)
	prod, cons, err := q.TrySplit()
	require.NoError(t, err)

	w, err := prod.GrantExact(5)
	require.NoError(t, err)
	copy(w.Bytes(), []byte("mmap!"))
	w.Commit(5)

	r, err := cons.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("mmap!"), r.Bytes())
	r.Release(r.Len())
}

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	_, err := storagemmap.New(0)
	require.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	p, err := storagemmap.New(4096)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
