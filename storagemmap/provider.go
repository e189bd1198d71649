// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

// Package storagemmap provides a bbq.StorageProvider backed by an
// anonymous memory-mapped region instead of a heap allocation, for callers
// that want the queue's backing bytes to live outside the Go garbage
// collector's reach (e.g. to later share it across processes via
// MAP_SHARED over a file descriptor).
package storagemmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Provider is a bbq.StorageProvider over an mmap'd region. The zero value
// is not usable; construct with New.
type Provider struct {
	buf    []byte
	closed bool
}

// New maps a fresh, zeroed, anonymous region of the given size. size must
// be greater than zero.
func New(size int) (*Provider, error) {
	if size <= 0 {
		return nil, fmt.Errorf("storagemmap: size must be positive, got %d", size)
	}

	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("storagemmap: mmap: %w", err)
	}

	return &Provider{buf: buf}, nil
}

// Bytes returns the mapped region.
func (p *Provider) Bytes() []byte {
	return p.buf
}

// ZeroInitialized reports true: a freshly anonymous-mapped page is always
// zero-filled by the kernel, so bbq.Queue.TrySplit can skip its own
// explicit clear over this provider.
func (p *Provider) ZeroInitialized() bool {
	return true
}

// Close unmaps the region. The Provider, and any Queue built over it, must
// not be used afterward.
func (p *Provider) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Munmap(p.buf)
}
