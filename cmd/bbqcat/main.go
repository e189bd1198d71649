// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

// Command bbqcat pipes stdin to stdout through a bbq queue, exercising the
// whole producer/consumer/grant stack (and optionally the framed overlay)
// end to end from a single process.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JoshuaSkootsky/bbq"
	"github.com/JoshuaSkootsky/bbq/framed"
)

var (
	capacity  int
	useFrames bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bbqcat",
		Short: "Pipe stdin to stdout through a bbq queue",
		Long: "bbqcat copies stdin to stdout through an in-process bbq queue, " +
			"using one goroutine to fill write grants from stdin and another to " +
			"drain read grants to stdout. Useful as a smoke test and as a worked " +
			"example of the producer/consumer API.",
		RunE: runCat,
	}
	cmd.Flags().IntVar(&capacity, "capacity", 1<<16, "ring buffer capacity in bytes")
	cmd.Flags().BoolVar(&useFrames, "frame", false, "length-prefix each chunk read from stdin instead of streaming raw bytes")
	return cmd
}

func runCat(cmd *cobra.Command, args []string) error {
	if capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", capacity)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	q := bbq.NewHeap(capacity)
	prod, cons, err := q.TrySplit()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if useFrames {
		fp := framed.NewFrameProducer(prod)
		fc := framed.NewFrameConsumer(cons)
		g.Go(func() error { return produceFrames(ctx, fp, os.Stdin) })
		g.Go(func() error { return consumeFrames(ctx, fc, os.Stdout) })
	} else {
		g.Go(func() error { return produceBytes(ctx, prod, os.Stdin) })
		g.Go(func() error { return consumeBytes(ctx, cons, os.Stdout) })
	}

	return g.Wait()
}

func produceBytes(ctx context.Context, prod *bbq.Producer, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := writeChunk(ctx, prod, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func writeChunk(ctx context.Context, prod *bbq.Producer, chunk []byte) error {
	for len(chunk) > 0 {
		grant, err := prod.GrantMaxRemainingAsync(ctx, len(chunk))
		if err != nil {
			return err
		}
		n := copy(grant.Bytes(), chunk)
		grant.Commit(n)
		chunk = chunk[n:]
	}
	return nil
}

func consumeBytes(ctx context.Context, cons *bbq.Consumer, w io.Writer) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for {
		grant, err := cons.ReadAsync(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, werr := bw.Write(grant.Bytes()); werr != nil {
			grant.Discard()
			return werr
		}
		grant.Release(grant.Len())
	}
}

func produceFrames(ctx context.Context, fp *framed.FrameProducer, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := fp.WriteFrame(ctx, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func consumeFrames(ctx context.Context, fc *framed.FrameConsumer, w io.Writer) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for {
		payload, err := fc.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, werr := bw.Write(payload); werr != nil {
			return werr
		}
	}
}
