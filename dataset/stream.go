/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"time"
)

// StreamResult carries one row of a streamed dataset.
type StreamResult[T any] struct {
	Item  T          // The decoded row
	Error error      // Row-specific error, if any
	Meta  StreamMeta // Metadata about this row
}

// StreamMeta contains metadata about a streamed row.
type StreamMeta struct {
	Index     int64     // Row index in stream (0-based, header excluded)
	Timestamp time.Time // When the row was read
}

// StreamProgress tracks streaming progress.
type StreamProgress struct {
	RowsProcessed int64     // Total rows delivered so far
	Errors        []error   // Accumulated non-fatal errors
	StartTime     time.Time // When streaming started
	CurrentRate   float64   // Rows per second
}

// StreamOptions configures streaming behavior.
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 256)
	ProgressEvery   int64                // Rows between progress callbacks (default: 10000)
	ProgressHandler func(StreamProgress) // Optional progress callback
	ErrorHandler    func(error) bool     // Return true to continue, false to stop
}

// StreamOption is a functional option for configuring streaming.
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:    256,
		ProgressEvery: 10000,
	}
}

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithProgressEvery sets how many rows pass between progress callbacks.
func WithProgressEvery(rows int64) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressEvery = rows
	}
}

// WithProgressHandler sets a progress callback.
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that decides whether to continue.
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}

// StreamClientRows reads raw client rows incrementally. The returned channel
// is closed when the input is exhausted, an unrecoverable error is sent, or
// the context is canceled.
func StreamClientRows(ctx context.Context, r io.Reader, opts ...StreamOption) <-chan StreamResult[ClientRow] {
	return streamRows(ctx, r, len(clientHeader), func(rec []string) ClientRow {
		return ClientRow{ID: rec[0], Name: rec[1], Email: rec[2], Inscribed: rec[3], Country: rec[4]}
	}, opts...)
}

// StreamPurchaseRows reads raw purchase rows incrementally.
func StreamPurchaseRows(ctx context.Context, r io.Reader, opts ...StreamOption) <-chan StreamResult[PurchaseRow] {
	return streamRows(ctx, r, len(purchaseHeader), func(rec []string) PurchaseRow {
		return PurchaseRow{ID: rec[0], ClientID: rec[1], Date: rec[2], Amount: rec[3], Product: rec[4]}
	}, opts...)
}

func streamRows[T any](ctx context.Context, r io.Reader, width int, decode func([]string) T, opts ...StreamOption) <-chan StreamResult[T] {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	resultCh := make(chan StreamResult[T], options.BufferSize)

	go func() {
		defer close(resultCh)

		var index int64
		startTime := time.Now()
		var errs []error

		reportProgress := func() {
			if options.ProgressHandler == nil {
				return
			}
			progress := StreamProgress{
				RowsProcessed: index,
				Errors:        errs,
				StartTime:     startTime,
			}
			if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
				progress.CurrentRate = float64(index) / elapsed
			}
			options.ProgressHandler(progress)
		}

		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1

		// Header row; an empty input just closes the channel.
		if _, err := cr.Read(); err != nil {
			if err != io.EOF {
				resultCh <- StreamResult[T]{Error: err, Meta: StreamMeta{Index: index, Timestamp: time.Now()}}
			}
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			rec, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				if options.ErrorHandler != nil && options.ErrorHandler(err) {
					errs = append(errs, err)
					continue
				}
				resultCh <- StreamResult[T]{Error: err, Meta: StreamMeta{Index: index, Timestamp: time.Now()}}
				return
			}

			result := StreamResult[T]{
				Item: decode(pad(rec, width)),
				Meta: StreamMeta{Index: index, Timestamp: time.Now()},
			}

			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}

			index++
			if options.ProgressEvery > 0 && index%options.ProgressEvery == 0 {
				reportProgress()
			}
		}

		reportProgress()
	}()

	return resultCh
}
