// Package repository holds the key-value table behind player records.
package repository

import "context"

// Store provides read/write access to an in-memory table mirrored to disk.
// Keys are opaque numeric ids. Values are replaced wholesale on every write and
// must not be mutated in place by callers.
type Store[V any] interface {
	// Read returns the current value for key. It never touches disk.
	Read(ctx context.Context, key int64) (V, bool)

	// Write replaces the value for key and marks the table dirty.
	Write(ctx context.Context, key int64, value V)

	// Update runs fn on the current value under the store lock. The value
	// returned by fn is stored only when fn also returns true.
	Update(ctx context.Context, key int64, fn func(current V, exists bool) (V, bool)) (V, bool)

	// Entries returns a copy of the whole table. With mutable set the caller
	// may edit the copy and hand it back through WriteAll.
	Entries(mutable bool) map[int64]V

	// WriteAll upserts every entry of m.
	WriteAll(ctx context.Context, m map[int64]V)

	// Keys returns every key in ascending order.
	Keys(ctx context.Context) []int64

	// Len returns the number of records.
	Len() int

	// Flush writes the table to disk if it changed since the last flush.
	Flush(ctx context.Context) error
}
