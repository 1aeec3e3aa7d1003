package utils

import (
	"log/slog"
	"sync"
)

// BatchBuffer collects items until the owner takes a snapshot with Peek and
// drops what it handled with Drop. Items added in between survive the drop.
type BatchBuffer[T any] struct {
	buffer     []T
	capacity   int
	bufferLock sync.Mutex
}

func NewBatchBuffer[T any](capacity int) *BatchBuffer[T] {
	return &BatchBuffer[T]{
		buffer:   make([]T, 0, capacity),
		capacity: capacity,
	}
}

func (b *BatchBuffer[T]) Add(item T) {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	b.buffer = append(b.buffer, item)
}

func (b *BatchBuffer[T]) Size() int {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()
	return len(b.buffer)
}

func (b *BatchBuffer[T]) HasData() bool {
	return b.Size() > 0
}

// Peek returns a copy of the buffered items.
func (b *BatchBuffer[T]) Peek() []T {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	return append([]T(nil), b.buffer...)
}

// Drop removes the n oldest items.
func (b *BatchBuffer[T]) Drop(n int) {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	n = min(max(n, 0), len(b.buffer))
	rest := make([]T, len(b.buffer)-n, max(b.capacity, len(b.buffer)-n))
	copy(rest, b.buffer[n:])
	b.buffer = rest
}

func (b *BatchBuffer[T]) LogBatchProcessing(batchType string) {
	slog.Info("[BatchBuffer] Processing batch",
		slog.String("type", batchType),
		slog.Int("batch_size", b.Size()))
}
