package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"dvfmap/internal/models"
)

var ErrQueueClosed = errors.New("queue is closed")

// RowQueue is an in-memory queue of sale row batches flowing from the
// ingest reader to the staging writers. Once closed, consumers drain
// the remaining batches and the items channel ends.
type RowQueue struct {
	items   chan []*models.SaleRow
	maxSize int
	closed  bool
	mu      sync.RWMutex
	logger  *logrus.Logger
}

// NewRowQueue creates a new row queue with the specified buffer size
func NewRowQueue(bufferSize int, logger *logrus.Logger) *RowQueue {
	return &RowQueue{
		items:   make(chan []*models.SaleRow, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a batch of rows to the queue, blocking while the buffer is
// full so slow staging writers apply backpressure to the reader.
func (q *RowQueue) Push(rows []*models.SaleRow) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items <- rows
	q.logger.WithField("batch_size", len(rows)).Debug("Pushed batch to queue")
	return nil
}

// Items exposes the batch channel for consumers. The channel is closed
// by Close after the producer is done; remaining batches stay readable.
func (q *RowQueue) Items() <-chan []*models.SaleRow {
	return q.items
}

// Close stops the queue and prevents new items from being added
func (q *RowQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	return nil
}

// Len returns the current number of batches in the queue
func (q *RowQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *RowQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
