package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dvfmap/config"
	"dvfmap/internal/models"
	"dvfmap/internal/queue"
	"dvfmap/internal/report"
)

// StagingWriter drains sale row batches from the queue into the
// staging table using transactional inserts with bounded retry.
type StagingWriter struct {
	db        *gorm.DB
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.RowQueue
	report    *report.Collector
	waitGroup sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// NewStagingWriter creates a new staging writer instance
func NewStagingWriter(db *gorm.DB, q *queue.RowQueue, cfg *config.Config, rep *report.Collector, logger *logrus.Logger) *StagingWriter {
	return &StagingWriter{
		db:     db,
		queue:  q,
		config: cfg,
		report: rep,
		logger: logger,
	}
}

// Start begins draining batches from the queue
func (w *StagingWriter) Start() {
	for i := 0; i < w.config.BatchProcessing.ProcessorCount; i++ {
		w.waitGroup.Add(1)
		go w.processLoop()
	}
}

// Wait blocks until the queue is closed and fully drained, and returns
// the first batch error, if any. A lost batch would silently skew every
// downstream aggregate, so it is an error rather than a counted defect.
func (w *StagingWriter) Wait() error {
	w.waitGroup.Wait()

	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

// processLoop handles the continuous processing of batches
func (w *StagingWriter) processLoop() {
	defer w.waitGroup.Done()

	for batch := range w.queue.Items() {
		if err := w.processBatch(batch); err != nil {
			w.logger.WithError(err).Error("Failed to stage batch")
			w.recordError(err)
		}
	}
}

// processBatch handles a single batch of rows with transaction and retry logic
func (w *StagingWriter) processBatch(batch []*models.SaleRow) error {
	var err error
	for attempt := 0; attempt <= w.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			w.logger.Infof("Retrying batch staging, attempt %d of %d", attempt, w.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(w.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = w.db.Transaction(func(tx *gorm.DB) error {
			if err := InsertSaleRows(tx, batch); err != nil {
				return fmt.Errorf("failed to insert sale rows batch: %w", err)
			}
			return nil
		})

		if err == nil {
			w.report.AddStagedRows(len(batch))
			w.logger.WithField("batch_size", len(batch)).Debug("Staged batch")
			return nil
		}

		w.logger.Errorf("Batch staging failed: %v", err)
	}

	return fmt.Errorf("failed to stage batch after %d attempts: %w", w.config.BatchProcessing.MaxRetries, err)
}

func (w *StagingWriter) recordError(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
