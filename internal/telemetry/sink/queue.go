// Package sink implements write-behind persistence for the relay.
package sink

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"dronelink-cloud/internal/observability/metrics"
	telemetry "dronelink-cloud/internal/telemetry/domain"
)

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 5 * time.Second
)

// Queue is a bounded write-behind queue in front of a Recorder. Submit never
// blocks the caller; when the queue is full the record is dropped and counted.
type Queue struct {
	recorder telemetry.Recorder
	jobs     chan telemetry.Record
	logger   *log.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewQueue constructs a write-behind queue.
func NewQueue(recorder telemetry.Recorder, size int, logger *log.Logger) (*Queue, error) {
	if recorder == nil {
		return nil, errors.New("sink: nil recorder")
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Queue{
		recorder: recorder,
		jobs:     make(chan telemetry.Record, size),
		logger:   logger,
	}, nil
}

// Start launches the background worker.
func (q *Queue) Start() {
	q.wg.Add(1)
	go q.worker()
}

// Submit hands a record to the queue without blocking. Overflow drops the
// record; persistence is best-effort and never delays the caller.
func (q *Queue) Submit(rec telemetry.Record) {
	if q == nil {
		return
	}
	select {
	case q.jobs <- rec:
		metrics.SetPersistQueueDepth(len(q.jobs))
	default:
		metrics.IncDropped(metrics.DropReasonQueueFull)
	}
}

// Close stops accepting records and waits for the worker to drain the queue.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for rec := range q.jobs {
		metrics.SetPersistQueueDepth(len(q.jobs))
		ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		err := q.recorder.Append(ctx, rec)
		cancel()
		if err != nil {
			metrics.IncPersist(metrics.PersistResultError)
			q.logger.Printf("telemetry sink: append error: %v", err)
			continue
		}
		metrics.IncPersist(metrics.PersistResultSuccess)
	}
}
