package worker

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"expense-tracker/api/logger"
	"expense-tracker/api/models"
	"expense-tracker/api/observability"
)

const (
	bufferSize = 100
	jobTimeout = 30 * time.Second
)

var errPanic = errors.New("worker: processor panicked")

// Processor handles one recurring expense template.
type Processor func(ctx context.Context, template models.Expense) error

// WorkerPool runs recurring expense jobs on a fixed set of partitions. All
// jobs for one owner land on the same partition, so one user's templates
// are processed in submission order.
type WorkerPool struct {
	workers    int
	partitions []chan models.Expense
	process    Processor
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// lifecycle guards stopped and the partition channels.
	lifecycle sync.RWMutex
	stopped   bool
	stopOnce  sync.Once

	// Metrics
	mu                 sync.RWMutex
	jobsProcessed      uint64
	jobsFailed         uint64
	jobsDropped        uint64
	processingDuration uint64
	bufferFillLevels   []uint64
}

// Stats is a snapshot of the pool's counters.
type Stats struct {
	JobsProcessed   uint64   `json:"jobs_processed"`
	JobsFailed      uint64   `json:"jobs_failed"`
	JobsDropped     uint64   `json:"jobs_dropped"`
	AvgProcessingMs float64  `json:"avg_processing_ms"`
	BufferLevels    []uint64 `json:"buffer_levels"`
	ActiveWorkers   int      `json:"active_workers"`
}

func NewWorkerPool(workers int, process Processor) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan models.Expense, workers)
	for i := range partitions {
		partitions[i] = make(chan models.Expense, bufferSize)
	}
	return &WorkerPool{
		workers:          workers,
		partitions:       partitions,
		process:          process,
		ctx:              ctx,
		cancelFunc:       cancel,
		bufferFillLevels: make([]uint64, workers),
	}
}

func (wp *WorkerPool) Start() {
	logger.Get().Info("Starting worker pool", zap.Int("workers", wp.workers))
	for i := range wp.partitions {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop stops accepting jobs, lets the workers drain what is queued and
// waits for them to exit.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		logger.Get().Info("Stopping worker pool")
		wp.lifecycle.Lock()
		wp.stopped = true
		for _, ch := range wp.partitions {
			close(ch)
		}
		wp.lifecycle.Unlock()

		wp.wg.Wait()
		wp.cancelFunc()
	})
}

// PartitionFor maps an owner to a partition.
func (wp *WorkerPool) PartitionFor(owner string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	return int(h.Sum32() % uint32(len(wp.partitions)))
}

// Submit queues template on its owner's partition. It blocks while the
// partition is full and returns false if the job was dropped.
func (wp *WorkerPool) Submit(ctx context.Context, template models.Expense) bool {
	wp.lifecycle.RLock()
	defer wp.lifecycle.RUnlock()

	if wp.stopped {
		wp.drop()
		logger.Get().Warn("Worker pool is stopped, job not submitted",
			zap.String("expense_id", template.ID))
		return false
	}

	partition := wp.PartitionFor(template.UserID)
	depth := observability.WorkerQueueDepth.WithLabelValues(strconv.Itoa(partition))

	wp.mu.Lock()
	wp.bufferFillLevels[partition]++
	wp.mu.Unlock()
	depth.Inc()

	select {
	case wp.partitions[partition] <- template:
		logger.Get().Debug("Job submitted to worker pool",
			zap.Int("partition", partition),
			zap.String("expense_id", template.ID))
		return true
	case <-ctx.Done():
		wp.mu.Lock()
		wp.bufferFillLevels[partition]--
		wp.mu.Unlock()
		depth.Dec()
		wp.drop()
		logger.Get().Warn("Submit cancelled, job not submitted",
			zap.String("expense_id", template.ID),
			zap.Error(ctx.Err()))
		return false
	}
}

func (wp *WorkerPool) drop() {
	wp.mu.Lock()
	wp.jobsDropped++
	wp.mu.Unlock()
	observability.WorkerJobsTotal.WithLabelValues("dropped").Inc()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	logger.Get().Info("Worker started", zap.Int("worker_id", id))
	partition := strconv.Itoa(id)

	for job := range wp.partitions[id] {
		wp.mu.Lock()
		wp.bufferFillLevels[id]--
		wp.mu.Unlock()
		observability.WorkerQueueDepth.WithLabelValues(partition).Dec()

		startTime := time.Now()
		logger.Get().Debug("Processing recurring expense",
			zap.Int("worker_id", id),
			zap.String("expense_id", job.ID),
			zap.String("user_id", job.UserID))

		err := wp.run(job)

		wp.mu.Lock()
		if err != nil {
			wp.jobsFailed++
		} else {
			wp.jobsProcessed++
		}
		wp.processingDuration += uint64(time.Since(startTime).Milliseconds())
		wp.mu.Unlock()

		if err != nil {
			observability.WorkerJobsTotal.WithLabelValues("failed").Inc()
			logger.Get().Error("Failed to process recurring expense",
				zap.Int("worker_id", id),
				zap.String("expense_id", job.ID),
				zap.String("user_id", job.UserID),
				zap.Error(err))
			continue
		}
		observability.WorkerJobsTotal.WithLabelValues("processed").Inc()
	}

	logger.Get().Info("Worker stopping", zap.Int("worker_id", id))
}

func (wp *WorkerPool) run(job models.Expense) (err error) {
	ctx, cancel := context.WithTimeout(wp.ctx, jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("Recovered panic in worker", zap.Any("panic", r))
			err = errPanic
		}
	}()
	return wp.process(ctx, job)
}

func (wp *WorkerPool) Stats() Stats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	var avgProcessingTime float64
	if done := wp.jobsProcessed + wp.jobsFailed; done > 0 {
		avgProcessingTime = float64(wp.processingDuration) / float64(done)
	}
	return Stats{
		JobsProcessed:   wp.jobsProcessed,
		JobsFailed:      wp.jobsFailed,
		JobsDropped:     wp.jobsDropped,
		AvgProcessingMs: avgProcessingTime,
		BufferLevels:    append([]uint64(nil), wp.bufferFillLevels...),
		ActiveWorkers:   wp.workers,
	}
}

// MetricsHandler returns the current metrics as JSON
func (wp *WorkerPool) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(wp.Stats()); err != nil {
		logger.Get().Error("Failed to encode worker metrics", zap.Error(err))
	}
}
