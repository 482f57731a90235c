package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/codeindex/pkg/extractor"
	"github.com/gnana997/codeindex/pkg/util"
)

// FileJob represents a file to be processed by the worker pool.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileError pairs a failed file path with the error that stopped it.
type FileError struct {
	FilePath string
	Error    error
}

// FileResult contains the extraction result for a file.
type FileResult struct {
	FilePath string
	Result   extractor.Result
	JobID    int
}

// WorkerPool distributes file extraction jobs across a fixed number of
// goroutine workers, mirroring the channel-based job/result/error pipeline
// the scanner package's original worker pool used, generalized to call
// the new symbol-extractor facade instead of the UI-component extractor.
//
// Worker count defaults to util.GetOptimalPoolSize(), the same formula
// pkg/tsextract uses for its parser pool sizing, so the two never starve
// each other under concurrent load.
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	extractor  *extractor.Extractor
	fileCache  util.FileCache
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a new worker pool. numWorkers of 0 auto-detects
// via util.GetOptimalPoolSize(). fc serves every worker's file read,
// shared with the run's other read sites (the untracked-hash check, the
// references-step re-read) so a changed file is mmap'd once per run
// instead of read from disk by each call site separately.
func NewWorkerPool(numWorkers int, ex *extractor.Extractor, fc util.FileCache, logger *slog.Logger) *WorkerPool {
	if numWorkers == 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		extractor:  ex,
		fileCache:  fc,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns all worker goroutines. Must be called before submitting jobs.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}
	wp.logger.Info("starting worker pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(job)
		}
	}
}

func (wp *WorkerPool) processJob(job FileJob) {
	mf, err := wp.fileCache.Get(job.FilePath)
	if err != nil {
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Error: fmt.Errorf("read file: %w", err)}
		return
	}

	result := wp.extractor.ExtractFile(wp.ctx, job.FilePath, mf.Data)

	wp.jobsProcessed.Add(1)
	wp.results <- FileResult{FilePath: job.FilePath, Result: result, JobID: job.JobID}
}

// Submit enqueues a job for processing. Safe for concurrent calls; blocks
// if the jobs channel is full.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}
	wp.jobsSubmitted.Add(1)
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled")
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the channel workers publish completed extractions to.
func (wp *WorkerPool) Results() <-chan FileResult { return wp.results }

// Errors returns the channel workers publish file-read failures to.
func (wp *WorkerPool) Errors() <-chan FileError { return wp.errors }

// FinishSubmitting closes the jobs channel; idempotent. Must be called
// after the last Submit and before Wait.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop gracefully shuts the pool down: closes jobs if needed, waits for
// in-flight work, then closes the result/error channels. Idempotent.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
	wp.wg.Wait()
	close(wp.results)
	close(wp.errors)
	wp.cancel()
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
		ResultsQueued: len(wp.results),
		ErrorsQueued:  len(wp.errors),
	}
}

// WorkerPoolStats reports pool throughput and queue depth.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int
	ResultsQueued int
	ErrorsQueued  int
}
