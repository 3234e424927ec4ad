package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"xhscollect/pkg/logger"
	"xhscollect/pkg/ratelimit"
	"xhscollect/pkg/retry"
)

// MediaJob represents a single media download task. Category and
// PartitionKey select the target directory, Filename the file inside it.
type MediaJob struct {
	URL          string
	NoteID       string
	Category     string
	PartitionKey string
	Filename     string
}

// MediaResult represents the result of a media download job
type MediaResult struct {
	Job      MediaJob
	Success  bool
	Error    error
	Duration time.Duration
	Size     int
}

// MediaFetcher interface for downloading media bytes
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// MediaStorage interface for storing media files
type MediaStorage interface {
	SaveMedia(r io.Reader, category, partitionKey, filename string) error
}

// WorkerPool manages concurrent media download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan MediaJob
	resultQueue chan MediaResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     MediaFetcher
	storage     MediaStorage
	rateLimiter ratelimit.Limiter
	retryCfg    *retry.Config
	logger      logger.Logger
}

// NewWorkerPool creates a new media download worker pool. retryAttempts
// bounds how often a failed download is retried; values below 1 mean a
// single attempt.
func NewWorkerPool(
	numWorkers int,
	fetcher MediaFetcher,
	storage MediaStorage,
	rateLimiter ratelimit.Limiter,
	retryAttempts int,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}

	retryCfg := &retry.Config{
		MaxAttempts: retryAttempts,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      log,
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan MediaJob, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan MediaResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		storage:     storage,
		rateLimiter: rateLimiter,
		retryCfg:    retryCfg,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting media worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool. Jobs already queued are still
// processed; new submissions are rejected.
func (wp *WorkerPool) Stop() {
	wp.logger.Debug("stopping media worker pool")

	// Close job queue to signal no more jobs will be added
	close(wp.jobQueue)

	// Wait for all workers to finish processing remaining jobs
	wp.wg.Wait()

	// Close result queue
	close(wp.resultQueue)

	// Cancel context
	wp.cancel()

	wp.logger.Debug("media worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job MediaJob) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("media job submitted", map[string]interface{}{
			"note_id":  job.NoteID,
			"filename": job.Filename,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan MediaResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range wp.jobQueue {
		// Check if context is cancelled
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("worker stopping, context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("worker stopping, context cancelled while sending result", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}

	wp.logger.DebugWithFields("worker stopping, job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// processJob handles a single media download job
func (wp *WorkerPool) processJob(job MediaJob, workerID int) MediaResult {
	start := time.Now()
	result := MediaResult{
		Job:     job,
		Success: false,
	}

	// Wait for rate limit
	if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
		result.Error = fmt.Errorf("rate limit wait aborted: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	// Download with retries for transient failures
	data, err := retry.DoWithResult(func() ([]byte, error) {
		return wp.fetcher.DownloadMedia(wp.ctx, job.URL)
	}, wp.retryCfg)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.WarnWithFields("worker failed to download media", map[string]interface{}{
			"worker_id": workerID,
			"note_id":   job.NoteID,
			"url":       job.URL,
			"error":     err.Error(),
		})

		return result
	}

	result.Size = len(data)

	if err := wp.storage.SaveMedia(bytes.NewReader(data), job.Category, job.PartitionKey, job.Filename); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to save media", map[string]interface{}{
			"worker_id": workerID,
			"note_id":   job.NoteID,
			"filename":  job.Filename,
			"error":     err.Error(),
			"size":      result.Size,
		})

		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("worker completed media job", map[string]interface{}{
		"worker_id": workerID,
		"note_id":   job.NoteID,
		"filename":  job.Filename,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

// QueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
