package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
)

var ErrQueueFull = errors.New("ingest queue is full")

// IngestJob is one post-match persistence unit: ingest the stored replay
// artifact of a finished game.
type IngestJob struct {
	GameID     string
	ReplayPath string
	Force      bool
}

type replayIngestor interface {
	IngestFile(ctx context.Context, path string, opts IngestOptions) error
	MarkFailed(ctx context.Context, gameID string) error
}

// IngestQueue serializes all post-match persistence through one worker, so
// concurrent match completions never race on rating read-modify-writes.
// There is no retry: a failed job is logged and recovered by re-running
// ingestion from the stored replay artifact.
type IngestQueue struct {
	ingestor replayIngestor
	jobs     chan IngestJob
	pending  atomic.Int64
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewIngestQueue(ingestor replayIngestor, depth int) *IngestQueue {
	if depth <= 0 {
		depth = 100
	}
	return &IngestQueue{
		ingestor: ingestor,
		jobs:     make(chan IngestJob, depth),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the single worker goroutine.
func (q *IngestQueue) Start(ctx context.Context) {
	go q.run(ctx)
}

func (q *IngestQueue) run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-q.stop:
			// Drain what was enqueued before shutdown.
			for {
				select {
				case job := <-q.jobs:
					q.process(ctx, job)
				default:
					return
				}
			}
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *IngestQueue) process(ctx context.Context, job IngestJob) {
	defer q.pending.Add(-1)

	err := q.ingestor.IngestFile(ctx, job.ReplayPath, IngestOptions{ForceRecompute: job.Force})
	if err != nil {
		log.Printf("ERROR [service.IngestQueue] ingestion of game %s failed (replay %s): %v", job.GameID, job.ReplayPath, err)
		if err := q.ingestor.MarkFailed(ctx, job.GameID); err != nil {
			log.Printf("ERROR [service.IngestQueue] could not mark game %s failed: %v", job.GameID, err)
		}
		return
	}
	log.Printf("[service.IngestQueue] ingested game %s", job.GameID)
}

// Enqueue returns immediately. A full queue drops the job; the replay
// artifact on disk remains the recovery path.
func (q *IngestQueue) Enqueue(job IngestJob) error {
	// Count before handing the job over, so the worker's decrement can
	// never land first and read the backlog below zero.
	q.pending.Add(1)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.pending.Add(-1)
		log.Printf("ERROR [service.IngestQueue] queue full, dropping job for game %s", job.GameID)
		return ErrQueueFull
	}
}

// PendingJobs reports backlog depth including the job being processed.
func (q *IngestQueue) PendingJobs() int {
	return int(q.pending.Load())
}

// Stop drains outstanding jobs and waits for the worker to exit.
func (q *IngestQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done
}
