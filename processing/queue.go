package processing

import (
	"context"
	"mediacat/models"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type JobKind int

const (
	JobNewFile JobKind = iota
	JobMetadata
)

func (k JobKind) String() string {
	if k == JobNewFile {
		return "process-new-file"
	}
	return "process-metadata"
}

type Job struct {
	Kind       JobKind
	MediaID    string
	TargetName string
}

const queueSize = 1024

// Queue feeds ingest jobs to a fixed pool of workers. Failed jobs are not
// retried here, the periodic sweep finds them again.
type Queue struct {
	proc    *Processor
	workers int
	inline  bool
	log     *zap.Logger

	jobs    chan Job
	wg      sync.WaitGroup
	mutex   sync.Mutex
	stopped bool
	cron    *cron.Cron
}

// NewQueue creates the queue. With inline set, Enqueue runs the job right
// away on the caller's goroutine.
func NewQueue(proc *Processor, workers int, inline bool, log *zap.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		proc:    proc,
		workers: workers,
		inline:  inline,
		log:     log,
		jobs:    make(chan Job, queueSize),
	}
}

func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				q.run(ctx, job)
			}
		}()
	}
	q.log.Info("ingest workers started", zap.Int("workers", q.workers))
}

func (q *Queue) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("ingest job panicked", zap.Stringer("job", job.Kind), zap.String("media", job.MediaID), zap.Any("panic", r))
		}
	}()
	// Errors are logged by the processor
	switch job.Kind {
	case JobNewFile:
		_ = q.proc.ProcessNewFile(ctx, job.MediaID, job.TargetName)
	case JobMetadata:
		_ = q.proc.ProcessMetadata(ctx, job.MediaID)
	}
}

// Enqueue schedules job. A full queue drops it, the sweep picks it up later.
func (q *Queue) Enqueue(ctx context.Context, job Job) {
	if q.inline {
		q.run(ctx, job)
		return
	}
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.stopped {
		return
	}
	select {
	case q.jobs <- job:
	default:
		q.log.Warn("ingest queue full, job dropped", zap.Stringer("job", job.Kind), zap.String("media", job.MediaID))
	}
}

// Sweep enqueues the unfinished work: media still holding a new file and
// media imported by another ProcessVersion
func (q *Queue) Sweep(ctx context.Context) error {
	tx := q.proc.db.WithContext(ctx)
	var newFiles []string
	if err := tx.Model(&models.Media{}).Where("new_file = ?", true).Order("created").Pluck("id", &newFiles).Error; err != nil {
		return err
	}
	var stale []string
	err := tx.Model(&models.MediaInfo{}).
		Joins("JOIN media ON media.id = media_info.media_id").
		Where("media_info.process_version <> ? AND media.new_file = ?", ProcessVersion, false).
		Pluck("media_info.media_id", &stale).Error
	if err != nil {
		return err
	}
	for _, id := range newFiles {
		q.Enqueue(ctx, Job{Kind: JobNewFile, MediaID: id})
	}
	for _, id := range stale {
		q.Enqueue(ctx, Job{Kind: JobMetadata, MediaID: id})
	}
	if len(newFiles)+len(stale) > 0 {
		q.log.Info("sweep enqueued jobs", zap.Int("new_files", len(newFiles)), zap.Int("metadata", len(stale)))
	}
	return nil
}

// Schedule re-runs Sweep on the cron spec, e.g. "@every 10m"
func (q *Queue) Schedule(ctx context.Context, spec string) error {
	logger := cron.PrintfLogger(zap.NewStdLog(q.log))
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	_, err := c.AddFunc(spec, func() {
		if err := q.Sweep(ctx); err != nil {
			q.log.Error("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	q.mutex.Lock()
	q.cron = c
	q.mutex.Unlock()
	c.Start()
	q.log.Info("sweep scheduled", zap.String("schedule", spec))
	return nil
}

// Stop ends the schedule and waits for the workers to drain the queue
func (q *Queue) Stop() {
	q.mutex.Lock()
	if q.stopped {
		q.mutex.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	c := q.cron
	q.mutex.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	q.wg.Wait()
}

