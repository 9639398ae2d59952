package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/astrafabric/astrafabric/internal/pkg/cache"
)

// Redis keys for the job queue. Job bodies live under af:job:<id>; the
// pending and active lists hold IDs only.
const (
	jobKeyPrefix  = "af:job:"
	pendingKey    = "af:jobs:pending"
	activeKey     = "af:jobs:active"
	statsKey      = "af:jobs:stats"
	jobBodyTTL    = 24 * time.Hour
	defaultRetry  = 3
	dequeueBlock  = time.Second
	sweepMaxAge   = 10 * time.Minute
	sweepInterval = time.Minute
)

// Queue runs background jobs backed by Redis lists. A job ID is moved from
// the pending list to the active list while a worker holds it; the sweeper
// pushes IDs back when a worker died mid-job.
type Queue struct {
	client  *redis.Client
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 3
	}
	return &Queue{
		client:  cache.GetClient(),
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true

	log.Infof("[JobQueue] starting %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.sweeper()
}

func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	log.Info("[JobQueue] stopping workers")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] all workers stopped")
}

// EnqueueJob stores a new job and pushes its ID onto the pending list.
func (q *Queue) EnqueueJob(jobType JobType, payload map[string]interface{}) (*Job, error) {
	ctx := context.Background()
	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: defaultRetry,
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, body, jobBodyTTL)
	pipe.LPush(ctx, pendingKey, job.ID)
	pipe.HIncrBy(ctx, statsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[JobQueue] enqueued %s job %s", job.Type, job.ID)
	return job, nil
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[JobQueue] worker %d stopping", id)
			return
		default:
		}

		job, err := q.claim(ctx)
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] worker %d dequeue error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		q.run(ctx, job)
	}
}

// claim blocks briefly for the next pending job ID and loads its body.
// IDs whose body vanished (TTL expiry) are dropped from the active list.
func (q *Queue) claim(ctx context.Context) (*Job, error) {
	id, err := q.client.BRPopLPush(ctx, pendingKey, activeKey, dequeueBlock).Result()
	if err != nil {
		return nil, err
	}

	body, err := q.client.Get(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		q.client.LRem(ctx, activeKey, 1, id)
		return nil, fmt.Errorf("job body missing for %s", id)
	}

	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		q.client.LRem(ctx, activeKey, 1, id)
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) run(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.persist(ctx, job)

	var err error
	switch job.Type {
	case JobTypeSendMail:
		err = q.processSendMailJob(job)
	case JobTypeArchiveWebhookLog:
		err = q.processArchiveWebhookLogJob(ctx, job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err == nil {
		job.MarkAsCompleted()
		q.bumpStats(ctx, JobStatusCompleted)
		// Completed bodies are deleted outright; stats keep the tally.
		q.client.Del(ctx, jobKeyPrefix+job.ID)
	} else {
		job.MarkAsFailed(err.Error())
		if job.IsRetryable() {
			log.Warnf("[JobQueue] job %s failed, retry %d/%d: %v", job.ID, job.RetryCount, job.MaxRetries, err)
			job.MarkAsRetrying()
			q.persist(ctx, job)
			delay := time.Minute * time.Duration(job.RetryCount)
			jobID := job.ID
			time.AfterFunc(delay, func() {
				q.client.LPush(context.Background(), pendingKey, jobID)
			})
		} else {
			log.Errorf("[JobQueue] job %s permanently failed after %d attempts: %v", job.ID, job.RetryCount, err)
			q.persist(ctx, job)
			q.bumpStats(ctx, JobStatusFailed)
		}
	}

	q.client.LRem(ctx, activeKey, 1, job.ID)
}

// sweeper requeues jobs that sat on the active list longer than sweepMaxAge,
// which happens when the process died while holding them.
func (q *Queue) sweeper() {
	defer q.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.recoverStuck(ctx)
		}
	}
}

func (q *Queue) recoverStuck(ctx context.Context) {
	ids, err := q.client.LRange(ctx, activeKey, 0, -1).Result()
	if err != nil {
		log.Errorf("[JobQueue] sweeper scan error: %v", err)
		return
	}

	now := time.Now()
	for _, id := range ids {
		body, err := q.client.Get(ctx, jobKeyPrefix+id).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] sweeper read error for %s: %v", id, err)
			}
			q.client.LRem(ctx, activeKey, 1, id)
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			q.client.LRem(ctx, activeKey, 1, id)
			continue
		}
		if job.Status != JobStatusProcessing {
			q.client.LRem(ctx, activeKey, 1, id)
			continue
		}

		started := job.ProcessedAt
		if started == nil || started.IsZero() {
			t := job.UpdatedAt
			if t.IsZero() {
				t = job.CreatedAt
			}
			started = &t
		}
		if now.Sub(*started) <= sweepMaxAge {
			continue
		}

		log.Warnf("[JobQueue] requeueing stuck %s job %s (age %s)", job.Type, job.ID, now.Sub(*started))
		job.Status = JobStatusPending
		job.ErrorMsg = "recovered after worker loss"
		job.UpdatedAt = now
		q.persist(ctx, &job)
		q.client.LRem(ctx, activeKey, 1, id)
		q.client.RPush(ctx, pendingKey, id)
	}
}

func (q *Queue) persist(ctx context.Context, job *Job) {
	body, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, jobKeyPrefix+job.ID, body, jobBodyTTL).Err(); err != nil {
		log.Errorf("[JobQueue] failed to persist job %s: %v", job.ID, err)
	}
}

func (q *Queue) bumpStats(ctx context.Context, status JobStatus) {
	if err := q.client.HIncrBy(ctx, statsKey, string(status), 1).Err(); err != nil {
		log.Errorf("[JobQueue] failed to update stats: %v", err)
	}
}

// GetJob loads a job body by ID.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	body, err := q.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetJobStats returns the per-status counters.
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	raw, err := q.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[JobStatus]int64, len(raw))
	for status, count := range raw {
		if n, err := json.Number(count).Int64(); err == nil {
			stats[JobStatus(status)] = n
		}
	}
	return stats, nil
}

func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, pendingKey).Result()
}

func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, activeKey).Result()
}
