package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
	metrics "github.com/astrafabric/astrafabric/internal/pkg/metrics/counter"
	"github.com/astrafabric/astrafabric/internal/pkg/s3archive"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	archiveSweepTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 5
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Archive sweeper: enqueue retention-expired webhook logs periodically
	m.archiveSweepTicker = time.NewTicker(15 * time.Minute)
	m.wg.Add(1)
	go m.archiveSweepWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.archiveSweepTicker != nil {
		m.archiveSweepTicker.Stop()
	}

	// Signal workers to stop. The closed channel stays in place so a worker
	// re-entering its select never blocks on a nil channel; Start replaces it.
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes buffered counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := m.flushCountersOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// archiveSweepWorker periodically enqueues webhook logs due for S3 archival.
// The sweep is a no-op when archival is disabled.
func (m *Manager) archiveSweepWorker() {
	defer m.wg.Done()

	cfg, err := s3archive.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		log.Info("[JobQueue Manager] S3 archival disabled, archive sweeper idle")
		<-m.stopCh
		return
	}

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Archive sweeper stopping")
			return
		case <-m.archiveSweepTicker.C:
			if err := m.queue.EnqueuePendingArchives(cfg.RetainDays); err != nil {
				log.Errorf("[JobQueue Manager] Archive sweep error: %v", err)
			}
		}
	}
}

func (m *Manager) flushCountersOnce() error {
	// Flush Redis -> DB (batched CASE update)
	return metrics.FlushAll()
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunArchiveSweepOnce exposes a manual trigger for a single archive sweep (admin use).
func (m *Manager) RunArchiveSweepOnce() error {
	cfg, err := s3archive.LoadConfig()
	if err != nil {
		return err
	}
	return m.queue.EnqueuePendingArchives(cfg.RetainDays)
}
