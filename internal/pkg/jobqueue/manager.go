package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/replybot-ai/replybot/internal/pkg/metrics/counter"
	"github.com/replybot-ai/replybot/internal/pkg/statistics"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue       *Queue
	statsTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:  NewQueue(5), // Workers for reply generation + posting jobs
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

	// Recompute engagement aggregates every hour
	m.statsTicker = time.NewTicker(time.Hour)
	m.wg.Add(1)
	go m.statsWorker()

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

	if m.statsTicker != nil {
		m.statsTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// statsWorker periodically rolls reply log engagement into the daily stats table
func (m *Manager) statsWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Stats worker stopping")
			return
		case <-m.statsTicker.C:
			if err := counter.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Engagement counter flush error: %v", err)
			}
			if err := statistics.UpdateDailyStats(); err != nil {
				log.Errorf("[JobQueue Manager] Daily stats update error: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
