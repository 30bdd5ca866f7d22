package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"unichance/internal/common/logger"
)

// JobHandler is implemented by every worker package's Handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registration describes one worker to open.
type Registration struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Handler       JobHandler
}

// workerOpener is satisfied by *Client.
type workerOpener interface {
	StartWorker(taskType string, maxJobsActive int, timeout time.Duration, handler worker.JobHandler) worker.JobWorker
}

// Pool owns the open job workers.
type Pool struct {
	mu      sync.Mutex
	opener  workerOpener
	logger  logger.Logger
	workers map[string]worker.JobWorker
}

func NewPool(opener workerOpener, log logger.Logger) *Pool {
	return &Pool{
		opener:  opener,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for reg. Registering a task type twice is a no-op.
func (p *Pool) Start(reg Registration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.workers[reg.TaskType]; exists {
		p.logger.Warn("worker already registered", map[string]interface{}{"taskType": reg.TaskType})
		return
	}

	p.workers[reg.TaskType] = p.opener.StartWorker(reg.TaskType, reg.MaxJobsActive, reg.Timeout, reg.Handler.Handle)
	p.logger.Info("worker started", map[string]interface{}{
		"taskType":      reg.TaskType,
		"maxJobsActive": reg.MaxJobsActive,
		"timeout":       reg.Timeout.String(),
	})
}

// TaskTypes lists the registered task types.
func (p *Pool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.workers))
	for t := range p.workers {
		types = append(types, t)
	}
	return types
}

// Stop closes every worker and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for taskType, w := range p.workers {
		p.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()
		w.AwaitClose()
		delete(p.workers, taskType)
	}
}
