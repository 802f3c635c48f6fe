package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Job 任务接口
type Job interface {
	ID() string
	Run() error
}

// Result 任务结果
type Result struct {
	JobID string
	Error error
}

// PoolStats 工作池统计信息
type PoolStats struct {
	JobsSubmitted int64 `json:"jobs_submitted"`
	JobsCompleted int64 `json:"jobs_completed"`
	JobsFailed    int64 `json:"jobs_failed"`
	ActiveWorkers int64 `json:"active_workers"`
}

// WorkerPool 工作池
// 每个文件的分析是独立任务，任务之间不共享可变状态
type WorkerPool struct {
	jobCh     chan Job
	resultsCh chan Result
	workers   int
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	stats     PoolStats
}

// NewWorkerPool 创建工作池
func NewWorkerPool(ctx context.Context, workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		jobCh:     make(chan Job, queueSize),
		resultsCh: make(chan Result, queueSize),
		workers:   workers,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start 启动工作池
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker 工作协程
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobCh:
			if !ok {
				return
			}
			atomic.AddInt64(&wp.stats.ActiveWorkers, 1)

			err := job.Run()

			atomic.AddInt64(&wp.stats.JobsCompleted, 1)
			if err != nil {
				atomic.AddInt64(&wp.stats.JobsFailed, 1)
			}
			atomic.AddInt64(&wp.stats.ActiveWorkers, -1)

			select {
			case wp.resultsCh <- Result{JobID: job.ID(), Error: err}:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

// Submit 提交任务
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobCh <- job:
		atomic.AddInt64(&wp.stats.JobsSubmitted, 1)
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults 获取结果通道
func (wp *WorkerPool) GetResults() <-chan Result {
	return wp.resultsCh
}

// Stop 停止工作池
func (wp *WorkerPool) Stop() {
	close(wp.jobCh)
	wp.wg.Wait()
	wp.cancel()
	close(wp.resultsCh)
}

// Shutdown 优雅关闭
func (wp *WorkerPool) Shutdown(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		wp.Stop()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		wp.cancel()
		return context.DeadlineExceeded
	}
}

// GetStats 获取统计信息
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		JobsSubmitted: atomic.LoadInt64(&wp.stats.JobsSubmitted),
		JobsCompleted: atomic.LoadInt64(&wp.stats.JobsCompleted),
		JobsFailed:    atomic.LoadInt64(&wp.stats.JobsFailed),
		ActiveWorkers: atomic.LoadInt64(&wp.stats.ActiveWorkers),
	}
}
