package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	id      string
	counter *int64
	fail    bool
}

func (j *countJob) ID() string { return j.id }

func (j *countJob) Run() error {
	atomic.AddInt64(j.counter, 1)
	if j.fail {
		return errors.New("job failed")
	}
	return nil
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 4, 16)
	pool.Start()

	var counter int64
	for i := 0; i < 10; i++ {
		job := &countJob{id: string(rune('a' + i)), counter: &counter, fail: i%5 == 0}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	done := make(chan struct{})
	var results int
	var failed int
	go func() {
		defer close(done)
		for result := range pool.GetResults() {
			results++
			if result.Error != nil {
				failed++
			}
		}
	}()

	if err := pool.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	<-done

	if atomic.LoadInt64(&counter) != 10 {
		t.Errorf("ran %d jobs, want 10", counter)
	}
	if results != 10 {
		t.Errorf("collected %d results, want 10", results)
	}
	if failed != 2 {
		t.Errorf("got %d failed results, want 2", failed)
	}

	stats := pool.GetStats()
	if stats.JobsSubmitted != 10 || stats.JobsCompleted != 10 || stats.JobsFailed != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestWorkerPoolSubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 1, 0)
	cancel()

	// 取消之后提交应当立即失败而不是阻塞
	var counter int64
	err := pool.Submit(&countJob{id: "x", counter: &counter})
	if err == nil {
		t.Error("submit after cancel should fail")
	}
}
