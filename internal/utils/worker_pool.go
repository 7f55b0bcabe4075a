package utils

import (
	"log"
	"sync"
)

// WorkerPool is a bounded goroutine pool. Jobs queue instead of being
// rejected; a full queue blocks the submitter.
type WorkerPool struct {
	JobQueue  chan func()
	WorkerNum int
	wg        sync.WaitGroup
	quit      chan bool
}

var (
	GlobalWorkerPool *WorkerPool
	poolOnce         sync.Once
)

// InitGlobalWorkerPool initializes the process-wide pool once.
func InitGlobalWorkerPool(workerNum int, queueSize int) {
	poolOnce.Do(func() {
		GlobalWorkerPool = NewWorkerPool(workerNum, queueSize)
		GlobalWorkerPool.Start()
	})
}

func NewWorkerPool(workerNum int, queueSize int) *WorkerPool {
	return &WorkerPool{
		JobQueue:  make(chan func(), queueSize),
		WorkerNum: workerNum,
		quit:      make(chan bool),
	}
}

// Start launches the workers. A panicking job takes down neither its
// worker nor the pool.
func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.JobQueue:
					func() {
						defer func() {
							if r := recover(); r != nil {
								log.Printf("worker %d recovered from panic: %v", workerID, r)
							}
						}()
						job()
					}()
				case <-p.quit:
					return
				}
			}
		}(i)
	}
}

// Submit queues a job, blocking when the queue is full.
func (p *WorkerPool) Submit(job func()) {
	p.JobQueue <- job
}

// Stop signals the workers and waits for them to finish.
func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}
