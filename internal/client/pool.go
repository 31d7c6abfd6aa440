package client

import "sync"

// Pool is a fixed-size worker pool satisfying agent.Executor. The reference
// configuration runs a single worker; kernels post one task per
// computation, so one worker serializes all search work.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts workers goroutines draining the task queue.
func NewPool(workers int) *Pool {
	p := &Pool{tasks: make(chan func(), workers)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Post schedules one unit of work.
func (p *Pool) Post(task func()) { p.tasks <- task }

// Close drains the queue and stops the workers.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
