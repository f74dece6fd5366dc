// Package worker provides a bounded pool for background tile fetches so a
// fast pan cannot spawn an unbounded number of goroutines.
package worker

import (
	"context"
	"time"
)

const taskTimeout = 10 * time.Second

type Task struct {
	Ctx  context.Context
	Work func() error
}

type Pool struct {
	workers chan struct{}
	tasks   chan Task
	quit    chan struct{}
}

func NewPool(maxWorkers int) *Pool {
	p := &Pool{
		workers: make(chan struct{}, maxWorkers),
		tasks:   make(chan Task, 100),
		quit:    make(chan struct{}),
	}
	go p.dispatcher()
	return p
}

func (p *Pool) dispatcher() {
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			select {
			case p.workers <- struct{}{}:
				go func() {
					defer func() { <-p.workers }()

					done := make(chan error, 1)
					go func() {
						done <- task.Work()
					}()

					select {
					case <-task.Ctx.Done():
					case <-done:
					case <-time.After(taskTimeout):
					}
				}()
			default:
				// All workers busy, requeue after a short backoff.
				go func() {
					time.Sleep(100 * time.Millisecond)
					p.Submit(task)
				}()
			}
		}
	}
}

func (p *Pool) Submit(task Task) {
	select {
	case <-p.quit:
	case p.tasks <- task:
	default:
		go func() {
			time.Sleep(100 * time.Millisecond)
			p.Submit(task)
		}()
	}
}

func (p *Pool) Shutdown() {
	close(p.quit)
}
