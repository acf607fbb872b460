// Package jobs runs the kiosk's background maintenance loops.
package jobs

import (
	"context"
	"log"
	"time"
)

// Task is one unit of periodic maintenance work.
type Task interface {
	Run(ctx context.Context) error
}

// Worker runs a task on a fixed interval until stopped.
type Worker struct {
	name     string
	task     Task
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(name string, task Task, interval time.Duration) *Worker {
	return &Worker{
		name:     name,
		task:     task,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the worker's ticker loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("%s worker started with interval: %v", w.name, w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s worker stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("%s worker stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			if err := w.task.Run(ctx); err != nil {
				log.Printf("%s worker: task failed: %v", w.name, err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("%s worker shutdown complete", w.name)
}
