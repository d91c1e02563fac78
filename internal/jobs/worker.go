package jobs

import (
	"context"
	"log"
	"time"
)

// Processor runs one pass of background maintenance.
type Processor interface {
	Process(ctx context.Context) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context) error

func (f ProcessorFunc) Process(ctx context.Context) error {
	return f(ctx)
}

// Worker runs a Processor on a fixed interval until stopped.
type Worker struct {
	name         string
	processor    Processor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(name string, processor Processor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("%s worker started with poll interval: %v", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s worker stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("%s worker stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			if err := w.processor.Process(ctx); err != nil {
				log.Printf("%s worker: %v", w.name, err)
			}
		}
	}
}

// Stop gracefully stops the worker. It must be called at most once, after Start.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("%s worker shutdown complete", w.name)
}
