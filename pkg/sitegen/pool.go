package sitegen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// pageJob is one page to render and write.
type pageJob struct {
	page  *Page
	jobID int
}

// pageResult is a written page, relative to the output directory.
type pageResult struct {
	file  string
	jobID int
}

// renderPool renders pages on a fixed set of goroutines.
//
// The job, result and error channels each hold a whole build, so neither
// Submit nor a worker ever blocks on a send.
type renderPool struct {
	numWorkers int
	jobs       chan pageJob
	results    chan pageResult
	errors     chan error
	wg         sync.WaitGroup

	gen    *Generator
	outDir string
	logger *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// optimalWorkers returns the worker count for n pages: one per CPU, never
// more than there are pages and never fewer than one.
func optimalWorkers(n int) int {
	w := runtime.NumCPU()
	if n < w {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

func newRenderPool(ctx context.Context, gen *Generator, outDir string, capacity int) *renderPool {
	ctx, cancel := context.WithCancel(ctx)
	return &renderPool{
		numWorkers: optimalWorkers(capacity),
		jobs:       make(chan pageJob, capacity),
		results:    make(chan pageResult, capacity),
		errors:     make(chan error, capacity),
		gen:        gen,
		outDir:     outDir,
		logger:     gen.logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the workers.
func (p *renderPool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.logger.Debug("starting render pool", "workers", p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *renderPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(id, job)
		}
	}
}

func (p *renderPool) process(workerID int, job pageJob) {
	if err := p.ctx.Err(); err != nil {
		p.jobsFailed.Add(1)
		p.errors <- err
		return
	}

	rel, err := pageFile(job.page.Path)
	if err != nil {
		p.jobsFailed.Add(1)
		p.errors <- err
		return
	}
	var buf bytes.Buffer
	if err := p.gen.Render(&buf, job.page); err != nil {
		p.jobsFailed.Add(1)
		p.errors <- fmt.Errorf("page %s: %w", job.page.Path, err)
		return
	}
	if err := writeFile(p.outDir, rel, buf.Bytes()); err != nil {
		p.jobsFailed.Add(1)
		p.errors <- err
		return
	}

	p.jobsProcessed.Add(1)
	p.results <- pageResult{file: rel, jobID: job.jobID}
	p.logger.Debug("wrote page", "worker_id", workerID, "path", job.page.Path, "kind", job.page.Kind, "file", rel)
}

// Submit enqueues a job. It fails once the pool is stopped or cancelled.
func (p *renderPool) Submit(job pageJob) error {
	if p.stopped.Load() || p.jobsClosed.Load() {
		return fmt.Errorf("render pool is closed")
	}
	p.jobsSubmitted.Add(1)
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

func (p *renderPool) Results() <-chan pageResult { return p.results }

func (p *renderPool) Errors() <-chan error { return p.errors }

// FinishSubmitting closes the job queue; workers exit once it drains.
// Safe to call more than once.
func (p *renderPool) FinishSubmitting() {
	if p.jobsClosed.CompareAndSwap(false, true) {
		close(p.jobs)
	}
}

// Stop cancels outstanding work and waits for the workers. Idempotent.
func (p *renderPool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	p.FinishSubmitting()
	p.cancel()
	p.wg.Wait()
	close(p.results)
	close(p.errors)

	p.logger.Debug("render pool stopped",
		"jobs_submitted", p.jobsSubmitted.Load(),
		"jobs_processed", p.jobsProcessed.Load(),
		"jobs_failed", p.jobsFailed.Load())
}
