package notary

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gassure/escrowd/internal/metrics"
	"github.com/gassure/escrowd/internal/models"
)

// EventPatcher records a notarization outcome on an existing event.
// Satisfied by the settlement store.
type EventPatcher interface {
	PatchNotarization(ctx context.Context, eventID string, result models.Notarization) error
}

// Job is one committed event awaiting notarization.
type Job struct {
	EventID string
	Memo    Memo
}

// PipelineConfig sizes the worker pool.
type PipelineConfig struct {
	// Workers is the number of concurrent submitters.
	Workers int

	// QueueSize bounds the dispatch queue. When the queue is full,
	// Dispatch patches the event with a saturation error instead of
	// blocking.
	QueueSize int

	// Timeout bounds each ledger submission.
	Timeout time.Duration
}

// Pipeline notarizes committed events asynchronously, strictly after the
// settlement transaction has committed and returned. It can annotate
// events with outcomes but can never block, delay, or roll back a
// settlement.
type Pipeline struct {
	svc     Service
	patcher EventPatcher
	timeout time.Duration
	jobs    chan Job
	wg      sync.WaitGroup
}

// NewPipeline starts the worker pool.
func NewPipeline(svc Service, patcher EventPatcher, cfg PipelineConfig) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	p := &Pipeline{
		svc:     svc,
		patcher: patcher,
		timeout: cfg.Timeout,
		jobs:    make(chan Job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Dispatch enqueues jobs for notarization and returns immediately. Sibling
// jobs are notarized independently and concurrently. When the queue is
// full the event is patched with a saturation error rather than making
// the caller wait.
func (p *Pipeline) Dispatch(jobs []Job) {
	for _, job := range jobs {
		select {
		case p.jobs <- job:
		default:
			slog.Warn("notarization queue saturated, dropping submission",
				"event_id", job.EventID, "action", job.Memo.Action)
			metrics.Notary().Submissions.WithLabelValues("dropped").Inc()
			// Record the drop off the caller's path: the patch itself can
			// stall on a contended store.
			p.wg.Add(1)
			go func(eventID string) {
				defer p.wg.Done()
				p.patch(eventID, models.Notarization{Error: "notarization queue saturated"})
			}(job.EventID)
		}
	}
}

// Close stops accepting jobs and waits for in-flight submissions to
// finish. Call only after no more dispatches can arrive.
func (p *Pipeline) Close() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.process(job)
	}
}

func (p *Pipeline) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	receipt, err := p.svc.Submit(ctx, job.Memo)
	if err != nil {
		// No automatic retry: the failure becomes data on the event,
		// visible via the audit trail.
		slog.Error("notarization failed",
			"event_id", job.EventID, "action", job.Memo.Action, "error", err)
		metrics.Notary().Submissions.WithLabelValues("failure").Inc()
		p.patch(job.EventID, models.Notarization{Error: err.Error()})
		return
	}

	m := metrics.Notary()
	m.Submissions.WithLabelValues("success").Inc()
	m.Latency.Observe(time.Since(start).Seconds())
	slog.Debug("event notarized",
		"event_id", job.EventID, "external_ref", receipt.ExternalRef, "anchor", receipt.LedgerAnchor)
	p.patch(job.EventID, models.Notarization{
		ExternalRef:  receipt.ExternalRef,
		LedgerAnchor: receipt.LedgerAnchor,
	})
}

func (p *Pipeline) patch(eventID string, result models.Notarization) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.patcher.PatchNotarization(ctx, eventID, result); err != nil {
		slog.Error("failed to record notarization outcome", "event_id", eventID, "error", err)
	}
}
