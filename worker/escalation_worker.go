// Package worker runs the periodic escalation sweep.
package worker

import (
	"log"

	"github.com/robfig/cron/v3"

	"caseguard/models"
	"caseguard/service"
)

// Evaluator is the sweep entry point the worker drives.
type Evaluator interface {
	Evaluate() (*models.SweepResult, error)
}

var _ Evaluator = (*service.RuleEvaluator)(nil)

// EscalationWorker schedules sweeps on a cron expression. Sweeps are
// serialized: a tick that arrives while the previous sweep still runs is
// skipped rather than stacked.
type EscalationWorker struct {
	evaluator Evaluator
	schedule  string
	cron      *cron.Cron
}

// NewEscalationWorker creates a new escalation worker
func NewEscalationWorker(evaluator Evaluator, schedule string) *EscalationWorker {
	return &EscalationWorker{
		evaluator: evaluator,
		schedule:  schedule,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
	}
}

// Start registers the sweep job and begins the schedule. The first sweep
// runs immediately so a restarted service does not wait a full interval.
func (w *EscalationWorker) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.runSweep); err != nil {
		return err
	}
	w.cron.Start()
	log.Printf("[WORKER] escalation worker started (schedule %q)", w.schedule)

	go w.runSweep()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *EscalationWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	log.Println("[WORKER] escalation worker stopped")
}

// RunOnce triggers a single sweep outside the schedule, used by the
// manual evaluation endpoint.
func (w *EscalationWorker) RunOnce() (*models.SweepResult, error) {
	return w.evaluator.Evaluate()
}

func (w *EscalationWorker) runSweep() {
	result, err := w.evaluator.Evaluate()
	if err != nil {
		log.Printf("[WORKER] escalation sweep failed: %v", err)
		return
	}
	log.Printf("[WORKER] escalation sweep complete: %d examined, %d escalated, %d skipped",
		result.Examined, result.Escalated, result.Skipped)
}
