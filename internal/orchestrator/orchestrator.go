// Package orchestrator runs the scheduling loop that drains the action
// queue: claim the most urgent eligible action, pass the platform's rate
// gate, resolve and invoke its executor through the router, and record the
// outcome in the queue and the execution log.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/execlog"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/ratelimit"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/retry"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/router"
)

const (
	// DefaultWorkers is the number of concurrent executor workers.
	DefaultWorkers = 2

	// DefaultPollInterval bounds how long an idle worker waits before
	// rechecking the queue. Arrivals from this process cut the wait
	// short; enqueues from other processes are seen on the next poll.
	DefaultPollInterval = 500 * time.Millisecond
)

// Config tunes the scheduling loop.
type Config struct {
	// Workers is the number of concurrent claim-dispatch loops.
	Workers int

	// MaxAttempts bounds finished attempts per action. Zero means the
	// default retry policy.
	MaxAttempts int

	// PollInterval is the idle wait bound. Zero means the default.
	PollInterval time.Duration
}

func (c Config) normalized() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Orchestrator owns the claim-gate-dispatch-outcome cycle. All queue
// state transitions after enqueue happen here and nowhere else.
type Orchestrator struct {
	store   queue.Store
	logs    execlog.Repository
	limiter *ratelimit.Limiter
	router  *router.Router
	policy  retry.Policy
	cfg     Config
	logf    func(format string, args ...any)
}

// New builds an orchestrator. logf receives operational log lines; nil
// means log.Printf.
func New(store queue.Store, logs execlog.Repository, limiter *ratelimit.Limiter, rtr *router.Router, cfg Config, logf func(string, ...any)) *Orchestrator {
	cfg = cfg.normalized()
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy = retry.Policy{MaxAttempts: cfg.MaxAttempts}
	}
	if logf == nil {
		logf = log.Printf
	}
	return &Orchestrator{
		store:   store,
		logs:    logs,
		limiter: limiter,
		router:  rtr,
		policy:  policy,
		cfg:     cfg,
		logf:    logf,
	}
}

// Run recovers interrupted work and processes the queue until ctx is
// canceled. A clean shutdown returns nil; workers finish their in-flight
// dispatch first.
func (o *Orchestrator) Run(ctx context.Context) error {
	recovered, err := o.store.RecoverInterrupted()
	if err != nil {
		return fmt.Errorf("orchestrator: recovery failed: %w", err)
	}
	if recovered > 0 {
		o.logf("recovered %d interrupted action(s)", recovered)
	}

	g, ctx := errgroup.WithContext(ctx)
	for range o.cfg.Workers {
		g.Go(func() error {
			return o.work(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// work is one claim-dispatch loop. It exits on context cancellation or on
// a store error; dispatch failures are outcomes, not loop errors.
func (o *Orchestrator) work(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		blocked, soonest := o.limiter.Throttled()
		act, err := o.store.ClaimNext(blocked)
		if err != nil {
			return err
		}
		if act == nil {
			if err := o.idle(ctx, soonest); err != nil {
				return err
			}
			continue
		}

		if err := o.process(ctx, act); err != nil {
			return err
		}
	}
}

// idle waits for a new arrival, the nearest rate gate to open, or the poll
// interval, whichever comes first.
func (o *Orchestrator) idle(ctx context.Context, soonest time.Duration) error {
	wait := o.cfg.PollInterval
	if soonest > 0 && soonest < wait {
		wait = soonest
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.store.Arrivals():
	case <-timer.C:
	}
	return nil
}

// process carries one claimed action to an outcome: back to pending
// (released or requeued) or terminal (completed or failed).
func (o *Orchestrator) process(ctx context.Context, act *queue.Action) error {
	inv, err := o.router.Resolve(act.Result)
	if err != nil {
		return o.rejectFatal(act, err)
	}

	// The claim already filtered throttled platforms, but another worker
	// may have passed this platform's gate since that snapshot.
	if ok, _ := o.limiter.Acquire(act.Result.Target); !ok {
		return o.store.Release(act.ID)
	}

	attempt := act.Attempts + 1
	if err := o.logs.RecordStart(entryFor(act, attempt)); err != nil {
		if relErr := o.store.Release(act.ID); relErr != nil {
			o.logf("release %s after log failure: %v", act.ID, relErr)
		}
		return fmt.Errorf("orchestrator: record start: %w", err)
	}

	start := time.Now()
	result, err := inv.Invoke(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil && (result == nil || result.Success):
		return o.finishSuccess(act, attempt, result, elapsed)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Shutdown hit mid-dispatch. The attempt never finished, so no
		// attempt is charged; the dangling started entry records the
		// interruption the same way a crash would.
		if relErr := o.store.Release(act.ID); relErr != nil {
			return relErr
		}
		return ctx.Err()
	case errors.Is(err, domain.ErrRateLimited):
		// The platform itself pushed back mid-dispatch. Same contract as
		// losing the gate: the action stays pending and no attempt is
		// charged, with the dangling started entry marking the deferral.
		if relErr := o.store.Release(act.ID); relErr != nil {
			return relErr
		}
		o.logf("deferred %s %s/%s: %v", act.ID, act.Result.Action, act.Result.Target, err)
		return nil
	default:
		return o.finishFailure(act, attempt, result, err, elapsed)
	}
}

// rejectFatal fails an action that never reached an executor. No attempt
// is charged and no started entry exists; the single terminal entry
// carries AttemptNumber 0.
func (o *Orchestrator) rejectFatal(act *queue.Action, cause error) error {
	entry := entryFor(act, 0)
	entry.Error = cause.Error()
	if err := o.logs.RecordFailure(entry); err != nil {
		return fmt.Errorf("orchestrator: record failure: %w", err)
	}
	if err := o.store.MarkFailedFatal(act.ID, cause.Error()); err != nil {
		return err
	}
	o.logf("rejected %s %s/%s: %v", act.ID, act.Result.Action, act.Result.Target, cause)
	return nil
}

func (o *Orchestrator) finishSuccess(act *queue.Action, attempt int, result *domain.ExecutionResult, elapsed time.Duration) error {
	entry := entryFor(act, attempt)
	entry.DurationMs = durationMs(result, elapsed)
	if result != nil {
		entry.Result = result.Data
	}
	if err := o.logs.RecordSuccess(entry); err != nil {
		return fmt.Errorf("orchestrator: record success: %w", err)
	}
	if err := o.store.MarkCompleted(act.ID); err != nil {
		return err
	}
	o.logf("completed %s %s/%s attempt %d in %dms", act.ID, act.Result.Action, act.Result.Target, attempt, entry.DurationMs)
	return nil
}

func (o *Orchestrator) finishFailure(act *queue.Action, attempt int, result *domain.ExecutionResult, cause error, elapsed time.Duration) error {
	msg := failureMessage(result, cause)

	entry := entryFor(act, attempt)
	entry.Error = msg
	entry.DurationMs = durationMs(result, elapsed)
	if result != nil {
		entry.Result = result.Data
	}
	if err := o.logs.RecordFailure(entry); err != nil {
		return fmt.Errorf("orchestrator: record failure: %w", err)
	}

	// An executor error that retrying cannot fix spends the rest of the
	// budget immediately. The attempt itself is still charged: the
	// executor really ran.
	if cause != nil && !retry.Retryable(cause) {
		return o.markFailed(act, attempt, msg)
	}

	if o.policy.Decide(attempt) == retry.Retry {
		if err := o.store.Requeue(act.ID, msg); err != nil {
			return err
		}
		o.logf("requeued %s %s/%s after attempt %d: %s", act.ID, act.Result.Action, act.Result.Target, attempt, msg)
		return nil
	}
	return o.markFailed(act, attempt, msg)
}

func (o *Orchestrator) markFailed(act *queue.Action, attempt int, msg string) error {
	if err := o.store.MarkFailed(act.ID, msg); err != nil {
		return err
	}
	o.logf("failed %s %s/%s after %d attempt(s): %s", act.ID, act.Result.Action, act.Result.Target, attempt, msg)
	return nil
}

// entryFor seeds a log entry from a claimed action. attempt 0 marks a
// rejection where no executor was dispatched.
func entryFor(act *queue.Action, attempt int) *execlog.Entry {
	entry := &execlog.Entry{
		ActionID:      act.ID,
		CorrelationID: act.Result.CorrelationID,
		Action:        act.Result.Action,
		Target:        act.Result.Target,
		Params:        act.Result.Params,
		AttemptNumber: attempt,
	}
	if attempt > 1 {
		entry.RetriedFrom = act.ID
	}
	return entry
}

func durationMs(result *domain.ExecutionResult, elapsed time.Duration) int64 {
	if result != nil && result.Duration > 0 {
		return result.Duration.Milliseconds()
	}
	return elapsed.Milliseconds()
}

func failureMessage(result *domain.ExecutionResult, cause error) string {
	if cause != nil {
		return cause.Error()
	}
	if result != nil && result.Error != "" {
		return result.Error
	}
	return "executor reported failure"
}
