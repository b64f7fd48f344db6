// Package dispatcher fans one prompt out to every selected provider, each as
// an independent unit of concurrent work, and reconciles the results into
// the submission store. A stall or fault in one provider's delivery never
// blocks or corrupts a sibling's.
package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/promptfan/api/schemas"
	"github.com/xkilldash9x/promptfan/internal/config"
	"github.com/xkilldash9x/promptfan/internal/injection"
	"github.com/xkilldash9x/promptfan/internal/registry"
	"github.com/xkilldash9x/promptfan/internal/status"
)

// Dispatcher orchestrates submission creation, script synthesis, delegated
// execution, and result-driven state transitions.
type Dispatcher struct {
	cfg       config.DispatchConfig
	logger    *zap.Logger
	registry  *registry.Registry
	store     *status.Store
	selectors schemas.SelectorSource
	executor  schemas.ScriptExecutor

	// sem caps how many deliveries may be executing in the browser at once.
	sem *semaphore.Weighted
	// limiters space out consecutive deliveries to the same provider.
	limiters map[schemas.ProviderID]*rate.Limiter

	wg sync.WaitGroup
}

// New creates a Dispatcher. All collaborators are required.
func New(
	cfg config.DispatchConfig,
	logger *zap.Logger,
	reg *registry.Registry,
	store *status.Store,
	selectors schemas.SelectorSource,
	executor schemas.ScriptExecutor,
) (*Dispatcher, error) {
	if reg == nil || store == nil || selectors == nil || executor == nil {
		return nil, fmt.Errorf("cannot initialize dispatcher with nil dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Limit(cfg.ProviderRate)
	if cfg.ProviderRate <= 0 {
		limit = rate.Inf
	}

	limiters := make(map[schemas.ProviderID]*rate.Limiter)
	for _, id := range schemas.AllProviderIDs() {
		limiters[id] = rate.NewLimiter(limit, 1)
	}

	return &Dispatcher{
		cfg:       cfg,
		logger:    logger.Named("dispatcher"),
		registry:  reg,
		store:     store,
		selectors: selectors,
		executor:  executor,
		sem:       semaphore.NewWeighted(int64(concurrency)),
		limiters:  limiters,
	}, nil
}

// Submit fans the prompt out to every selected provider and returns the
// created submissions immediately, all Pending. Delivery progress is only
// observable by polling the store; background faults never surface here.
func (d *Dispatcher) Submit(ctx context.Context, prompt string) ([]schemas.Submission, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, schemas.NewValidationError("prompt must not be empty")
	}

	// Snapshot the selection and release the registry lock before any slow
	// work; holding it across an execution would invite ordering deadlocks.
	selected := d.registry.Selected()
	if len(selected) == 0 {
		return nil, schemas.NewValidationError("no providers selected")
	}

	d.logger.Info("Dispatching prompt",
		zap.Int("providers", len(selected)),
		zap.Int("prompt_length", len(prompt)))

	submissions := make([]schemas.Submission, 0, len(selected))
	for _, provider := range selected {
		sub := d.store.Create(provider.ID, prompt)
		submissions = append(submissions, sub)

		cfg, err := d.selectors.Get(provider.ID)
		if err != nil {
			// Missing configuration is fatal for this provider only; the
			// siblings keep going.
			d.logger.Error("Selector config lookup failed",
				zap.String("provider", string(provider.ID)),
				zap.Error(err))
			d.scheduleConfigFailure(sub.ID, err)
			continue
		}

		script := injection.BuildScript(cfg.InputSelectors, cfg.SubmitSelectors, prompt)
		d.schedule(ctx, sub.ID, provider.ID, script)
	}

	return submissions, nil
}

// Retry re-runs a submission parked in Retrying. The caller observes the
// outcome by polling, same as Submit.
func (d *Dispatcher) Retry(ctx context.Context, id string) (schemas.Submission, error) {
	sub, err := d.store.Status(id)
	if err != nil {
		return schemas.Submission{}, err
	}
	if sub.Status != schemas.StatusRetrying {
		return schemas.Submission{}, schemas.NewValidationError(
			"submission %s is %s, only retrying submissions can be retried", id, sub.Status)
	}

	cfg, err := d.selectors.Get(sub.ProviderID)
	if err != nil {
		return schemas.Submission{}, err
	}

	script := injection.BuildScript(cfg.InputSelectors, cfg.SubmitSelectors, sub.Prompt)
	d.schedule(ctx, sub.ID, sub.ProviderID, script)
	return sub, nil
}

// SweepTimeouts folds the store's advisory timeout scan into Failed/Retrying
// transitions and returns the affected ids. The hosting command decides how
// often to call this; the core never schedules it.
func (d *Dispatcher) SweepTimeouts() []string {
	ids := d.store.CheckTimeouts()
	for _, id := range ids {
		if _, err := d.store.Fail(id, schemas.ErrTimeout, "submission exceeded 30s budget"); err != nil {
			// The delivery may have resolved between the scan and this call.
			d.logger.Debug("Timeout sweep skipped submission",
				zap.String("submission_id", id), zap.Error(err))
		}
	}
	return ids
}

// Wait blocks until every scheduled delivery has resolved. Used by the CLI
// at shutdown and by tests; callers normally poll instead.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// pollInterval is how often Await re-reads submission status.
const pollInterval = 250 * time.Millisecond

// Await polls the store until every listed submission reaches a terminal
// state, running the timeout sweep in between. A submission parked in
// Retrying is re-scheduled at most once; when retryAllowed is false it is
// abandoned instead, since nothing else can ever finalize it.
func (d *Dispatcher) Await(ctx context.Context, ids []string, retryAllowed bool) ([]schemas.Submission, error) {
	sweepInterval := d.cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = 2 * time.Second
	}
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	retried := make(map[string]bool)
	out := make([]schemas.Submission, len(ids))
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-sweep.C:
			d.SweepTimeouts()
		case <-poll.C:
		}

		done := true
		for i, id := range ids {
			sub, err := d.store.Status(id)
			if err != nil {
				return out, err
			}
			out[i] = sub

			if sub.Status == schemas.StatusRetrying {
				if !retryAllowed {
					final, err := d.store.Abandon(id)
					if err != nil {
						return out, err
					}
					out[i] = final
					continue
				}
				if !retried[id] {
					// One re-attempt per submission. The guard also keeps
					// the window between Retry and its Start from
					// scheduling a second one.
					if _, err := d.Retry(ctx, id); err != nil && !schemas.IsValidationError(err) {
						return out, err
					}
					retried[id] = true
				}
				done = false
				continue
			}
			if !sub.Status.Terminal() {
				done = false
			}
		}
		if done {
			return out, nil
		}
	}
}

// schedule launches one independent delivery task. The task survives the
// caller's ctx cancellation: once scheduled it runs to completion, per the
// no-cancellation contract.
func (d *Dispatcher) schedule(ctx context.Context, subID string, providerID schemas.ProviderID, script string) {
	taskCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.runDelivery(taskCtx, subID, providerID, script)
	}()
}

// scheduleConfigFailure walks the submission through the state machine to a
// terminal failure without touching the executor.
func (d *Dispatcher) scheduleConfigFailure(subID string, cause error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.store.Start(subID); err != nil {
			d.logger.Error("Failed to start submission", zap.String("submission_id", subID), zap.Error(err))
			return
		}
		if _, err := d.store.Fail(subID, schemas.ErrInjectionFailed, cause.Error()); err != nil {
			d.logger.Error("Failed to fail submission", zap.String("submission_id", subID), zap.Error(err))
		}
	}()
}

// runDelivery is one provider's unit of work: start -> execute -> resolve,
// strictly sequential within the task.
func (d *Dispatcher) runDelivery(ctx context.Context, subID string, providerID schemas.ProviderID, script string) {
	log := d.logger.With(
		zap.String("submission_id", subID),
		zap.String("provider", string(providerID)))

	if limiter := d.limiters[providerID]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			d.resolveFailure(subID, schemas.ErrNetwork, fmt.Sprintf("rate limiter wait aborted: %v", err), log)
			return
		}
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.resolveFailure(subID, schemas.ErrNetwork, fmt.Sprintf("execution slot acquire aborted: %v", err), log)
		return
	}
	defer d.sem.Release(1)

	if _, err := d.store.Start(subID); err != nil {
		// Ordering bug or the sweep already finalized this submission.
		log.Error("Could not start delivery", zap.Error(err))
		return
	}

	execCtx := ctx
	if d.cfg.SubmissionTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, d.cfg.SubmissionTimeout)
		defer cancel()
	}

	outcome, err := d.executor.Execute(execCtx, providerID, script)
	if err != nil {
		// Hard execution fault: target unreachable, protocol failure.
		d.resolveFailure(subID, schemas.ErrNetwork, err.Error(), log)
		return
	}

	switch {
	case outcome.Success:
		if _, err := d.store.Succeed(subID); err != nil {
			log.Error("Could not record success", zap.Error(err))
		}
	case !outcome.ElementFound:
		d.resolveFailure(subID, schemas.ErrElementNotFound, outcome.ErrorMessage, log)
	default:
		d.resolveFailure(subID, schemas.ErrInjectionFailed, outcome.ErrorMessage, log)
	}
}

func (d *Dispatcher) resolveFailure(subID string, kind schemas.ErrorKind, message string, log *zap.Logger) {
	if message == "" {
		message = string(kind)
	}
	if _, err := d.store.Fail(subID, kind, message); err != nil {
		log.Error("Could not record failure",
			zap.String("error_kind", string(kind)), zap.Error(err))
	}
}
