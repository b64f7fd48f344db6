// Package browser implements the script execution capability on top of a
// real Chrome instance driven over the DevTools protocol. Each provider gets
// its own browser process with its own user-data directory, keeping login
// sessions distinct and persistent across runs.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
	"github.com/xkilldash9x/promptfan/internal/config"
	"github.com/xkilldash9x/promptfan/internal/injection"
)

// Executor maintains one live tab per provider and evaluates synthesized
// scripts in it. It implements schemas.ScriptExecutor and
// schemas.AuthChecker.
type Executor struct {
	cfg       config.BrowserConfig
	logger    *zap.Logger
	selectors schemas.SelectorSource

	// mu guards only the tabs map. Launching a browser is slow, so it
	// happens under the per-provider entry lock instead; one provider's hung
	// Chrome must not block a sibling's delivery.
	mu   sync.Mutex
	tabs map[schemas.ProviderID]*providerTab

	launch func(providerID schemas.ProviderID) (*tabSession, error)
}

// providerTab serializes one provider's lazy launch and holds its session.
type providerTab struct {
	mu      sync.Mutex
	session *tabSession
}

// tabSession is one provider's browser process and navigated tab.
type tabSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

var (
	_ schemas.ScriptExecutor = (*Executor)(nil)
	_ schemas.AuthChecker    = (*Executor)(nil)
)

// NewExecutor creates an Executor. Browser processes are launched lazily on
// the first delivery to each provider.
func NewExecutor(cfg config.BrowserConfig, selectors schemas.SelectorSource, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		cfg:       cfg,
		logger:    logger.Named("browser"),
		selectors: selectors,
		tabs:      make(map[schemas.ProviderID]*providerTab),
	}
	e.launch = e.launchChrome
	return e
}

// Execute evaluates the synthesized script in the provider's tab and decodes
// the structured outcome it resolves with. A returned error is a hard fault
// (launch/navigation/protocol failure); a script that ran but did not
// deliver reports that through the outcome instead.
func (e *Executor) Execute(ctx context.Context, providerID schemas.ProviderID, script string) (schemas.InjectionOutcome, error) {
	session, err := e.tab(providerID)
	if err != nil {
		return schemas.InjectionOutcome{}, err
	}

	runCtx, cleanup := e.boundedContext(ctx, session)
	defer cleanup()

	e.logger.Debug("Evaluating injection script",
		zap.String("provider", string(providerID)),
		zap.Int("script_length", len(script)))

	var raw json.RawMessage
	err = chromedp.Run(runCtx, chromedp.Evaluate(script, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true).WithReturnByValue(true)
		}))
	if err != nil {
		return schemas.InjectionOutcome{}, fmt.Errorf("script evaluation failed for %s: %w", providerID, err)
	}

	outcome, err := injection.ParseOutcome(raw)
	if err != nil {
		return schemas.InjectionOutcome{}, fmt.Errorf("provider %s returned malformed outcome: %w", providerID, err)
	}

	e.logger.Info("Injection outcome",
		zap.String("provider", string(providerID)),
		zap.Bool("success", outcome.Success),
		zap.Bool("element_found", outcome.ElementFound),
		zap.Bool("submit_triggered", outcome.SubmitTriggered))
	return outcome, nil
}

// CheckAuth probes the provider's page for its "still needs login" markers.
func (e *Executor) CheckAuth(ctx context.Context, providerID schemas.ProviderID) (bool, error) {
	cfg, err := e.selectors.Get(providerID)
	if err != nil {
		return false, err
	}

	session, err := e.tab(providerID)
	if err != nil {
		return false, err
	}

	runCtx, cleanup := e.boundedContext(ctx, session)
	defer cleanup()

	script := injection.BuildAuthCheckScript(cfg.AuthCheckSelectors)
	var raw json.RawMessage
	err = chromedp.Run(runCtx, chromedp.Evaluate(script, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true)
		}))
	if err != nil {
		return false, fmt.Errorf("auth check failed for %s: %w", providerID, err)
	}

	result, err := injection.ParseAuthCheck(raw)
	if err != nil {
		return false, fmt.Errorf("provider %s returned malformed auth check: %w", providerID, err)
	}
	return result.Authenticated, nil
}

// Close tears down every provider's browser process.
func (e *Executor) Close() {
	e.mu.Lock()
	entries := make([]*providerTab, 0, len(e.tabs))
	for id, entry := range e.tabs {
		entries = append(entries, entry)
		delete(e.tabs, id)
	}
	e.mu.Unlock()

	for _, entry := range entries {
		entry.mu.Lock()
		if entry.session != nil {
			entry.session.cancel()
			entry.session.allocCancel()
			entry.session = nil
		}
		entry.mu.Unlock()
	}
}

// tab returns the provider's live session, launching and navigating it on
// first use. The provider_id -> target mapping is stable for the process
// lifetime. A failed launch leaves the entry empty so a later delivery can
// try again.
func (e *Executor) tab(providerID schemas.ProviderID) (*tabSession, error) {
	if !providerID.Valid() {
		return nil, schemas.NewNotFoundError("provider %q not found", providerID)
	}

	e.mu.Lock()
	entry, ok := e.tabs[providerID]
	if !ok {
		entry = &providerTab{}
		e.tabs[providerID] = entry
	}
	e.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session != nil {
		return entry.session, nil
	}

	session, err := e.launch(providerID)
	if err != nil {
		return nil, err
	}
	entry.session = session
	return session, nil
}

// launchChrome starts the provider's browser process and navigates its tab
// to the provider's surface.
func (e *Executor) launchChrome(providerID schemas.ProviderID) (*tabSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
	)
	if root := e.cfg.UserDataRoot; root != "" {
		dir := filepath.Join(root, string(providerID))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create user data dir for %s: %w", providerID, err)
		}
		opts = append(opts, chromedp.UserDataDir(dir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	navCtx, navCancel := context.WithTimeout(tabCtx, 90*time.Second)
	defer navCancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(providerID.URL()),
		chromedp.Sleep(e.cfg.NavigationWait),
	); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to open %s surface: %w", providerID, err)
	}

	e.logger.Info("Provider surface ready",
		zap.String("provider", string(providerID)),
		zap.String("url", providerID.URL()))

	return &tabSession{ctx: tabCtx, cancel: tabCancel, allocCancel: allocCancel}, nil
}

// boundedContext derives a run context from the session, bounded by the
// configured execution timeout and the caller's ctx.
func (e *Executor) boundedContext(ctx context.Context, session *tabSession) (context.Context, func()) {
	timeout := e.cfg.ExecTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	runCtx, cancel := context.WithTimeout(session.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
