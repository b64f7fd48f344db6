// Package service assembles the application's components and manages their
// lifecycle so commands do not wire dependencies by hand.
package service

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/internal/browser"
	"github.com/xkilldash9x/promptfan/internal/config"
	"github.com/xkilldash9x/promptfan/internal/dispatcher"
	"github.com/xkilldash9x/promptfan/internal/registry"
	"github.com/xkilldash9x/promptfan/internal/selectors"
	"github.com/xkilldash9x/promptfan/internal/status"
)

// Components holds the initialized services behind every command.
type Components struct {
	Registry   *registry.Registry
	Store      *status.Store
	Selectors  *selectors.Source
	Executor   *browser.Executor
	Dispatcher *dispatcher.Dispatcher

	logger *zap.Logger
}

// Build performs the dependency wiring: config -> selectors -> registry ->
// store -> executor -> dispatcher.
func Build(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := selectors.Load(cfg.Selectors.File, logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New(logger)
	store := status.NewStore(logger)
	executor := browser.NewExecutor(cfg.Browser, src, logger)

	disp, err := dispatcher.New(cfg.Dispatch, logger, reg, store, src, executor)
	if err != nil {
		return nil, err
	}

	return &Components{
		Registry:   reg,
		Store:      store,
		Selectors:  src,
		Executor:   executor,
		Dispatcher: disp,
		logger:     logger.Named("service"),
	}, nil
}

// Shutdown waits for in-flight deliveries and tears the browser down.
func (c *Components) Shutdown() {
	if c.Dispatcher != nil {
		c.Dispatcher.Wait()
	}
	if c.Executor != nil {
		c.Executor.Close()
	}
	if c.logger != nil {
		c.logger.Debug("Components shut down.")
	}
}
