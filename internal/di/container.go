// Package di provides dependency injection configuration for the PathFlow daemon.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/pathflowapp/pathflow/internal/config"
	"github.com/pathflowapp/pathflow/internal/di/providers"
	"github.com/pathflowapp/pathflow/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Metrics
	do.Provide(injector, providers.ProvideMetricsRegistry)
	do.Provide(injector, providers.ProvideRecorder)
	do.Provide(injector, providers.ProvideMetricsServer)

	// Pipeline
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideManager)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of the whole pipeline.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	if _, err := do.Invoke[*providers.MetricsServerHandle](injector); err != nil {
		return fmt.Errorf("start metrics endpoint: %w", err)
	}
	if _, err := do.Invoke[*providers.ManagerHandle](injector); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	return nil
}
