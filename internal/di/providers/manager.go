package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pathflowapp/pathflow/internal/config"
	"github.com/pathflowapp/pathflow/internal/logger"
	"github.com/pathflowapp/pathflow/internal/manager"
	"github.com/pathflowapp/pathflow/internal/metrics"
	"github.com/pathflowapp/pathflow/internal/validate"
	"github.com/pathflowapp/pathflow/internal/watcher"
)

// ManagerHandle wraps the pipeline manager with shutdown capability.
type ManagerHandle struct {
	*manager.Manager
}

// Shutdown implements do.Shutdownable.
func (h *ManagerHandle) Shutdown() error {
	h.Manager.Stop()
	return nil
}

// ProvideManager provides the running watch pipeline.
func ProvideManager(i do.Injector) (*ManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	recorder := do.MustInvoke[*metrics.PrometheusRecorder](i)
	v := do.MustInvoke[validate.Validator](i)

	mode := watcher.ModeNotify
	if cfg.Watch.Mode == "poll" {
		mode = watcher.ModePoll
	}

	m, err := manager.New(manager.Config{
		PathToMonitor:     cfg.Watch.Path,
		Recursive:         cfg.Watch.Recursive,
		AllowPatterns:     cfg.Filter.AllowPatterns,
		DenyPatterns:      cfg.Filter.DenyPatterns,
		IgnoreDirectories: cfg.Filter.IgnoreDirectories,
		CaseSensitive:     cfg.Filter.CaseSensitive,
		ProcessDelay:      cfg.Process.Delay,
		EventQueueSize:    cfg.Process.EventQueueSize,
		TaskQueueSize:     cfg.Process.TaskQueueSize,
		Watcher: watcher.Options{
			Mode:         mode,
			PollInterval: cfg.Watch.PollInterval,
			QueueSize:    cfg.Process.EventQueueSize,
		},
	}, v, nil, log.Logger, recorder)
	if err != nil {
		return nil, err
	}

	// Run in background; Shutdown blocks until the pipeline has drained.
	go func() {
		if err := m.Run(context.Background()); err != nil {
			log.Error("Pipeline terminated", "error", err)
		}
	}()

	log.Info("Pipeline started", "path", cfg.Watch.Path, "mode", cfg.Watch.Mode)

	return &ManagerHandle{Manager: m}, nil
}
