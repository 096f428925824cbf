package api

import (
	"log/slog"

	"github.com/shaiso/Robota/internal/actions"
	"github.com/shaiso/Robota/internal/runner"
	"github.com/shaiso/Robota/internal/scheduler"
	"github.com/shaiso/Robota/internal/stats"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	flows    *runner.Store
	runner   *runner.Runner
	sched    *scheduler.Scheduler
	stats    *stats.Store
	registry *actions.Registry
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Flows    *runner.Store
	Runner   *runner.Runner
	Sched    *scheduler.Scheduler
	Stats    *stats.Store
	Registry *actions.Registry
	Logger   *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		flows:    cfg.Flows,
		runner:   cfg.Runner,
		sched:    cfg.Sched,
		stats:    cfg.Stats,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}
}
