package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Robota/internal/engine"
)

// RegisterBasic регистрирует базовые действия, не требующие
// внешних бэкендов: log, wait, set.
func RegisterBasic(r *Registry, logger *slog.Logger) {
	r.Register(New("log", func(ctx context.Context, req *Request) (any, error) {
		message := String(req.Params, "message")
		logger.Info("flow log", "step", req.StepID, "message", message)
		return message, nil
	}))

	r.Register(New("wait", func(ctx context.Context, req *Request) (any, error) {
		ms := Int(req.Params, "ms")
		if ms <= 0 {
			ms = 1000
		}

		timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-timer.C:
			return ms, nil
		}
	}))

	r.Register(New("set", func(ctx context.Context, req *Request) (any, error) {
		name := String(req.Params, "name")
		if name == "" {
			return nil, fmt.Errorf("%w: set: name is required", ErrInvalidParams)
		}

		value := req.Params["value"]
		// Строковые значения трактуются как выражения.
		if expr, ok := value.(string); ok {
			evaluated, err := engine.Evaluate(expr, req.Vars)
			if err != nil {
				return nil, err
			}
			value = evaluated
		}

		req.Vars.Set(name, value)
		return value, nil
	}))
}
