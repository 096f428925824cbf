package actions

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Таймауты ожидающих веб-действий по умолчанию.
// Движок собственных таймаутов не накладывает.
const (
	defaultWaitTimeout     = 10 * time.Second
	defaultDownloadTimeout = 30 * time.Second
)

// RegisterWeb регистрирует семейство веб-действий поверх бэкенда b.
//
// Действия: open, click, fill, select, upload, wait_for, download,
// evaluate, screenshot.
func RegisterWeb(r *Registry, b Browser) {
	r.Register(New("open", func(ctx context.Context, req *Request) (any, error) {
		url := String(req.Params, "url")
		if url == "" {
			return nil, fmt.Errorf("%w: open: url is required", ErrInvalidParams)
		}
		if err := b.Open(ctx, url); err != nil {
			return nil, err
		}
		return url, nil
	}))

	r.Register(New("click", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		if err := b.Click(ctx, locator); err != nil {
			return nil, err
		}
		return true, nil
	}))

	r.Register(New("fill", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		value := String(req.Params, "value")
		if err := b.Fill(ctx, locator, value); err != nil {
			return nil, err
		}
		return value, nil
	}))

	r.Register(New("select", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		value := String(req.Params, "value")
		if value == "" {
			value = String(req.Params, "item")
		}
		if err := b.Select(ctx, locator, value); err != nil {
			return nil, err
		}
		return value, nil
	}))

	r.Register(New("upload", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		path := String(req.Params, "path")
		if path == "" {
			return nil, fmt.Errorf("%w: upload: path is required", ErrInvalidParams)
		}
		if err := b.Upload(ctx, locator, path); err != nil {
			return nil, err
		}
		return path, nil
	}))

	r.Register(New("wait_for", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		timeout := paramTimeout(req.Params, defaultWaitTimeout)
		if err := b.WaitFor(ctx, locator, timeout); err != nil {
			return nil, err
		}
		return locator, nil
	}))

	r.Register(New("download", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		dir := String(req.Params, "dir")
		timeout := paramTimeout(req.Params, defaultDownloadTimeout)
		saved, err := b.Download(ctx, locator, dir, timeout)
		if err != nil {
			return nil, err
		}
		return saved, nil
	}))

	r.Register(New("evaluate", func(ctx context.Context, req *Request) (any, error) {
		script := String(req.Params, "script")
		if script == "" {
			return nil, fmt.Errorf("%w: evaluate: script is required", ErrInvalidParams)
		}
		return b.Evaluate(ctx, script)
	}))

	r.Register(New("screenshot", func(ctx context.Context, req *Request) (any, error) {
		// Селектор необязателен: без него снимается вся страница.
		locator := ""
		if len(req.Selector) > 0 {
			var err error
			if locator, err = locatorOf(req); err != nil {
				return nil, err
			}
		}

		img, err := b.Screenshot(ctx, locator)
		if err != nil {
			return nil, err
		}

		if path := String(req.Params, "path"); path != "" {
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return nil, fmt.Errorf("write screenshot: %w", err)
			}
			return path, nil
		}
		// Без path возвращаем размер, чтобы не тащить бинарные
		// данные через контекст выполнения.
		return len(img), nil
	}))
}

// paramTimeout извлекает таймаут из параметра timeout_ms.
func paramTimeout(params map[string]any, def time.Duration) time.Duration {
	if ms := Int(params, "timeout_ms"); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
