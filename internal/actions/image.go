package actions

import (
	"context"
	"fmt"
)

// Параметры поиска изображения по умолчанию.
const (
	defaultImageScale     = 1.0
	defaultImageTolerance = 10
	defaultImageDPI       = 96
)

// RegisterImage регистрирует действие find_image поверх бэкенда
// поиска m и указателя ptr.
//
// Параметры: path (обязателен), scale, tolerance, dpi, basis, origin,
// preview. Совпадение возвращает экранную координату; при
// preview=false по найденной координате дополнительно выполняется
// клик. Промах — ErrNotFound.
func RegisterImage(r *Registry, m ImageMatcher, ptr Pointer) {
	r.Register(New("find_image", func(ctx context.Context, req *Request) (any, error) {
		path := String(req.Params, "path")
		if path == "" {
			path = String(req.Selector, "path")
		}
		if path == "" {
			return nil, fmt.Errorf("%w: find_image: path is required", ErrInvalidParams)
		}

		scale := Float(req.Params, "scale", defaultImageScale)
		tolerance := IntDefault(req.Params, "tolerance", defaultImageTolerance)
		dpi := IntDefault(req.Params, "dpi", defaultImageDPI)

		basis, err := parseBasis(req.Params)
		if err != nil {
			return nil, err
		}
		origin, err := originOf(req.Params, basis)
		if err != nil {
			return nil, err
		}

		match, err := m.Find(ctx, path, scale, tolerance, dpi)
		if err != nil {
			return nil, err
		}
		adjusted := fromScreen(match, basis, origin)

		if Bool(req.Params, "preview", false) {
			return coordResult(adjusted, basis), nil
		}
		if err := ptr.Click(ctx, match); err != nil {
			return nil, err
		}
		return coordResult(adjusted, basis), nil
	}))
}
