package actions

import (
	"context"
	"fmt"
	"strings"
)

// Basis — система отсчёта координатного действия.
type Basis string

const (
	// BasisScreen — абсолютные экранные координаты (по умолчанию).
	BasisScreen Basis = "Screen"

	// BasisWindow — координаты относительно окна.
	BasisWindow Basis = "Window"

	// BasisElement — координаты относительно элемента.
	BasisElement Basis = "Element"
)

// parseBasis разбирает параметр basis. Пустое значение — Screen.
func parseBasis(params map[string]any) (Basis, error) {
	raw := String(params, "basis")
	switch strings.ToLower(raw) {
	case "", "screen":
		return BasisScreen, nil
	case "window":
		return BasisWindow, nil
	case "element":
		return BasisElement, nil
	default:
		return "", fmt.Errorf("%w: unknown basis %q", ErrInvalidParams, raw)
	}
}

// originOf извлекает начало системы отсчёта из параметров.
// Для basis Element/Window origin обязателен.
func originOf(params map[string]any, basis Basis) (Point, error) {
	if basis == BasisScreen {
		return Point{}, nil
	}
	origin := Map(params, "origin")
	if origin == nil {
		return Point{}, fmt.Errorf("%w: basis %s requires origin", ErrInvalidParams, basis)
	}
	return Point{X: Int(origin, "x"), Y: Int(origin, "y")}, nil
}

// toScreen переводит координату из системы отсчёта basis в экранную.
func toScreen(p Point, basis Basis, origin Point) Point {
	if basis == BasisScreen {
		return p
	}
	return Point{X: origin.X + p.X, Y: origin.Y + p.Y}
}

// fromScreen переводит экранную координату в систему отсчёта basis.
func fromScreen(p Point, basis Basis, origin Point) Point {
	if basis == BasisScreen {
		return p
	}
	return Point{X: p.X - origin.X, Y: p.Y - origin.Y}
}

// coordResult — результат координатного действия.
func coordResult(p Point, basis Basis) map[string]any {
	return map[string]any{"x": p.X, "y": p.Y, "basis": string(basis)}
}

// RegisterCoords регистрирует координатные действия поверх бэкенда p.
//
// Действия: click_xy, capture_coordinates. Оба принимают basis
// (Element/Window/Screen) и preview: при preview=true возвращается
// пересчитанная координата без побочного эффекта.
func RegisterCoords(r *Registry, ptr Pointer) {
	r.Register(New("click_xy", func(ctx context.Context, req *Request) (any, error) {
		if _, ok := req.Params["x"]; !ok {
			return nil, fmt.Errorf("%w: click_xy requires x and y", ErrInvalidParams)
		}
		if _, ok := req.Params["y"]; !ok {
			return nil, fmt.Errorf("%w: click_xy requires x and y", ErrInvalidParams)
		}

		basis, err := parseBasis(req.Params)
		if err != nil {
			return nil, err
		}
		origin, err := originOf(req.Params, basis)
		if err != nil {
			return nil, err
		}

		target := toScreen(Point{X: Int(req.Params, "x"), Y: Int(req.Params, "y")}, basis, origin)

		if Bool(req.Params, "preview", false) {
			return coordResult(target, BasisScreen), nil
		}
		if err := ptr.Click(ctx, target); err != nil {
			return nil, err
		}
		return coordResult(target, BasisScreen), nil
	}))

	r.Register(New("capture_coordinates", func(ctx context.Context, req *Request) (any, error) {
		basis, err := parseBasis(req.Params)
		if err != nil {
			return nil, err
		}
		origin, err := originOf(req.Params, basis)
		if err != nil {
			return nil, err
		}

		cur, err := ptr.Position(ctx)
		if err != nil {
			return nil, err
		}
		adjusted := fromScreen(cur, basis, origin)

		if Bool(req.Params, "preview", false) {
			return coordResult(adjusted, basis), nil
		}
		if err := ptr.Capture(ctx, cur); err != nil {
			return nil, err
		}
		return coordResult(adjusted, basis), nil
	}))
}
