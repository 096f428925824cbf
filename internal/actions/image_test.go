package actions

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeMatcher отдаёт фиксированное совпадение и запоминает параметры.
type fakeMatcher struct {
	match Point
	miss  bool

	gotScale     float64
	gotTolerance int
	gotDPI       int
}

func (f *fakeMatcher) Find(ctx context.Context, templatePath string, scale float64, tolerance, dpi int) (Point, error) {
	f.gotScale, f.gotTolerance, f.gotDPI = scale, tolerance, dpi
	if f.miss {
		return Point{}, fmt.Errorf("%w: template %s", ErrNotFound, templatePath)
	}
	return f.match, nil
}

func TestFindImage_MatchClicks(t *testing.T) {
	matcher := &fakeMatcher{match: Point{X: 300, Y: 400}}
	ptr := &fakePointer{}
	r := NewRegistry()
	RegisterImage(r, matcher, ptr)

	result, err := r.Execute(context.Background(), "find_image", &Request{
		Params: map[string]any{"path": "button.png"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Совпадение даёт координату и клик по ней.
	if len(ptr.clicks) != 1 || ptr.clicks[0] != matcher.match {
		t.Errorf("expected click at %v, got %v", matcher.match, ptr.clicks)
	}
	m := result.(map[string]any)
	if m["x"] != 300 || m["y"] != 400 {
		t.Errorf("unexpected coordinate: %v", m)
	}

	// Параметры поиска по умолчанию.
	if matcher.gotScale != 1.0 || matcher.gotTolerance != 10 || matcher.gotDPI != 96 {
		t.Errorf("unexpected defaults: scale=%v tolerance=%d dpi=%d",
			matcher.gotScale, matcher.gotTolerance, matcher.gotDPI)
	}
}

// Явный ноль — не то же самое, что отсутствие параметра: tolerance=0
// означает точное совпадение и не подменяется значением по умолчанию.
func TestFindImage_ExplicitZeroTolerance(t *testing.T) {
	matcher := &fakeMatcher{match: Point{X: 1, Y: 2}}
	r := NewRegistry()
	RegisterImage(r, matcher, &fakePointer{})

	_, err := r.Execute(context.Background(), "find_image", &Request{
		Params: map[string]any{"path": "button.png", "tolerance": 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matcher.gotTolerance != 0 {
		t.Errorf("explicit tolerance 0 replaced by default: %d", matcher.gotTolerance)
	}
	// Отсутствующий dpi по-прежнему берёт значение по умолчанию.
	if matcher.gotDPI != 96 {
		t.Errorf("absent dpi should default to 96, got %d", matcher.gotDPI)
	}
}

func TestFindImage_PreviewDoesNotClick(t *testing.T) {
	matcher := &fakeMatcher{match: Point{X: 10, Y: 20}}
	ptr := &fakePointer{}
	r := NewRegistry()
	RegisterImage(r, matcher, ptr)

	result, err := r.Execute(context.Background(), "find_image", &Request{
		Params: map[string]any{"path": "button.png", "preview": true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ptr.clicks) != 0 {
		t.Errorf("preview must not click, got %v", ptr.clicks)
	}
	m := result.(map[string]any)
	if m["x"] != 10 || m["y"] != 20 {
		t.Errorf("unexpected coordinate: %v", m)
	}
}

func TestFindImage_Miss(t *testing.T) {
	matcher := &fakeMatcher{miss: true}
	ptr := &fakePointer{}
	r := NewRegistry()
	RegisterImage(r, matcher, ptr)

	_, err := r.Execute(context.Background(), "find_image", &Request{
		Params: map[string]any{"path": "gone.png"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(ptr.clicks) != 0 {
		t.Error("miss must not click")
	}
}

func TestFindImage_BasisAdjustment(t *testing.T) {
	matcher := &fakeMatcher{match: Point{X: 300, Y: 400}}
	ptr := &fakePointer{}
	r := NewRegistry()
	RegisterImage(r, matcher, ptr)

	result, err := r.Execute(context.Background(), "find_image", &Request{
		Params: map[string]any{
			"path":   "button.png",
			"basis":  "window",
			"origin": map[string]any{"x": 100, "y": 100},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Клик остаётся экранным, результат — в координатах окна.
	if ptr.clicks[0] != (Point{X: 300, Y: 400}) {
		t.Errorf("click should use screen coordinate, got %v", ptr.clicks[0])
	}
	m := result.(map[string]any)
	if m["x"] != 200 || m["y"] != 300 {
		t.Errorf("expected window-relative 200/300, got %v", m)
	}
}

func TestFindImage_PathRequired(t *testing.T) {
	r := NewRegistry()
	RegisterImage(r, &fakeMatcher{}, &fakePointer{})

	_, err := r.Execute(context.Background(), "find_image", &Request{Params: map[string]any{}})
	if !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}
