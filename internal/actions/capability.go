package actions

import (
	"context"
	"fmt"
	"time"
)

// Point — экранная координата.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Row — строка таблицы: имя колонки → значение.
type Row map[string]any

// Browser — внешний бэкенд веб-автоматизации.
//
// Ядро не управляет браузером само: реализацию поставляет
// интеграционный слой (Playwright-совместимый драйвер и т.п.).
// Методы блокирующие; операции с ожиданием (WaitFor, Download)
// сами ограничивают время ожидания.
type Browser interface {
	Open(ctx context.Context, url string) error
	Click(ctx context.Context, locator string) error
	Fill(ctx context.Context, locator, value string) error
	Select(ctx context.Context, locator, value string) error
	Upload(ctx context.Context, locator, path string) error
	WaitFor(ctx context.Context, locator string, timeout time.Duration) error
	Download(ctx context.Context, locator, dir string, timeout time.Duration) (string, error)
	Evaluate(ctx context.Context, script string) (any, error)
	Screenshot(ctx context.Context, locator string) ([]byte, error)
}

// ImageMatcher — внешний бэкенд поиска шаблона на экране.
//
// Возвращает координату найденного совпадения; промах — ошибка,
// сопоставимая с ErrNotFound через errors.Is.
type ImageMatcher interface {
	Find(ctx context.Context, templatePath string, scale float64, tolerance, dpi int) (Point, error)
}

// Pointer — внешний бэкенд указателя и захвата экрана.
type Pointer interface {
	// Click выполняет клик в абсолютной экранной координате.
	Click(ctx context.Context, p Point) error

	// Position возвращает текущую позицию курсора.
	Position(ctx context.Context) (Point, error)

	// Capture фиксирует область экрана вокруг координаты.
	Capture(ctx context.Context, p Point) error
}

// Table — внешний бэкенд табличных элементов UI.
type Table interface {
	// FindRow возвращает первую строку, удовлетворяющую критериям
	// колонка → значение. Отсутствие совпадения — ErrNotFound.
	FindRow(ctx context.Context, locator string, criteria map[string]string) (Row, error)

	// SelectRow выделяет строку и возвращает её.
	SelectRow(ctx context.Context, locator string, row Row) (Row, error)
}

// locatorOf извлекает строковый локатор из селектора шага.
// Стратегии перебираются в порядке предпочтения.
func locatorOf(req *Request) (string, error) {
	for _, key := range []string{"css", "xpath", "text", "id", "locator"} {
		if v := String(req.Selector, key); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: selector has no locator", ErrInvalidParams)
}
