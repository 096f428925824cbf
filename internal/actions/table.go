package actions

import (
	"context"
	"fmt"
	"strings"
)

// ParseQuery разбирает текстовый запрос вида "column=value" в
// критерии поиска строки. Несколько условий разделяются запятой:
// "name=Alice,status=active".
func ParseQuery(query string) (map[string]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty table query", ErrInvalidParams)
	}

	criteria := make(map[string]string)
	for _, part := range strings.Split(query, ",") {
		column, value, found := strings.Cut(part, "=")
		column = strings.TrimSpace(column)
		if !found || column == "" {
			return nil, fmt.Errorf("%w: bad table query term %q", ErrInvalidParams, part)
		}
		criteria[column] = strings.TrimSpace(value)
	}
	return criteria, nil
}

// criteriaOf извлекает критерии поиска из параметров шага:
// либо map criteria, либо текстовый query.
func criteriaOf(params map[string]any) (map[string]string, error) {
	if m := Map(params, "criteria"); m != nil {
		criteria := make(map[string]string, len(m))
		for k, v := range m {
			criteria[k] = fmt.Sprintf("%v", v)
		}
		return criteria, nil
	}
	if q := String(params, "query"); q != "" {
		return ParseQuery(q)
	}
	return nil, fmt.Errorf("%w: criteria or query is required", ErrInvalidParams)
}

// RegisterTable регистрирует табличные действия поверх бэкенда t.
//
// Действия: find_row, row.select и составное table.wizard,
// эквивалентное ручной цепочке find_row → row.select.
func RegisterTable(r *Registry, t Table) {
	r.Register(New("find_row", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		criteria, err := criteriaOf(req.Params)
		if err != nil {
			return nil, err
		}
		return t.FindRow(ctx, locator, criteria)
	}))

	r.Register(New("row.select", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		row := Map(req.Params, "row")
		if row == nil {
			return nil, fmt.Errorf("%w: row.select: row is required", ErrInvalidParams)
		}
		return t.SelectRow(ctx, locator, Row(row))
	}))

	r.Register(New("table.wizard", func(ctx context.Context, req *Request) (any, error) {
		locator, err := locatorOf(req)
		if err != nil {
			return nil, err
		}
		criteria, err := criteriaOf(req.Params)
		if err != nil {
			return nil, err
		}

		row, err := t.FindRow(ctx, locator, criteria)
		if err != nil {
			return nil, err
		}
		if !Bool(req.Params, "select", false) {
			return row, nil
		}
		return t.SelectRow(ctx, locator, row)
	}))
}
