package engine

import (
	"fmt"

	"github.com/dop251/goja"
)

// Evaluate вычисляет JavaScript-выражение с переменными контекста.
//
// Каждая переменная контекста доступна как глобальное имя; весь набор
// переменных дополнительно доступен через объект vars:
//
//	Evaluate("total * 2", ctx)
//	Evaluate("vars.rows.length > 0", ctx)
//
// Используется действием set и везде, где параметр шага требует
// вычисления, а не простой подстановки.
func Evaluate(expr string, ctx *Context) (any, error) {
	vm := goja.New()

	vars := ctx.All()
	for name, value := range vars {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("%w: set %s: %v", ErrEval, name, err)
		}
	}
	if err := vm.Set("vars", vars); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEval, err)
	}

	result, err := vm.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEval, err)
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, nil
	}
	return result.Export(), nil
}

// EvaluateBool вычисляет выражение и приводит результат к bool.
func EvaluateBool(expr string, ctx *Context) (bool, error) {
	result, err := Evaluate(expr, ctx)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrEval, result)
	}
	return b, nil
}
