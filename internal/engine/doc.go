// Package engine содержит контекст выполнения flow, подстановку
// переменных в селекторы и параметры шагов, вычисление выражений
// и валидацию документов flow.
package engine
