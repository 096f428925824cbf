// Package actions содержит реестр действий и встроенные семейства
// действий: веб-автоматизация, поиск по изображению, координатные
// действия, работа с таблицами и базовые утилиты.
//
// Действие — именованная возможность с единым интерфейсом
// execute(selector, params, context). Внешние бэкенды (браузер,
// поиск изображений, указатель, таблицы) подключаются через
// интерфейсы-границы из capability.go; семейство регистрируется
// только при наличии своего бэкенда, поэтому список объявленных
// имён всегда совпадает с множеством резолвящихся.
package actions
