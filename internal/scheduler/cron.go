package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер шестипольных cron-выражений
// (секунда минута час день-месяца месяц день-недели).
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ParseExpr разбирает шестипольное cron-выражение.
func ParseExpr(expr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// ValidateExpr проверяет валидность cron-выражения.
func ValidateExpr(expr string) error {
	_, err := ParseExpr(expr)
	return err
}

// NextAfter вычисляет следующее время срабатывания выражения
// после момента from.
func NextAfter(expr string, from time.Time) (time.Time, error) {
	schedule, err := ParseExpr(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from), nil
}
