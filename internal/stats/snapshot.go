package stats

import (
	"context"
	"fmt"
	"time"
)

// Snapshot — единый агрегат статистики.
//
// Оба представления (JSON для API и HTML-дашборд) строятся из одного
// снимка, расхождение между ними исключено по построению.
type Snapshot struct {
	// GeneratedAt — момент построения снимка.
	GeneratedAt time.Time `json:"generated_at"`

	// SuccessRate — доля успешных среди завершённых запусков.
	SuccessRate float64 `json:"success_rate"`

	// AverageDurationMS — средняя продолжительность запуска.
	AverageDurationMS float64 `json:"average_duration_ms"`

	// FailureCounts — отказы и пропуски по категории причины.
	FailureCounts map[string]int `json:"failure_counts"`

	// Durations — распределение длительностей по корзинам.
	Durations []DurationBucket `json:"durations"`

	// ByFlow — запуски по flow.
	ByFlow []FlowCount `json:"by_flow"`

	// ByDay — запуски по дням.
	ByDay []PeriodCount `json:"by_day"`

	// ByWeek — запуски по неделям.
	ByWeek []PeriodCount `json:"by_week"`

	// ByMonth — запуски по месяцам.
	ByMonth []PeriodCount `json:"by_month"`

	// Selectors — надёжность селекторов, худшие первыми.
	Selectors []SelectorRate `json:"selectors"`

	// Recent — последние запуски.
	Recent []RunRow `json:"recent"`
}

// Snapshot строит снимок агрегата по текущему содержимому базы.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{GeneratedAt: time.Now()}

	var err error
	if snap.SuccessRate, err = s.SuccessRate(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.AverageDurationMS, err = s.AverageDuration(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.FailureCounts, err = s.FailureCounts(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.Durations, err = s.DurationDistribution(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.ByFlow, err = s.RunCountsByFlow(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.ByDay, err = s.RunCountsByPeriod(ctx, PeriodDay); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.ByWeek, err = s.RunCountsByPeriod(ctx, PeriodWeek); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.ByMonth, err = s.RunCountsByPeriod(ctx, PeriodMonth); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.Selectors, err = s.SelectorRates(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap.Recent, err = s.RecentRuns(ctx, 50); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}
