package stats

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/telemetry"
)

// Period — гранулярность группировки запусков по времени.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Store — агрегатор статистики запусков поверх SQLite.
//
// Записи добавляются последовательно (один писатель), чтение
// конкурентное. Категории причин — открытое множество: незнакомые
// категории сохраняются и считаются наравне со встроенными.
type Store struct {
	db      *sql.DB
	mu      sync.Mutex // сериализует запись
	metrics *telemetry.Metrics
}

// Open открывает (и при необходимости создаёт) базу статистики.
// metrics может быть nil.
func Open(path string, metrics *telemetry.Metrics) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_journal=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	// Один писатель; modernc/sqlite не любит пул соединений на запись.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, metrics: metrics}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			flow        TEXT NOT NULL,
			trigger     TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			status      TEXT NOT NULL,
			failed_step TEXT NOT NULL DEFAULT '',
			reason      TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_runs_flow ON runs(flow);

		CREATE TABLE IF NOT EXISTS selector_stats (
			flow     TEXT NOT NULL,
			selector TEXT NOT NULL,
			success  INTEGER NOT NULL DEFAULT 0,
			failure  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (flow, selector)
		);
	`)
	if err != nil {
		return fmt.Errorf("init stats schema: %w", err)
	}
	return nil
}

// Append сохраняет запись завершённого запуска и результаты
// разрешения селекторов.
func (s *Store) Append(rec *domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, flow, trigger, started_at, finished_at, duration_ms, status, failed_step, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID.String(),
		rec.Flow,
		string(rec.Trigger),
		rec.StartedAt.Unix(),
		rec.FinishedAt.Unix(),
		rec.Duration().Milliseconds(),
		string(rec.Status),
		rec.FailedStep,
		rec.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, outcome := range rec.Selectors {
		ok, fail := 0, 1
		if outcome.OK {
			ok, fail = 1, 0
		}
		_, err = tx.Exec(`
			INSERT INTO selector_stats (flow, selector, success, failure)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (flow, selector)
			DO UPDATE SET success = success + excluded.success,
			              failure = failure + excluded.failure`,
			rec.Flow, outcome.Selector, ok, fail,
		)
		if err != nil {
			return fmt.Errorf("update selector stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append run: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveRun(rec)
	}
	return nil
}

// SuccessRate возвращает долю успешных запусков среди завершённых
// (SKIPPED не учитывается). Без запусков — 0.
func (s *Store) SuccessRate(ctx context.Context) (float64, error) {
	var success, total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(status = 'SUCCESS'), 0), COUNT(*)
		FROM runs WHERE status != 'SKIPPED'`,
	).Scan(&success, &total)
	if err != nil {
		return 0, fmt.Errorf("success rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(success) / float64(total), nil
}

// AverageDuration возвращает среднюю продолжительность завершённых
// запусков в миллисекундах.
func (s *Store) AverageDuration(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(duration_ms) FROM runs WHERE status != 'SKIPPED'`,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average duration: %w", err)
	}
	return avg.Float64, nil
}

// FailureCounts возвращает количество отказов и пропусков по категории
// причины. Множество категорий открытое.
func (s *Store) FailureCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reason, COUNT(*) FROM runs
		WHERE reason != '' GROUP BY reason`,
	)
	if err != nil {
		return nil, fmt.Errorf("failure counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("failure counts: %w", err)
		}
		counts[reason] = n
	}
	return counts, rows.Err()
}

// DurationBucket — количество запусков в одной корзине длительности.
type DurationBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Границы корзин длительности в миллисекундах.
var durationEdges = []struct {
	label string
	below int64
}{
	{"<1s", 1_000},
	{"1s-5s", 5_000},
	{"5s-30s", 30_000},
	{"30s-2m", 120_000},
	{"2m-10m", 600_000},
}

// DurationDistribution возвращает распределение длительностей
// завершённых запусков по фиксированным корзинам.
func (s *Store) DurationDistribution(ctx context.Context) ([]DurationBucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT duration_ms FROM runs WHERE status != 'SKIPPED'`,
	)
	if err != nil {
		return nil, fmt.Errorf("duration distribution: %w", err)
	}
	defer rows.Close()

	buckets := make([]DurationBucket, len(durationEdges)+1)
	for i, edge := range durationEdges {
		buckets[i].Label = edge.label
	}
	buckets[len(durationEdges)].Label = ">=10m"

	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("duration distribution: %w", err)
		}
		idx := len(durationEdges)
		for i, edge := range durationEdges {
			if ms < edge.below {
				idx = i
				break
			}
		}
		buckets[idx].Count++
	}
	return buckets, rows.Err()
}

// SelectorRate — накопленная надёжность одного селектора.
type SelectorRate struct {
	Flow     string  `json:"flow"`
	Selector string  `json:"selector"`
	Success  int     `json:"success"`
	Failure  int     `json:"failure"`
	Rate     float64 `json:"rate"`
}

// SelectorRates возвращает надёжность селекторов, худшие первыми.
func (s *Store) SelectorRates(ctx context.Context) ([]SelectorRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow, selector, success, failure
		FROM selector_stats
		ORDER BY CAST(success AS REAL) / (success + failure) ASC, flow, selector`,
	)
	if err != nil {
		return nil, fmt.Errorf("selector rates: %w", err)
	}
	defer rows.Close()

	var rates []SelectorRate
	for rows.Next() {
		var r SelectorRate
		if err := rows.Scan(&r.Flow, &r.Selector, &r.Success, &r.Failure); err != nil {
			return nil, fmt.Errorf("selector rates: %w", err)
		}
		if total := r.Success + r.Failure; total > 0 {
			r.Rate = float64(r.Success) / float64(total)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// PeriodCount — количество запусков за один период.
type PeriodCount struct {
	Period  string `json:"period"`
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// RunCountsByPeriod группирует запуски по дню, неделе или месяцу.
func (s *Store) RunCountsByPeriod(ctx context.Context, period Period) ([]PeriodCount, error) {
	var format string
	switch period {
	case PeriodDay:
		format = "%Y-%m-%d"
	case PeriodWeek:
		format = "%Y-W%W"
	case PeriodMonth:
		format = "%Y-%m"
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime(?, started_at, 'unixepoch') AS bucket,
		       COUNT(*),
		       COALESCE(SUM(status = 'SUCCESS'), 0),
		       COALESCE(SUM(status = 'FAILED'), 0),
		       COALESCE(SUM(status = 'SKIPPED'), 0)
		FROM runs GROUP BY bucket ORDER BY bucket`,
		format,
	)
	if err != nil {
		return nil, fmt.Errorf("counts by period: %w", err)
	}
	defer rows.Close()

	var counts []PeriodCount
	for rows.Next() {
		var c PeriodCount
		if err := rows.Scan(&c.Period, &c.Total, &c.Success, &c.Failed, &c.Skipped); err != nil {
			return nil, fmt.Errorf("counts by period: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// FlowCount — количество запусков одного flow.
type FlowCount struct {
	Flow    string `json:"flow"`
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// RunCountsByFlow группирует запуски по flow.
func (s *Store) RunCountsByFlow(ctx context.Context) ([]FlowCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow,
		       COUNT(*),
		       COALESCE(SUM(status = 'SUCCESS'), 0),
		       COALESCE(SUM(status = 'FAILED'), 0),
		       COALESCE(SUM(status = 'SKIPPED'), 0)
		FROM runs GROUP BY flow ORDER BY flow`,
	)
	if err != nil {
		return nil, fmt.Errorf("counts by flow: %w", err)
	}
	defer rows.Close()

	var counts []FlowCount
	for rows.Next() {
		var c FlowCount
		if err := rows.Scan(&c.Flow, &c.Total, &c.Success, &c.Failed, &c.Skipped); err != nil {
			return nil, fmt.Errorf("counts by flow: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// RunRow — один запуск в выборке последних запусков.
type RunRow struct {
	RunID      string `json:"run_id"`
	Flow       string `json:"flow"`
	Trigger    string `json:"trigger"`
	StartedAt  int64  `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
	FailedStep string `json:"failed_step,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// RecentRuns возвращает последние limit запусков, новые первыми.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, flow, trigger, started_at, duration_ms, status, failed_step, reason
		FROM runs ORDER BY started_at DESC, run_id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Flow, &r.Trigger, &r.StartedAt, &r.DurationMS, &r.Status, &r.FailedStep, &r.Reason); err != nil {
			return nil, fmt.Errorf("recent runs: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
