package stats

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/Robota/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func successRecord(flow string) *domain.RunRecord {
	rec := domain.NewRunRecord(flow, domain.TriggerManual)
	rec.MarkSuccess()
	return rec
}

func failedRecord(flow, step, reason string) *domain.RunRecord {
	rec := domain.NewRunRecord(flow, domain.TriggerManual)
	rec.MarkFailed(step, reason)
	return rec
}

func skippedRecord(flow, reason string) *domain.RunRecord {
	rec := domain.NewRunRecord(flow, domain.TriggerSchedule)
	rec.MarkSkipped(reason)
	return rec
}

func mustAppend(t *testing.T, s *Store, recs ...*domain.RunRecord) {
	t.Helper()
	for _, rec := range recs {
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestSuccessRate_ExcludesSkipped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Без запусков — ноль, не деление на ноль.
	rate, err := s.SuccessRate(ctx)
	if err != nil {
		t.Fatalf("SuccessRate: %v", err)
	}
	if rate != 0 {
		t.Errorf("empty store should give 0, got %v", rate)
	}

	mustAppend(t, s,
		successRecord("invoices"),
		successRecord("invoices"),
		failedRecord("invoices", "s2", domain.ReasonActionError),
		skippedRecord("invoices", domain.ReasonConditionFalse),
		skippedRecord("invoices", domain.ReasonLockBusy),
	)

	rate, err = s.SuccessRate(ctx)
	if err != nil {
		t.Fatalf("SuccessRate: %v", err)
	}
	// Пропуски не в знаменателе: 2 успеха из 3 завершённых.
	if math.Abs(rate-2.0/3.0) > 1e-9 {
		t.Errorf("expected 2/3, got %v", rate)
	}
}

func TestFailureCounts_OpenReasonSet(t *testing.T) {
	s := newTestStore(t)

	mustAppend(t, s,
		failedRecord("a", "s1", domain.ReasonLockBusy),
		failedRecord("a", "s1", domain.ReasonLockBusy),
		failedRecord("b", "s3", domain.ReasonUnknownAction),
		skippedRecord("b", domain.ReasonConditionFalse),
		// Незнакомая категория должна считаться наравне со встроенными.
		failedRecord("c", "s1", "browser_crash"),
		successRecord("a"),
	)

	counts, err := s.FailureCounts(context.Background())
	if err != nil {
		t.Fatalf("FailureCounts: %v", err)
	}

	want := map[string]int{
		domain.ReasonLockBusy:       2,
		domain.ReasonUnknownAction:  1,
		domain.ReasonConditionFalse: 1,
		"browser_crash":             1,
	}
	if len(counts) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), counts)
	}
	for reason, n := range want {
		if counts[reason] != n {
			t.Errorf("reason %s: expected %d, got %d", reason, n, counts[reason])
		}
	}
}

func TestDurationDistribution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Запуски с управляемой длительностью.
	durations := []time.Duration{
		200 * time.Millisecond, // <1s
		3 * time.Second,        // 1s-5s
		3 * time.Second,        // 1s-5s
		time.Minute,            // 30s-2m
		time.Hour,              // >=10m
	}
	for _, d := range durations {
		rec := domain.NewRunRecord("invoices", domain.TriggerManual)
		rec.StartedAt = time.Now().Add(-d)
		rec.MarkSuccess()
		mustAppend(t, s, rec)
	}
	// Пропуск в распределение не входит.
	mustAppend(t, s, skippedRecord("invoices", domain.ReasonLockBusy))

	buckets, err := s.DurationDistribution(ctx)
	if err != nil {
		t.Fatalf("DurationDistribution: %v", err)
	}

	got := make(map[string]int, len(buckets))
	total := 0
	for _, b := range buckets {
		got[b.Label] = b.Count
		total += b.Count
	}
	if total != len(durations) {
		t.Errorf("expected %d runs in distribution, got %d", len(durations), total)
	}
	if got["<1s"] != 1 || got["1s-5s"] != 2 || got["30s-2m"] != 1 || got[">=10m"] != 1 {
		t.Errorf("unexpected distribution: %v", got)
	}
}

func TestSelectorRates_WorstFirst(t *testing.T) {
	s := newTestStore(t)

	good := domain.NewRunRecord("invoices", domain.TriggerManual)
	good.AddSelectorOutcome("css=#submit", true)
	good.AddSelectorOutcome("css=#flaky", true)
	good.MarkSuccess()

	bad := domain.NewRunRecord("invoices", domain.TriggerManual)
	bad.AddSelectorOutcome("css=#submit", true)
	bad.AddSelectorOutcome("css=#flaky", false)
	bad.MarkFailed("s2", domain.ReasonNotFound)

	mustAppend(t, s, good, bad)

	rates, err := s.SelectorRates(context.Background())
	if err != nil {
		t.Fatalf("SelectorRates: %v", err)
	}
	if len(rates) != 2 {
		t.Fatalf("expected 2 selectors, got %d", len(rates))
	}

	// Худший селектор первым.
	flaky := rates[0]
	if flaky.Selector != "css=#flaky" || flaky.Success != 1 || flaky.Failure != 1 {
		t.Errorf("unexpected worst selector: %+v", flaky)
	}
	if math.Abs(flaky.Rate-0.5) > 1e-9 {
		t.Errorf("expected rate 0.5, got %v", flaky.Rate)
	}

	solid := rates[1]
	if solid.Selector != "css=#submit" || solid.Rate != 1.0 {
		t.Errorf("unexpected second selector: %+v", solid)
	}
}

// Повторные запуски накапливают счётчики селекторов, не плодя строки.
func TestSelectorRates_Accumulate(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		rec := domain.NewRunRecord("invoices", domain.TriggerManual)
		rec.AddSelectorOutcome("css=#submit", true)
		rec.MarkSuccess()
		mustAppend(t, s, rec)
	}

	rates, err := s.SelectorRates(context.Background())
	if err != nil {
		t.Fatalf("SelectorRates: %v", err)
	}
	if len(rates) != 1 || rates[0].Success != 3 {
		t.Errorf("expected one selector with 3 successes, got %+v", rates)
	}
}

func TestRunCountsByFlow(t *testing.T) {
	s := newTestStore(t)

	mustAppend(t, s,
		successRecord("invoices"),
		failedRecord("invoices", "s1", domain.ReasonActionError),
		skippedRecord("reports", domain.ReasonLockBusy),
	)

	counts, err := s.RunCountsByFlow(context.Background())
	if err != nil {
		t.Fatalf("RunCountsByFlow: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(counts))
	}

	inv := counts[0]
	if inv.Flow != "invoices" || inv.Total != 2 || inv.Success != 1 || inv.Failed != 1 {
		t.Errorf("unexpected invoices counts: %+v", inv)
	}
	rep := counts[1]
	if rep.Flow != "reports" || rep.Total != 1 || rep.Skipped != 1 {
		t.Errorf("unexpected reports counts: %+v", rep)
	}
}

func TestRunCountsByPeriod(t *testing.T) {
	s := newTestStore(t)

	mustAppend(t, s, successRecord("invoices"), failedRecord("invoices", "s1", domain.ReasonPanic))

	for _, period := range []Period{PeriodDay, PeriodWeek, PeriodMonth} {
		counts, err := s.RunCountsByPeriod(context.Background(), period)
		if err != nil {
			t.Fatalf("RunCountsByPeriod(%s): %v", period, err)
		}
		// Все записи сегодняшние — одна корзина.
		if len(counts) != 1 || counts[0].Total != 2 {
			t.Errorf("period %s: expected one bucket of 2, got %+v", period, counts)
		}
	}

	if _, err := s.RunCountsByPeriod(context.Background(), Period("year")); err == nil {
		t.Error("unknown period should be rejected")
	}
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	old := domain.NewRunRecord("invoices", domain.TriggerManual)
	old.StartedAt = time.Now().Add(-time.Hour)
	old.MarkSuccess()

	fresh := failedRecord("reports", "s1", domain.ReasonTimeout)
	mustAppend(t, s, old, fresh)

	runs, err := s.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Flow != "reports" || runs[0].Reason != domain.ReasonTimeout {
		t.Errorf("expected the fresh run first, got %+v", runs[0])
	}

	// Лимит ограничивает выборку.
	runs, err = s.RecentRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestStore(t)

	rec := domain.NewRunRecord("invoices", domain.TriggerManual)
	rec.AddSelectorOutcome("css=#submit", true)
	rec.MarkSuccess()
	mustAppend(t, s,
		rec,
		failedRecord("reports", "s2", domain.ReasonNotFound),
		skippedRecord("reports", domain.ReasonConditionFalse),
	)

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.GeneratedAt.IsZero() {
		t.Error("snapshot must carry generation time")
	}
	if math.Abs(snap.SuccessRate-0.5) > 1e-9 {
		t.Errorf("expected success rate 0.5, got %v", snap.SuccessRate)
	}
	if len(snap.ByFlow) != 2 {
		t.Errorf("expected 2 flows, got %+v", snap.ByFlow)
	}
	if len(snap.Selectors) != 1 {
		t.Errorf("expected 1 selector, got %+v", snap.Selectors)
	}
	// Все три периода заполняются из одного снимка; записи одного дня
	// дают ровно одну строку в каждом.
	if len(snap.ByDay) != 1 || snap.ByDay[0].Total != 3 {
		t.Errorf("expected one day bucket with 3 runs, got %+v", snap.ByDay)
	}
	if len(snap.ByWeek) != 1 || snap.ByWeek[0].Total != 3 {
		t.Errorf("expected one week bucket with 3 runs, got %+v", snap.ByWeek)
	}
	if len(snap.ByMonth) != 1 || snap.ByMonth[0].Total != 3 {
		t.Errorf("expected one month bucket with 3 runs, got %+v", snap.ByMonth)
	}
	if len(snap.Recent) != 3 {
		t.Errorf("expected 3 recent runs, got %d", len(snap.Recent))
	}
	if snap.FailureCounts[domain.ReasonNotFound] != 1 || snap.FailureCounts[domain.ReasonConditionFalse] != 1 {
		t.Errorf("unexpected failure counts: %v", snap.FailureCounts)
	}
}
