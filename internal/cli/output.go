package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Output рендерит доменные объекты Robota в таблицы или JSON.
//
// Команды передают сюда ответы клиента как есть; форматирование
// строк (длительности, проценты, unix-время) живёт в одном месте.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Flows выводит список flows с признаками публикации и утверждения.
func (o *Output) Flows(flows []FlowSummary) {
	rows := make([][]string, len(flows))
	for i, f := range flows {
		rows[i] = []string{f.Name, yesNo(f.Published), yesNo(f.Approved)}
	}
	o.print([]string{"NAME", "PUBLISHED", "APPROVED"}, rows, flows)
}

// Runs выводит выборку последних запусков.
func (o *Output) Runs(runs []RunRow) {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.Flow,
			r.Trigger,
			r.Status,
			r.Reason,
			time.Unix(r.StartedAt, 0).Format(time.RFC3339),
			formatMillis(float64(r.DurationMS)),
		}
	}
	o.print([]string{"FLOW", "TRIGGER", "STATUS", "REASON", "STARTED", "DURATION"}, rows, runs)
}

// Run выводит итог одиночного завершённого запуска.
func (o *Output) Run(run *RunResponse) {
	o.print(
		[]string{"RUN_ID", "FLOW", "STATUS", "FAILED_STEP", "REASON"},
		[][]string{{run.RunID, run.Flow, run.Status, run.FailedStep, run.Reason}},
		run,
	)
}

// Jobs выводит jobs планировщика.
func (o *Output) Jobs(jobs []JobResponse) {
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = []string{j.Name, j.Cron, j.NextRun, yesNo(j.Running)}
	}
	o.print([]string{"NAME", "CRON", "NEXT_RUN", "RUNNING"}, rows, jobs)
}

// Actions выводит имена зарегистрированных действий.
func (o *Output) Actions(names []string) {
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name}
	}
	o.print([]string{"NAME"}, rows, names)
}

// FlowCounts выводит агрегат статистики: сводную строку в stderr и
// разбивку по flow в stdout.
func (o *Output) FlowCounts(stats *StatsResponse) {
	o.Success(fmt.Sprintf("Success rate: %s, average duration: %s",
		formatPercent(stats.SuccessRate), formatMillis(stats.AverageDurationMS)))

	rows := make([][]string, len(stats.ByFlow))
	for i, f := range stats.ByFlow {
		rows[i] = []string{
			f.Flow,
			strconv.Itoa(f.Total),
			strconv.Itoa(f.Success),
			strconv.Itoa(f.Failed),
			strconv.Itoa(f.Skipped),
		}
	}
	o.print([]string{"FLOW", "TOTAL", "SUCCESS", "FAILED", "SKIPPED"}, rows, stats)
}

// Selectors выводит надёжность селекторов, худшие первыми.
func (o *Output) Selectors(stats *StatsResponse) {
	rows := make([][]string, len(stats.Selectors))
	for i, s := range stats.Selectors {
		rows[i] = []string{
			s.Flow,
			s.Selector,
			strconv.Itoa(s.Success),
			strconv.Itoa(s.Failure),
			formatPercent(s.Rate),
		}
	}
	o.print([]string{"FLOW", "SELECTOR", "SUCCESS", "FAILURE", "RATE"}, rows, stats.Selectors)
}

// print выводит таблицу или JSON в зависимости от режима.
func (o *Output) print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.table(headers, rows)
}

// table выводит данные в виде таблицы через tabwriter.
func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// formatMillis переводит миллисекунды в человекочитаемую длительность.
func formatMillis(ms float64) string {
	switch d := time.Duration(ms) * time.Millisecond; {
	case d < time.Second:
		return fmt.Sprintf("%.0fms", ms)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// formatPercent форматирует долю 0..1 как процент.
func formatPercent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
