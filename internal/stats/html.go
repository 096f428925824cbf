package stats

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// heatmapDays — глубина теплокарты активности в днях.
const heatmapDays = 35

// heatCell — одна ячейка теплокарты.
type heatCell struct {
	Date  string
	Total int
	Class string
}

// dashboardData — данные шаблона дашборда.
type dashboardData struct {
	Snapshot *Snapshot
	Heatmap  []heatCell
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"percent": func(rate float64) string { return fmt.Sprintf("%.1f%%", rate*100) },
	"ms":      func(v float64) string { return fmt.Sprintf("%.0f ms", v) },
}).Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>Robota — статистика запусков</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 2em; }
table { border-collapse: collapse; margin-top: 0.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
.cards { display: flex; gap: 2em; margin-top: 1em; }
.card { border: 1px solid #ccc; border-radius: 6px; padding: 1em 2em; }
.card .value { font-size: 1.6em; font-weight: bold; }
.heatmap { display: grid; grid-template-columns: repeat(7, 18px); gap: 3px; margin-top: 0.5em; }
.cell { width: 18px; height: 18px; border-radius: 3px; background: #eee; }
.cell.low { background: #c6e48b; }
.cell.mid { background: #7bc96f; }
.cell.high { background: #239a3b; }
.status-FAILED { color: #b00; }
.status-SKIPPED { color: #888; }
</style>
</head>
<body>
<h1>Статистика запусков</h1>
<p>Снимок от {{.Snapshot.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>

<div class="cards">
<div class="card"><div>Успешность</div><div class="value">{{percent .Snapshot.SuccessRate}}</div></div>
<div class="card"><div>Средняя длительность</div><div class="value">{{ms .Snapshot.AverageDurationMS}}</div></div>
</div>

<h2>Активность за {{len .Heatmap}} дней</h2>
<div class="heatmap">
{{range .Heatmap}}<div class="cell {{.Class}}" title="{{.Date}}: {{.Total}}"></div>{{end}}
</div>

<h2>Распределение длительностей</h2>
<table>
<tr><th>Корзина</th><th>Количество</th></tr>
{{range .Snapshot.Durations}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>

<h2>Запуски по неделям</h2>
<table>
<tr><th>Неделя</th><th>Всего</th><th>Успех</th><th>Отказ</th><th>Пропуск</th></tr>
{{range .Snapshot.ByWeek}}<tr><td>{{.Period}}</td><td>{{.Total}}</td><td>{{.Success}}</td><td>{{.Failed}}</td><td>{{.Skipped}}</td></tr>
{{end}}
</table>

<h2>Запуски по месяцам</h2>
<table>
<tr><th>Месяц</th><th>Всего</th><th>Успех</th><th>Отказ</th><th>Пропуск</th></tr>
{{range .Snapshot.ByMonth}}<tr><td>{{.Period}}</td><td>{{.Total}}</td><td>{{.Success}}</td><td>{{.Failed}}</td><td>{{.Skipped}}</td></tr>
{{end}}
</table>

<h2>Причины отказов и пропусков</h2>
<table>
<tr><th>Причина</th><th>Количество</th></tr>
{{range $reason, $n := .Snapshot.FailureCounts}}<tr><td>{{$reason}}</td><td>{{$n}}</td></tr>
{{end}}
</table>

<h2>Запуски по flow</h2>
<table>
<tr><th>Flow</th><th>Всего</th><th>Успех</th><th>Отказ</th><th>Пропуск</th></tr>
{{range .Snapshot.ByFlow}}<tr><td>{{.Flow}}</td><td>{{.Total}}</td><td>{{.Success}}</td><td>{{.Failed}}</td><td>{{.Skipped}}</td></tr>
{{end}}
</table>

<h2>Надёжность селекторов</h2>
<table>
<tr><th>Flow</th><th>Селектор</th><th>Успех</th><th>Отказ</th><th>Доля</th></tr>
{{range .Snapshot.Selectors}}<tr><td>{{.Flow}}</td><td>{{.Selector}}</td><td>{{.Success}}</td><td>{{.Failure}}</td><td>{{percent .Rate}}</td></tr>
{{end}}
</table>

<h2>Последние запуски</h2>
<table>
<tr><th>Flow</th><th>Триггер</th><th>Статус</th><th>Причина</th><th>Длительность</th></tr>
{{range .Snapshot.Recent}}<tr><td>{{.Flow}}</td><td>{{.Trigger}}</td><td class="status-{{.Status}}">{{.Status}}</td><td>{{.Reason}}</td><td>{{.DurationMS}} ms</td></tr>
{{end}}
</table>
</body>
</html>
`))

// RenderHTML рендерит дашборд из снимка snap в w.
//
// Дашборд — человекочитаемое представление того же агрегата, что
// отдаётся в JSON: оба строятся из одного Snapshot.
func RenderHTML(w io.Writer, snap *Snapshot) error {
	if err := dashboardTmpl.Execute(w, dashboardData{
		Snapshot: snap,
		Heatmap:  buildHeatmap(snap, time.Now()),
	}); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// buildHeatmap строит ячейки активности за последние heatmapDays дней,
// старые первыми.
func buildHeatmap(snap *Snapshot, now time.Time) []heatCell {
	byDay := make(map[string]int, len(snap.ByDay))
	for _, c := range snap.ByDay {
		byDay[c.Period] = c.Total
	}

	cells := make([]heatCell, 0, heatmapDays)
	for i := heatmapDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		total := byDay[date]
		cells = append(cells, heatCell{
			Date:  date,
			Total: total,
			Class: heatClass(total),
		})
	}
	return cells
}

func heatClass(total int) string {
	switch {
	case total == 0:
		return ""
	case total < 5:
		return "low"
	case total < 20:
		return "mid"
	default:
		return "high"
	}
}
