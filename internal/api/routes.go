package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
//
// Роль вызывающего передаётся заголовком X-Actor-Role и проверяется
// против ролевой карты конкретного flow.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Flows
	mux.Handle("GET /api/v1/flows", chain(http.HandlerFunc(h.ListFlows)))
	mux.Handle("GET /api/v1/flows/{name}", chain(http.HandlerFunc(h.GetFlow)))
	mux.Handle("PUT /api/v1/flows/{name}", chain(http.HandlerFunc(h.UpdateFlow)))
	mux.Handle("POST /api/v1/flows/{name}/publish", chain(http.HandlerFunc(h.PublishFlow)))
	mux.Handle("POST /api/v1/flows/{name}/approve", chain(http.HandlerFunc(h.ApproveFlow)))

	// Runs
	mux.Handle("POST /api/v1/flows/{name}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/runs/stop", chain(http.HandlerFunc(h.StopRuns)))

	// Jobs планировщика
	mux.Handle("GET /api/v1/jobs", chain(http.HandlerFunc(h.ListJobs)))

	// Действия
	mux.Handle("GET /api/v1/actions", chain(http.HandlerFunc(h.ListActions)))

	// Статистика
	mux.Handle("GET /api/v1/stats", chain(http.HandlerFunc(h.GetStats)))
}
