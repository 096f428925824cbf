package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shaiso/Robota/internal/lockfile"
)

// CreateRun выполняет flow синхронно и возвращает запись запуска.
// POST /api/v1/flows/{name}/runs
//
// Занятая блокировка — 409 с записью отказа в теле.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	// Право run проверяет сам Runner.
	flow, err := h.flows.Load(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	var req CreateRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	rec, err := h.runner.Execute(r.Context(), flow, req.Inputs, actorRole(r))
	if errors.Is(err, lockfile.ErrLockBusy) {
		JSON(w, http.StatusConflict, DataResponse{Data: rec})
		return
	}
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, rec)
}

// ListRuns возвращает последние запуски.
// GET /api/v1/runs?limit=N
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.stats.RecentRuns(r.Context(), limit)
	if HandleError(w, h.logger, err) {
		return
	}
	List(w, runs, len(runs))
}

// StopRuns выставляет флаг остановки текущего запуска.
// POST /api/v1/runs/stop
func (h *Handler) StopRuns(w http.ResponseWriter, r *http.Request) {
	h.runner.Stop()
	h.logger.Info("stop requested", "remote_addr", r.RemoteAddr)
	NoContent(w)
}

// ListJobs возвращает зарегистрированные jobs планировщика.
// GET /api/v1/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.sched.Jobs()
	List(w, jobs, len(jobs))
}

// ListActions возвращает имена зарегистрированных действий.
// GET /api/v1/actions
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	List(w, names, len(names))
}
