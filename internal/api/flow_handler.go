package api

import (
	"io"
	"net/http"

	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/engine"
	"github.com/shaiso/Robota/internal/runner"
)

// actorRole извлекает роль вызывающего из заголовка X-Actor-Role.
func actorRole(r *http.Request) string {
	return r.Header.Get("X-Actor-Role")
}

// loadFlow загружает flow и проверяет право роли на операцию op.
func (h *Handler) loadFlow(w http.ResponseWriter, r *http.Request, check func(*domain.Flow, string) error) *domain.Flow {
	flow, err := h.flows.Load(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return nil
	}
	if err := check(flow, actorRole(r)); HandleError(w, h.logger, err) {
		return nil
	}
	return flow
}

// ListFlows возвращает список всех flows.
// GET /api/v1/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	names, err := h.flows.List()
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]FlowSummary, len(names))
	for i, name := range names {
		state := h.flows.State(name)
		result[i] = FlowSummary{
			Name:      name,
			Published: state.Published,
			Approved:  state.Approved,
		}
	}

	List(w, result, len(result))
}

// GetFlow возвращает документ flow по имени.
// GET /api/v1/flows/{name}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow := h.loadFlow(w, r, runner.ViewFlow)
	if flow == nil {
		return
	}
	Success(w, flow)
}

// UpdateFlow заменяет документ flow.
// PUT /api/v1/flows/{name}
func (h *Handler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	existing := h.loadFlow(w, r, runner.EditFlow)
	if existing == nil {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	flow, err := domain.ParseFlow(body)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	if flow.Name() != existing.Name() {
		BadRequest(w, "flow name mismatch")
		return
	}
	if err := engine.Validate(flow); HandleError(w, h.logger, err) {
		return
	}

	if err := h.flows.Save(flow); HandleError(w, h.logger, err) {
		return
	}
	Success(w, flow)
}

// PublishFlow отмечает flow как опубликованный.
// POST /api/v1/flows/{name}/publish
func (h *Handler) PublishFlow(w http.ResponseWriter, r *http.Request) {
	flow := h.loadFlow(w, r, runner.PublishFlow)
	if flow == nil {
		return
	}
	if err := h.flows.SetPublished(flow.Name()); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}

// ApproveFlow отмечает flow как утверждённый.
// POST /api/v1/flows/{name}/approve
func (h *Handler) ApproveFlow(w http.ResponseWriter, r *http.Request) {
	flow := h.loadFlow(w, r, runner.ApproveFlow)
	if flow == nil {
		return
	}
	if err := h.flows.SetApproved(flow.Name()); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}
