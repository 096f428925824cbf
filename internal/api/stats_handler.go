package api

import (
	"net/http"

	"github.com/shaiso/Robota/internal/stats"
)

// GetStats возвращает агрегат статистики.
// GET /api/v1/stats?format=json|html
//
// Оба формата — представления одного и того же снимка.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.stats.Snapshot(r.Context())
	if HandleError(w, h.logger, err) {
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		Success(w, snap)
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := stats.RenderHTML(w, snap); err != nil {
			h.logger.Error("render stats dashboard", "error", err)
		}
	default:
		BadRequest(w, "unknown format, want json or html")
	}
}
