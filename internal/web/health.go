package web

import (
	"context"
	"net/http"
	"time"

	"github.com/courspresso/courspresso-web/internal/utils"
)

// Health reports browser storage and backend reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	storageOK := h.Storage.Ping(ctx) == nil
	backendOK := h.Backend == nil || h.Backend.Ping(ctx) == nil
	data := map[string]interface{}{
		"storage": storageOK,
		"backend": backendOK,
		"time":    time.Now(),
	}
	switch {
	case !storageOK:
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, false, "storage unreachable", data, nil)
	case !backendOK:
		// pages still render without the backend, so this is degraded, not down
		utils.WriteJSONResponse(w, http.StatusOK, true, "backend unreachable", data, nil)
	default:
		utils.WriteJSONResponse(w, http.StatusOK, true, "ok", data, nil)
	}
}
