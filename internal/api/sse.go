package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/picoreplayer/panelpi-go/internal/models"
)

// sseEvents streams panel state changes as Server-Sent Events. The client
// receives the current state immediately, then one event per state change.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	id := uuid.New().String()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	writeEvent(w, flusher, h.ctrl.State())

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, flusher, state)
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, state models.PanelState) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
