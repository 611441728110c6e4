package api

import (
	"encoding/json"
	"net/http"

	"github.com/picoreplayer/panelpi-go/internal/models"
)

func (h *Handlers) getInputs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.GetInputs())
}

func (h *Handlers) getInput(w http.ResponseWriter, r *http.Request) {
	ch, err := intParam(r, "ch")
	if err != nil {
		writeError(w, err)
		return
	}
	for _, in := range h.ctrl.GetInputs() {
		if in.Channel == ch {
			writeJSON(w, http.StatusOK, in)
			return
		}
	}
	writeError(w, models.ErrNotFound("input channel not found"))
}

func (h *Handlers) setInput(w http.ResponseWriter, r *http.Request) {
	ch, err := intParam(r, "ch")
	if err != nil {
		writeError(w, err)
		return
	}
	var upd models.InputUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	state, appErr := h.ctrl.SetInput(r.Context(), ch, upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) getEncoder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State().Encoder)
}

func (h *Handlers) resetEncoder(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.ResetEncoder(r.Context())
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
