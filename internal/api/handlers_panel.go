package api

import (
	"encoding/json"
	"net/http"

	"github.com/picoreplayer/panelpi-go/internal/models"
)

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State())
}

func (h *Handlers) getMeters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State().Meters)
}

func (h *Handlers) setMeters(w http.ResponseWriter, r *http.Request) {
	var upd models.MetersUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	state, appErr := h.ctrl.SetMeters(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) getBacklight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State().Backlight)
}

func (h *Handlers) setBacklight(w http.ResponseWriter, r *http.Request) {
	var upd models.BacklightUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	state, appErr := h.ctrl.SetBacklight(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) getMotor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State().Motor)
}

func (h *Handlers) setMotor(w http.ResponseWriter, r *http.Request) {
	var upd models.MotorUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	state, appErr := h.ctrl.SetMotor(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) setConfig(w http.ResponseWriter, r *http.Request) {
	var upd models.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	state, appErr := h.ctrl.SetConfig(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) sendCommand(w http.ResponseWriter, r *http.Request) {
	var req models.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	state, appErr := h.ctrl.SendCommand(r.Context(), req.Command)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) refreshDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.RefreshDevice(r.Context()); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.State())
}
