// Package api implements the HTTP REST API for the panel service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/picoreplayer/panelpi-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is the interface the handlers use to interact with the panel state.
type Controller interface {
	State() models.PanelState
	SetMeters(ctx context.Context, upd models.MetersUpdate) (models.PanelState, *models.AppError)
	SetBacklight(ctx context.Context, upd models.BacklightUpdate) (models.PanelState, *models.AppError)
	SetMotor(ctx context.Context, upd models.MotorUpdate) (models.PanelState, *models.AppError)
	GetInputs() []models.Input
	SetInput(ctx context.Context, channel int, upd models.InputUpdate) (models.PanelState, *models.AppError)
	SetConfig(ctx context.Context, upd models.ConfigUpdate) (models.PanelState, *models.AppError)
	SendCommand(ctx context.Context, name string) (models.PanelState, *models.AppError)
	ResetEncoder(ctx context.Context) (models.PanelState, *models.AppError)
	RefreshDevice(ctx context.Context) error
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan models.PanelState
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// intParam reads an integer path parameter by name.
func intParam(r *http.Request, name string) (int, error) {
	s := chi.URLParam(r, name)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, models.ErrBadRequest("invalid " + name + " parameter")
	}
	return n, nil
}
