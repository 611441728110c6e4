package input

import (
	"context"
	"log/slog"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/controller"
	"github.com/picoreplayer/panelpi-go/internal/models"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// DefaultPollRate is the input polling rate in Hz. Debouncing happens on
// the controller, so polling only needs to outrun human button mashing.
const DefaultPollRate = 20

// refreshEvery is how many poll cycles pass between full device refreshes
// (status, error bits, absolute levels).
const refreshEvery = 100

// Handler polls the panel for input activity and dispatches the configured
// actions to a media player.
type Handler struct {
	cl     *client.Client
	ctrl   *controller.Controller
	player Player

	pollRate int

	// lastButton detects phase transitions; actions fire on entry, not
	// while a phase persists across polls.
	lastButton byte
	// volumeMode is toggled by holding the encoder button. When off, the
	// encoder steps tracks instead of volume.
	volumeMode bool
}

// NewHandler returns a handler polling through ctrl's client. A nil player
// degrades to NullPlayer.
func NewHandler(ctrl *controller.Controller, player Player, pollRate int) *Handler {
	if player == nil {
		player = NullPlayer{}
	}
	if pollRate <= 0 {
		pollRate = DefaultPollRate
	}
	return &Handler{
		cl:         ctrl.Client(),
		ctrl:       ctrl,
		player:     player,
		pollRate:   pollRate,
		volumeMode: true,
	}
}

// Run polls until ctx is cancelled. Poll errors mark the device
// disconnected and keep trying; the panel returning is business as usual.
func (h *Handler) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.pollRate))
	defer ticker.Stop()

	cycle := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := h.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Debug("input: poll failed", "err", err)
				h.ctrl.NoteConnection(false)
				continue
			}
			cycle++
			if cycle%refreshEvery == 0 {
				if err := h.ctrl.RefreshDevice(ctx); err != nil {
					slog.Debug("input: refresh failed", "err", err)
				}
			}
		}
	}
}

// Poll runs one polling cycle: inputs, encoder delta, button phase.
func (h *Handler) Poll(ctx context.Context) error {
	events, err := h.cl.PollInputs(ctx)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		h.ctrl.NoteInputEvents(events)
		for _, ev := range events {
			if !ev.Actuated {
				continue
			}
			action := h.ctrl.ActionFor(ev.Channel)
			slog.Info("input: channel actuated", "channel", ev.Channel, "action", action)
			h.dispatch(ctx, action)
		}
	}

	delta, err := h.cl.EncoderDelta(ctx)
	if err != nil {
		return err
	}
	button, err := h.cl.Button(ctx)
	if err != nil {
		return err
	}
	if delta != 0 {
		h.handleEncoder(ctx, int(delta))
	}
	if delta != 0 || button != h.lastButton {
		pos, err := h.cl.EncoderPosition(ctx)
		if err != nil {
			return err
		}
		h.ctrl.NoteEncoder(pos, button)
	}
	if button != h.lastButton {
		h.handleButton(ctx, button)
		h.lastButton = button
	}

	h.ctrl.NoteConnection(true)
	return nil
}

// dispatch executes one mapped action. Player failures are logged and
// swallowed; a dead player must not wedge the poll loop.
func (h *Handler) dispatch(ctx context.Context, action string) {
	var err error
	switch action {
	case models.ActionPlayPause:
		err = h.player.PlayPause(ctx)
	case models.ActionPlay:
		err = h.player.Play(ctx)
	case models.ActionPause:
		err = h.player.Pause(ctx)
	case models.ActionStop:
		err = h.player.Stop(ctx)
	case models.ActionNext:
		err = h.player.Next(ctx)
	case models.ActionPrevious:
		err = h.player.Previous(ctx)
	case models.ActionVolumeUp:
		err = h.player.VolumeStep(ctx, 1)
	case models.ActionVolumeDown:
		err = h.player.VolumeStep(ctx, -1)
	case models.ActionMute:
		err = h.player.ToggleMute(ctx)
	case models.ActionNone:
		return
	default:
		return
	}
	if err != nil {
		slog.Warn("input: action failed", "action", action, "err", err)
	}
}

func (h *Handler) handleEncoder(ctx context.Context, delta int) {
	if h.volumeMode {
		if err := h.player.VolumeStep(ctx, delta); err != nil {
			slog.Warn("input: volume step failed", "delta", delta, "err", err)
		}
		return
	}
	// Track mode: one track per detent, direction by sign.
	var err error
	for i := 0; i < abs(delta); i++ {
		if delta > 0 {
			err = h.player.Next(ctx)
		} else {
			err = h.player.Previous(ctx)
		}
		if err != nil {
			slog.Warn("input: track step failed", "err", err)
			return
		}
	}
}

func (h *Handler) handleButton(ctx context.Context, phase byte) {
	switch phase {
	case regmap.ButtonPressed:
		h.dispatch(ctx, models.ActionPlayPause)
	case regmap.ButtonHeld:
		h.volumeMode = !h.volumeMode
		slog.Info("input: encoder mode toggled", "volume_mode", h.volumeMode)
	case regmap.ButtonDoubleClick:
		h.dispatch(ctx, models.ActionMute)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
