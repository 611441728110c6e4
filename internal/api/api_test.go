package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/api"
	"github.com/picoreplayer/panelpi-go/internal/auth"
	"github.com/picoreplayer/panelpi-go/internal/bus"
	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/config"
	"github.com/picoreplayer/panelpi-go/internal/controller"
	"github.com/picoreplayer/panelpi-go/internal/device"
	"github.com/picoreplayer/panelpi-go/internal/events"
	"github.com/picoreplayer/panelpi-go/internal/models"
)

// newTestServer spins up a full router over a simulated controller board.
func newTestServer(t *testing.T) (*httptest.Server, *device.Core) {
	t.Helper()

	core := device.New(device.NewSimPins(), device.NewSimPWM())
	cl, err := client.Connect(context.Background(), bus.NewLoopback(core.Dispatcher()))
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	evBus := events.NewBus()
	ctrl, err := controller.New(cl, config.NewMemStore(), evBus, "mock")
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}

	authSvc, err := auth.NewService("") // open mode: empty dir
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	router := api.NewRouter(ctrl, authSvc, evBus)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})
	return srv, core
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

// requireStatus fails the test if the response status doesn't match.
func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

// --- Tests ---

func TestGetState(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "GET", "/api", "")
	requireStatus(t, resp, http.StatusOK)

	var state models.PanelState
	decodeJSON(t, resp, &state)

	if len(state.Inputs) != models.NumInputChannels {
		t.Errorf("GET /api: %d inputs, want %d", len(state.Inputs), models.NumInputChannels)
	}
	if !state.Device.Connected {
		t.Error("GET /api: device not connected")
	}
	if state.Config.DebounceMs == 0 {
		t.Error("GET /api: config debounce is zero")
	}
}

func TestPatchMeters(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/meters", `{"left": 200, "right": 100}`)
	requireStatus(t, resp, http.StatusOK)

	var state models.PanelState
	decodeJSON(t, resp, &state)
	if state.Meters.Left != 200 || state.Meters.Right != 100 {
		t.Errorf("meters = %d/%d, want 200/100", state.Meters.Left, state.Meters.Right)
	}

	resp = do(t, srv, "GET", "/api/meters", "")
	requireStatus(t, resp, http.StatusOK)
	var meters models.Meters
	decodeJSON(t, resp, &meters)
	if meters.Left != 200 {
		t.Errorf("GET meters left = %d, want 200", meters.Left)
	}
}

func TestPatchMeters_OutOfRange(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/meters", `{"left": 300}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestPatchBacklight(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/backlight", `{"level": 42, "mode": "pulse"}`)
	requireStatus(t, resp, http.StatusOK)

	var state models.PanelState
	decodeJSON(t, resp, &state)
	if state.Backlight.Level != 42 {
		t.Errorf("backlight level = %d, want 42", state.Backlight.Level)
	}
	if state.Backlight.Mode != models.BacklightModePulse {
		t.Errorf("backlight mode = %q, want %q", state.Backlight.Mode, models.BacklightModePulse)
	}
}

func TestPatchMotor(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/motor", `{"speed": 128, "direction": "reverse", "enabled": true}`)
	requireStatus(t, resp, http.StatusOK)

	var state models.PanelState
	decodeJSON(t, resp, &state)
	if state.Motor.Speed != 128 || state.Motor.Direction != models.MotorDirReverse || !state.Motor.Enabled {
		t.Errorf("motor = %+v, want speed 128 reverse enabled", state.Motor)
	}

	resp = do(t, srv, "PATCH", "/api/motor", `{"direction": "sideways"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestInputs(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "GET", "/api/inputs", "")
	requireStatus(t, resp, http.StatusOK)
	var inputs []models.Input
	decodeJSON(t, resp, &inputs)
	if len(inputs) != models.NumInputChannels {
		t.Fatalf("got %d inputs, want %d", len(inputs), models.NumInputChannels)
	}

	resp = do(t, srv, "GET", "/api/inputs/2", "")
	requireStatus(t, resp, http.StatusOK)
	var in models.Input
	decodeJSON(t, resp, &in)
	if in.Channel != 2 {
		t.Errorf("input channel = %d, want 2", in.Channel)
	}

	resp = do(t, srv, "PATCH", "/api/inputs/7", `{"name": "Loudness", "action": "volume_up"}`)
	requireStatus(t, resp, http.StatusOK)
	var state models.PanelState
	decodeJSON(t, resp, &state)
	if state.Inputs[7].Name != "Loudness" || state.Inputs[7].Action != models.ActionVolumeUp {
		t.Errorf("input 7 = %+v, want Loudness/volume_up", state.Inputs[7])
	}

	resp = do(t, srv, "GET", "/api/inputs/99", "")
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = do(t, srv, "PATCH", "/api/inputs/notanumber", `{"name": "x"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestEncoderReset(t *testing.T) {
	srv, core := newTestServer(t)

	// Spin the simulated encoder forward a detent then latch the position.
	core.EncoderEdge(false, true)
	core.EncoderEdge(false, false)
	core.EncoderEdge(true, false)
	core.EncoderEdge(true, true)
	core.Tick(time.Now())

	resp := do(t, srv, "POST", "/api/refresh", "")
	requireStatus(t, resp, http.StatusOK)
	var state models.PanelState
	decodeJSON(t, resp, &state)
	if state.Encoder.Position == 0 {
		t.Fatal("encoder position still zero after edges")
	}

	resp = do(t, srv, "POST", "/api/encoder/reset", "")
	requireStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &state)
	if state.Encoder.Position != 0 {
		t.Errorf("encoder position = %d after reset, want 0", state.Encoder.Position)
	}
}

func TestPatchConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/config", `{"debounce_ms": 30, "meter_freq_div": 4}`)
	requireStatus(t, resp, http.StatusOK)
	var state models.PanelState
	decodeJSON(t, resp, &state)
	if state.Config.DebounceMs != 30 || state.Config.MeterFreqDiv != 4 {
		t.Errorf("config = %+v, want 30/4", state.Config)
	}

	resp = do(t, srv, "PATCH", "/api/config", `{"debounce_ms": 0}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestCommand(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "POST", "/api/command", `{"command": "test_meter_both"}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/command", `{"command": "launch_missiles"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestGetInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "GET", "/api/info", "")
	requireStatus(t, resp, http.StatusOK)

	var info map[string]interface{}
	decodeJSON(t, resp, &info)
	if host, _ := info["hostname"].(string); host == "" {
		t.Error("info missing hostname")
	}
	if _, ok := info["device"]; !ok {
		t.Error("info missing device block")
	}
}

func TestSSE_InitialState(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	// The first frame carries the full current state.
	scanner := bufio.NewScanner(resp.Body)
	var payload string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			payload = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if payload == "" {
		t.Fatal("no SSE data frame received")
	}

	var state models.PanelState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		t.Fatalf("unmarshal SSE frame: %v", err)
	}
	if len(state.Inputs) != models.NumInputChannels {
		t.Errorf("SSE state has %d inputs, want %d", len(state.Inputs), models.NumInputChannels)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/meters", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}
