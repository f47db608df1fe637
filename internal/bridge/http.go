package bridge

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/logging"
)

// maxRequestSize caps request bodies on the climate endpoint
const maxRequestSize = 4096

// DeviceView is the JSON representation of a thermostat
type DeviceView struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Settings command.Settings `json:"settings"`
	Command  string           `json:"command,omitempty"`
}

// ClimateRequest is a partial settings update. Omitted fields keep their
// current value.
type ClimateRequest struct {
	Mode        *string  `json:"mode,omitempty"`
	Fan         *string  `json:"fan,omitempty"`
	Swing       *string  `json:"swing,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Preset      *string  `json:"preset,omitempty"`
}

// apply overlays the request on s
func (r ClimateRequest) apply(s command.Settings) command.Settings {
	if r.Mode != nil {
		s.Mode = command.HVACMode(*r.Mode)
	}
	if r.Fan != nil {
		s.Fan = command.FanMode(*r.Fan)
	}
	if r.Swing != nil {
		s.Swing = command.SwingMode(*r.Swing)
	}
	if r.Temperature != nil {
		s.Temperature = *r.Temperature
	}
	if r.Preset != nil {
		s.Preset = command.Preset(*r.Preset)
	}
	return s
}

type errorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind,omitempty"`
	Hints []string `json:"hints,omitempty"`
}

// Handler returns the bridge's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /events", s.handleEvents)

	mux.HandleFunc("GET /api/devices", s.handleListDevices)
	mux.HandleFunc("POST /api/devices/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/devices/{id}", s.handleGetDevice)
	mux.HandleFunc("PUT /api/devices/{id}/climate", s.handleClimate)
	mux.HandleFunc("POST /api/devices/{id}/on", s.handlePower(true))
	mux.HandleFunc("POST /api/devices/{id}/off", s.handlePower(false))

	return logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"devices": len(s.manager.Thermostats()),
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	thermostats := s.manager.Thermostats()
	views := make([]DeviceView, 0, len(thermostats))
	for _, t := range thermostats {
		views = append(views, newDeviceView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	t, err := s.manager.Thermostat(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeviceView(t))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	thermostats, err := s.manager.Discover(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]DeviceView, 0, len(thermostats))
	devices := make([]cloud.Device, 0, len(thermostats))
	for _, t := range thermostats {
		views = append(views, newDeviceView(t))
		devices = append(devices, cloud.Device{ID: t.ID(), Name: t.Name()})
	}
	if s.store != nil {
		s.store.RecordDevices(devices)
		s.save()
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleClimate(w http.ResponseWriter, r *http.Request) {
	t, err := s.manager.Thermostat(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req ClimateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if err := t.Apply(r.Context(), req.apply(t.Settings())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeviceView(t))
}

func (s *Server) handlePower(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.manager.Thermostat(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}

		if on {
			err = t.TurnOn(r.Context())
		} else {
			err = t.TurnOff(r.Context())
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newDeviceView(t))
	}
}

func newDeviceView(t *climate.Thermostat) DeviceView {
	settings := t.Settings()
	view := DeviceView{
		ID:       t.ID(),
		Name:     t.Name(),
		Settings: settings,
	}
	if encoded, err := command.Encode(settings); err == nil {
		view.Command = encoded
	}
	return view
}

// StatusCode maps a climate or cloud error to an HTTP status
func StatusCode(err error) int {
	switch {
	case errors.Is(err, climate.ErrUnknownDevice):
		return http.StatusNotFound
	case errors.Is(err, command.ErrUnknownValue),
		errors.Is(err, command.ErrTemperatureOutOfRange),
		errors.Is(err, climate.ErrInvalidTemperature):
		return http.StatusBadRequest
	case errors.Is(err, climate.ErrNotAuthenticated), cloud.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, climate.ErrNotAcknowledged), cloud.IsAPIError(err):
		return http.StatusBadGateway
	case cloud.IsTransportError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var cloudErr *cloud.Error
	if errors.As(err, &cloudErr) {
		resp.Kind = cloudErr.Kind.String()
		resp.Hints = cloud.GetTroubleshootingHint(err)
	}
	writeJSON(w, StatusCode(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

// logRequests logs every request with its status and duration
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		logging.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Int64("bytes", sw.bytes),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

// statusWriter captures response status code and bytes written
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Hijack lets websocket upgrades through the wrapper
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		if w.status == 0 {
			w.status = http.StatusSwitchingProtocols
		}
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
}

// Flush passes through when supported
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
