package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/san-kum/dragsim/internal/metrics"
	"github.com/san-kum/dragsim/internal/physics"
	"github.com/san-kum/dragsim/internal/race"
	"github.com/san-kum/dragsim/internal/sim"
	"github.com/san-kum/dragsim/internal/vehicles"
)

type EnvironmentRequest struct {
	Temperature float64 `json:"temperature"`
	Altitude    float64 `json:"altitude"`
	Surface     string  `json:"surface_condition"`
}

func (e EnvironmentRequest) environment() (physics.Environment, error) {
	surface, err := physics.ParseSurface(e.Surface)
	if err != nil {
		return physics.Environment{}, err
	}
	return physics.NewEnvironment(e.Temperature, e.Altitude, surface), nil
}

// SimulateRequest is the body of POST /api/simulate. Omitted fields keep
// the values from newSimulateRequest.
type SimulateRequest struct {
	VehicleID        string             `json:"vehicleId"`
	Environment      EnvironmentRequest `json:"environment"`
	PowerMultiplier  float64            `json:"powerMultiplier"`
	ThrustMultiplier float64            `json:"thrustMultiplier"`
	UseAfterburner   bool               `json:"useAfterburner"`
	UseTakeoffWeight bool               `json:"useTakeoffWeight"`

	// LegacyAfterburner is the misspelled field older clients send. It
	// wins when present.
	LegacyAfterburner *bool `json:"useAfterburnner,omitempty"`
}

func newSimulateRequest() SimulateRequest {
	std := physics.StandardEnvironment()
	opts := vehicles.DefaultOptions()
	return SimulateRequest{
		Environment: EnvironmentRequest{
			Temperature: std.Temperature,
			Altitude:    std.Altitude,
			Surface:     std.Surface.String(),
		},
		PowerMultiplier:  opts.PowerMultiplier,
		ThrustMultiplier: opts.ThrustMultiplier,
		UseAfterburner:   opts.UseAfterburner,
		UseTakeoffWeight: opts.UseTakeoffWeight,
	}
}

// normalize folds the legacy afterburner field into UseAfterburner.
func (r *SimulateRequest) normalize() {
	if r.LegacyAfterburner != nil {
		r.UseAfterburner = *r.LegacyAfterburner
		r.LegacyAfterburner = nil
	}
}

func (r SimulateRequest) options() vehicles.Options {
	return vehicles.Options{
		PowerMultiplier:  r.PowerMultiplier,
		ThrustMultiplier: r.ThrustMultiplier,
		UseAfterburner:   r.UseAfterburner,
		UseTakeoffWeight: r.UseTakeoffWeight,
	}
}

// key identifies a request after defaults are applied. Runs are
// deterministic so equal keys give equal responses.
func (r SimulateRequest) key(env physics.Environment) string {
	return fmt.Sprintf("%s|%g|%g|%s|%g|%g|%t|%t",
		r.VehicleID, env.Temperature, env.Altitude, env.Surface,
		r.PowerMultiplier, r.ThrustMultiplier, r.UseAfterburner, r.UseTakeoffWeight)
}

// RaceRequest is the body of POST /api/race. Options apply to both
// vehicles.
type RaceRequest struct {
	SimulateRequest
	Vehicle1ID string `json:"vehicle1Id"`
	Vehicle2ID string `json:"vehicle2Id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type densityResponse struct {
	Temperature float64 `json:"temperature"`
	Altitude    float64 `json:"altitude"`
	AirDensity  float64 `json:"air_density"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.lg.Error("encode response", "status", code, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	s.writeJSON(w, code, resp)
}

// statusFor maps a simulation error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vehicles.ErrVehicleNotFound):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrParameterBounds),
		errors.Is(err, sim.ErrInvalidConfig),
		errors.Is(err, physics.ErrUnknownSurface):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) listVehicles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]vehicles.Vehicle{
		"cars": s.catalog.Cars(),
		"jets": s.catalog.Jets(),
	})
}

func (s *Server) getVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.catalog.Lookup(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Vehicle not found", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	req := newSimulateRequest()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}
	req.normalize()

	v, err := s.catalog.Lookup(req.VehicleID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Vehicle not found", nil)
		return
	}
	env, err := req.Environment.environment()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid environment", err)
		return
	}

	key := req.key(env)
	if body, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		w.Header().Set("X-Cache", "HIT")
		s.writeBody(w, body)
		return
	}

	result, err := v.Simulate(env, req.options(), s.cfg)
	if err != nil {
		s.lg.Warn("simulation failed", "vehicle", v.ID, "error", err)
		s.writeError(w, statusFor(err), "Simulation failed", err)
		return
	}
	metrics.SetAirDensity(env.AirDensity)

	body, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Simulation failed", err)
		return
	}
	body = append(body, '\n')
	s.cache.Add(key, body)

	w.Header().Set("X-Cache", "MISS")
	s.writeBody(w, body)
}

func (s *Server) writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		s.lg.Warn("write response", "error", err)
	}
}

func (s *Server) race(w http.ResponseWriter, r *http.Request) {
	req := RaceRequest{SimulateRequest: newSimulateRequest()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}
	req.normalize()

	var entries [2]race.Entry
	for i, id := range []string{req.Vehicle1ID, req.Vehicle2ID} {
		v, err := s.catalog.Lookup(id)
		if err != nil {
			s.writeError(w, http.StatusNotFound, "Vehicle not found", fmt.Errorf("vehicle%dId: %q", i+1, id))
			return
		}
		entries[i] = race.Entry{Vehicle: v, Options: req.options()}
	}
	env, err := req.Environment.environment()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid environment", err)
		return
	}

	cmp, err := race.Run(r.Context(), entries[0], entries[1], env, s.cfg)
	if err != nil {
		s.lg.Warn("race failed", "vehicle1", req.Vehicle1ID, "vehicle2", req.Vehicle2ID, "error", err)
		s.writeError(w, statusFor(err), "Race failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) density(w http.ResponseWriter, r *http.Request) {
	std := physics.StandardEnvironment()
	resp := densityResponse{Temperature: std.Temperature, Altitude: std.Altitude}

	q := r.URL.Query()
	for name, dst := range map[string]*float64{"temperature": &resp.Temperature, "altitude": &resp.Altitude} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			err = fmt.Errorf("%s must be finite, got %q", name, raw)
		}
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid "+name, err)
			return
		}
		*dst = v
	}

	resp.AirDensity = physics.Density(resp.Temperature, resp.Altitude)
	metrics.SetAirDensity(resp.AirDensity)
	s.writeJSON(w, http.StatusOK, resp)
}
