package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/jacentio/waytally/locations"
	"github.com/jacentio/waytally/store"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 1<<20))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	counters, err := s.counters.List(r.Context())
	if err != nil {
		s.logger.Error("loading config failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load config")
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

// valueRequest is the raw, untrusted body of POST /value. Fields keep
// their wire types until coerced.
type valueRequest struct {
	Key   any `json:"key"`
	WayID any `json:"wayId"`
	ID    any `json:"id"`
	Delta any `json:"delta"`
}

// valueResponse is the success shape of POST /value.
type valueResponse struct {
	Key   string `json:"key"`
	ID    int64  `json:"id"`
	Value int64  `json:"value"`
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	var req valueRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	delta, ok := coerceInt(req.Delta)
	if !ok {
		writeError(w, http.StatusBadRequest, "delta (integer) is required")
		return
	}
	// Production policy: single-step changes only.
	if delta != 1 && delta != -1 {
		writeError(w, http.StatusBadRequest, "delta must be +1 or -1")
		return
	}

	cand := store.Candidates{}
	if v, ok := coerceString(req.Key); ok {
		cand.Key = &v
	}
	if v, ok := coerceInt(req.WayID); ok {
		cand.WayID = &v
	}
	if v, ok := coerceInt(req.ID); ok {
		cand.ID = &v
	}

	counter, err := s.counters.ApplyDelta(r.Context(), cand, delta)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidDelta):
			writeError(w, http.StatusBadRequest, "delta (integer) is required")
		case errors.Is(err, store.ErrKeyUnresolved):
			writeError(w, http.StatusBadRequest,
				"missing required key attributes for this table; include one or more of: key (string), wayId (number), id (number)")
		case errors.Is(err, store.ErrAtCeiling):
			writeError(w, http.StatusBadRequest, "value is already at its maximum")
		case errors.Is(err, store.ErrAtFloor):
			writeError(w, http.StatusBadRequest, "value is already at zero")
		default:
			s.logger.Error("updating value failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update value")
		}
		return
	}

	writeJSON(w, http.StatusOK, valueResponse{
		Key:   counter.Key,
		ID:    counter.ID,
		Value: counter.Value,
	})
}

func (s *Server) handleSaveLocation(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	var req struct {
		ID        any      `json:"id"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	id, ok := coerceString(req.ID)
	if !ok || req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "id, latitude and longitude are required")
		return
	}

	err = s.locations.Save(locations.Entry{
		ID:        id,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		s.logger.Error("saving location failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	var req struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	id, ok := coerceString(req.ID)
	if !ok {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.locations.Remove(id); err != nil {
		s.logger.Error("removing location failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleGetLocations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.locations.List()
	if err != nil {
		s.logger.Error("listing locations failed", "error", err)
		// An unreadable store reads as an empty list.
		entries = []locations.Entry{}
	}
	if entries == nil {
		entries = []locations.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// coerceInt accepts JSON numbers and decimal-integer strings.
func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// coerceString accepts strings and whole numbers; empty strings count
// as absent.
func coerceString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		if s != math.Trunc(s) {
			return "", false
		}
		return strconv.FormatInt(int64(s), 10), true
	}
	return "", false
}
