package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"emitter-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const (
	maxBodyBytes    = 1 << 16
	defaultListSize = 10
	maxListSize     = 1000
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.CopySnapshot()
	if r.URL.Query().Get("entities") == "false" {
		snap.Entities = nil
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"engine":   h.engine.Stats(),
		"eventLog": h.engine.GetEventLogStats(),
	})
}

func (h *routerHandlers) handleGetEmitters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Emitters())
}

func (h *routerHandlers) handleGetEmitter(w http.ResponseWriter, r *http.Request) {
	em, err := h.engine.Emitter(chi.URLParam(r, "name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, em)
}

func (h *routerHandlers) handleGetForces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Forces())
}

func (h *routerHandlers) handleGetGame(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.CopySnapshot()
	writeJSON(w, map[string]interface{}{
		"scene": snap.Scene,
		"tick":  snap.TickNumber,
		"hud":   snap.Hud,
	})
}

func (h *routerHandlers) handleGetHighScores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.HighScores(listLimit(r)))
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.RecentEvents(listLimit(r)))
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.engine.CopySnapshot()); err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// Emitter commands

func (h *routerHandlers) handleEmitterStart(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, h.engine.StartEmitter(chi.URLParam(r, "name")))
}

func (h *routerHandlers) handleEmitterStop(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, h.engine.StopEmitter(chi.URLParam(r, "name")))
}

func (h *routerHandlers) handleEmitterReset(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, h.engine.ResetEmitter(chi.URLParam(r, "name")))
}

func (h *routerHandlers) handleEmitterPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, "x and y are required", http.StatusBadRequest)
		return
	}
	h.runCommand(w, h.engine.SetEmitterPosition(chi.URLParam(r, "name"), *req.X, *req.Y))
}

func (h *routerHandlers) handleEmitterRotation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Degrees *float64 `json:"degrees"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Degrees == nil {
		writeError(w, "degrees is required", http.StatusBadRequest)
		return
	}
	h.runCommand(w, h.engine.SetEmitterRotation(chi.URLParam(r, "name"), *req.Degrees))
}

func (h *routerHandlers) handleEmitterRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runCommand(w, h.engine.SetEmitterRate(chi.URLParam(r, "name"), req.Rate))
}

func (h *routerHandlers) handleSetForce(w http.ResponseWriter, r *http.Request) {
	var params game.ForceParams
	if !decodeJSON(w, r, &params) {
		return
	}
	h.runCommand(w, h.engine.SetForce(chi.URLParam(r, "name"), params))
}

// Player commands

func (h *routerHandlers) handlePlayerThrust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dir float64 `json:"dir"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runCommand(w, h.engine.Thrust(req.Dir))
}

func (h *routerHandlers) handlePlayerTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dir float64 `json:"dir"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runCommand(w, h.engine.Turn(req.Dir))
}

func (h *routerHandlers) handlePlayerFire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runCommand(w, h.engine.Fire(req.On))
}

func (h *routerHandlers) handleGameStart(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, h.engine.StartGame())
}

func (h *routerHandlers) runCommand(w http.ResponseWriter, err error) {
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps engine sentinel errors to HTTP status codes
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownEmitter), errors.Is(err, game.ErrUnknownForce):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, game.ErrInvalidValue):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, game.ErrNoPlayer):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("❌ Command failed: %v", err)
		writeError(w, "Internal error", http.StatusInternalServerError)
	}
}

// decodeJSON decodes a bounded request body, writing a 400 on failure.
// An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListSize
	}
	if n > maxListSize {
		return maxListSize
	}
	return n
}
