package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/ecoview/sim"
)

// maxBodySize bounds POST bodies.
const maxBodySize = 64 << 10

// addRequest is the body of POST /api/organisms.
type addRequest struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"` // accepted as an alias for id
	Type   string     `json:"type"`
	Traits sim.Traits `json:"traits"`
}

// addResponse echoes the organism the engine created.
type addResponse struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Traits sim.Traits `json:"traits"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler returns the HTTP API backed by engine and hub.
func NewHandler(engine *sim.Engine, hub *Hub) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1 << 16,
		// Viewers may be served from any origin.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/ecosystem", func(w http.ResponseWriter, r *http.Request) {
		payload := hub.Latest()
		if payload == nil {
			var err error
			payload, err = json.Marshal(engine.Snapshot())
			if err != nil {
				writeError(w, "failed to encode", http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	})

	mux.HandleFunc("POST /api/organisms", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeError(w, "failed to read body", http.StatusBadRequest)
			return
		}
		var req addRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		kind, err := sim.ParseKind(req.Type)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := req.ID
		if id == "" {
			id = req.Name
		}

		id, traits, err := engine.Add(id, kind, req.Traits)
		if errors.Is(err, sim.ErrExists) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		slog.Info("organism added", "id", id, "type", kind.String())
		writeJSON(w, http.StatusCreated, addResponse{ID: id, Type: kind.String(), Traits: traits})
	})

	mux.HandleFunc("DELETE /api/organisms/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !engine.Remove(id) {
			writeError(w, "organism not found", http.StatusNotFound)
			return
		}
		slog.Info("organism removed", "id", id)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}
		hub.Serve(conn)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, errorResponse{Error: msg})
}
