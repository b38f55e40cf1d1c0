package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eneby-bridge/eneby-go/internal/config"
	"github.com/eneby-bridge/eneby-go/internal/models"
)

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctrl.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.ctrl.Config()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Redacted())
}

// putConfig provisions new broker credentials. A password equal to the
// redaction placeholder keeps the stored one, so a GET/PUT round trip does
// not wipe it.
func (h *Handlers) putConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	if cfg.Password == config.RedactedPassword {
		old, err := h.ctrl.Config()
		if err != nil {
			writeError(w, err)
			return
		}
		cfg.Password = old.Password
	}
	if strings.TrimSpace(cfg.MQTTServer) == "" {
		writeError(w, models.ErrInvalidField("mqtt_server", "mqtt_server is required"))
		return
	}
	if err := h.ctrl.Provision(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.ctrl.Config()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved.Redacted())
}

// postCommand feeds the request body to the command router as if it had
// arrived on the MQTT command/{name} topic.
func (h *Handlers) postCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		writeError(w, models.ErrBadRequest("read body: "+err.Error()))
		return
	}
	ok, err := h.ctrl.Command(r.Context(), name, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, models.ErrBadRequest("unrecognised command "+name+" "+string(payload)))
		return
	}
	writeJSON(w, http.StatusAccepted, models.CommandResult{Command: name, Payload: string(payload)})
}

// postReset acknowledges first and resets in the background, since a
// successful reset reboots the board.
func (h *Handlers) postReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"ok": true})
	go func() {
		if err := h.ctrl.Reset(context.Background()); err != nil {
			slog.Error("api: reset failed", "err", err)
		}
	}()
}
