// Package api implements the local HTTP API of the speaker bridge: state,
// broker provisioning, commands and an SSE stream of state changes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eneby-bridge/eneby-go/internal/config"
	"github.com/eneby-bridge/eneby-go/internal/device"
	"github.com/eneby-bridge/eneby-go/internal/models"
)

// maxCommandBody bounds POST /api/command payloads.
const maxCommandBody = 256

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is what the handlers need from the device. *device.Device
// implements it.
type Controller interface {
	State(ctx context.Context) (models.DeviceState, error)
	Command(ctx context.Context, name string, payload []byte) (bool, error)
	Config() (config.Config, error)
	Provision(ctx context.Context, cfg config.Config) error
	Reset(ctx context.Context) error
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan models.DeviceState
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON AppError. Errors from the device are
// mapped to a status code first.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	appErr := toAppError(err)
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(appErr)
}

func toAppError(err error) *models.AppError {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, device.ErrInvalidConfig):
		return models.ErrBadRequest(err.Error())
	case errors.Is(err, device.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return models.ErrUnavailable(err.Error())
	}
	return models.ErrInternal(err.Error())
}
