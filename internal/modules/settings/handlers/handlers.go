// Package handlers provides HTTP handlers for runtime settings management.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles settings HTTP requests
type Handler struct {
	repo *settings.Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(repo *settings.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetAll handles GET /api/settings. Stored values are merged over
// the defaults so the response always lists every known key.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	stored, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	list := make([]settings.Setting, 0, len(stored)+len(settings.SettingDefaults))
	for key, value := range stored {
		list = append(list, settings.Setting{
			Key:         key,
			Value:       value,
			Description: settings.SettingDescriptions[key],
		})
	}
	for key, def := range settings.SettingDefaults {
		if _, ok := stored[key]; ok {
			continue
		}
		value, err := formatValue(def)
		if err != nil {
			continue
		}
		list = append(list, settings.Setting{
			Key:         key,
			Value:       value,
			Description: settings.SettingDescriptions[key],
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/settings/{key}. Unset keys with a known
// default return the default; unknown keys return 404.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := h.repo.Get(key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to get setting")
		http.Error(w, "Failed to get setting", http.StatusInternalServerError)
		return
	}

	var resolved string
	switch {
	case value != nil:
		resolved = *value
	default:
		def, ok := settings.SettingDefaults[key]
		if !ok {
			http.Error(w, "Setting not found", http.StatusNotFound)
			return
		}
		resolved, err = formatValue(def)
		if err != nil {
			h.log.Error().Err(err).Str("key", key).Msg("Unrenderable default value")
			http.Error(w, "Failed to get setting", http.StatusInternalServerError)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": settings.Setting{
			Key:         key,
			Value:       resolved,
			Description: settings.SettingDescriptions[key],
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	value, err := formatValue(update.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Set(key, value); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to update setting")
		http.Error(w, "Failed to update setting", http.StatusInternalServerError)
		return
	}

	h.bus.Publish("settings", &events.SettingsChangedData{
		Key:   key,
		Value: value,
	})

	h.log.Info().Str("key", key).Str("value", value).Msg("Setting updated")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": settings.Setting{
			Key:         key,
			Value:       value,
			Description: settings.SettingDescriptions[key],
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDelete handles DELETE /api/settings/{key}, reverting the key to
// its default.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.repo.Delete(key); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to delete setting")
		http.Error(w, "Failed to delete setting", http.StatusInternalServerError)
		return
	}

	h.bus.Publish("settings", &events.SettingsChangedData{
		Key:   key,
		Value: nil,
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]string{
			"key":    key,
			"status": "deleted",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// formatValue renders a setting value the way the repository stores it.
// JSON numbers arrive as float64, so integer settings round-trip cleanly.
func formatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "", fmt.Errorf("value is required")
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
