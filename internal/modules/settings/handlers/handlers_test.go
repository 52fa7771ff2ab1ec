package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestHandler(t *testing.T) (*Handler, *events.Bus) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	require.NoError(t, err)

	bus := events.NewBus(log)
	return NewHandler(settings.NewRepository(db, log), bus, log), bus
}

func testRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestHandleUpdateAndGet(t *testing.T) {
	handler, bus := setupTestHandler(t)
	router := testRouter(handler)

	var changed []*events.Event
	bus.Subscribe(events.SettingsChanged, func(e *events.Event) {
		changed = append(changed, e)
	})

	body := bytes.NewReader([]byte(`{"value": 4.5}`))
	req := httptest.NewRequest("PUT", "/api/settings/mp_threshold_percent", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "4.5", data["value"])

	require.Len(t, changed, 1)
	payload, ok := changed[0].Data.(*events.SettingsChangedData)
	require.True(t, ok)
	assert.Equal(t, "mp_threshold_percent", payload.Key)

	req = httptest.NewRequest("GET", "/api/settings/mp_threshold_percent", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w)
	assert.Equal(t, "4.5", data["value"])
}

func TestHandleGetFallsBackToDefault(t *testing.T) {
	handler, _ := setupTestHandler(t)
	router := testRouter(handler)

	req := httptest.NewRequest("GET", "/api/settings/sub_mp_threshold_percent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "5", data["value"])
	assert.NotEmpty(t, data["description"])
}

func TestHandleGetUnknownKey(t *testing.T) {
	handler, _ := setupTestHandler(t)
	router := testRouter(handler)

	req := httptest.NewRequest("GET", "/api/settings/no_such_setting", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetAllMergesDefaults(t *testing.T) {
	handler, _ := setupTestHandler(t)
	router := testRouter(handler)

	body := bytes.NewReader([]byte(`{"value": "0 0 * * * *"}`))
	req := httptest.NewRequest("PUT", "/api/settings/evaluation_schedule", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/settings", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	list, ok := response["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, list, len(settings.SettingDefaults))

	values := make(map[string]string, len(list))
	for _, raw := range list {
		entry, ok := raw.(map[string]interface{})
		require.True(t, ok)
		values[entry["key"].(string)] = entry["value"].(string)
	}

	assert.Equal(t, "0 0 * * * *", values["evaluation_schedule"], "stored value wins over default")
	assert.Equal(t, "3", values["mp_threshold_percent"], "unset keys list their default")
}

func TestHandleUpdateInvalidBody(t *testing.T) {
	handler, _ := setupTestHandler(t)
	router := testRouter(handler)

	req := httptest.NewRequest("PUT", "/api/settings/mp_threshold_percent", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpdateMissingValue(t *testing.T) {
	handler, _ := setupTestHandler(t)
	router := testRouter(handler)

	req := httptest.NewRequest("PUT", "/api/settings/mp_threshold_percent", bytes.NewReader([]byte(`{"value": null}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDeleteRevertsToDefault(t *testing.T) {
	handler, _ := setupTestHandler(t)
	router := testRouter(handler)

	body := bytes.NewReader([]byte(`{"value": 9.0}`))
	req := httptest.NewRequest("PUT", "/api/settings/mp_threshold_percent", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("DELETE", "/api/settings/mp_threshold_percent", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/settings/mp_threshold_percent", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "3", data["value"])
}
