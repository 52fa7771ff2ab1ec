package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/driftline/ballast/internal/database"
)

// SystemHandlers handles health and system monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	databases   []*database.DB
}

// DatabaseStats describes one database file in the stats response.
type DatabaseStats struct {
	Name      string  `json:"name"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// SystemStatsResponse is the payload of GET /api/system/stats.
type SystemStatsResponse struct {
	CPUPercent    float64         `json:"cpu_percent"`
	MemoryPercent float64         `json:"memory_percent"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	Databases     []DatabaseStats `json:"databases"`
	TotalSizeMB   float64         `json:"total_size_mb"`
}

// NewSystemHandlers creates a new system handlers instance. Nil database
// entries are skipped, so optional databases can be passed unconditionally.
func NewSystemHandlers(log zerolog.Logger, databases []*database.DB) *SystemHandlers {
	kept := make([]*database.DB, 0, len(databases))
	for _, db := range databases {
		if db != nil {
			kept = append(kept, db)
		}
	}

	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		databases:   kept,
	}
}

// HandleHealth handles GET /health. Every database is integrity-checked;
// any failure degrades the response to 503.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.databases))
	healthy := true
	for _, db := range h.databases {
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Health check failed")
			checks[db.Name()] = err.Error()
			healthy = false
			continue
		}
		checks[db.Name()] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"databases":      checks,
		"uptime_seconds": time.Since(h.startupTime).Seconds(),
	})
}

// HandleSystemStats handles GET /api/system/stats
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	stats := SystemStatsResponse{
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		Databases:     make([]DatabaseStats, 0, len(h.databases)),
	}

	for _, db := range h.databases {
		dbStats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			continue
		}

		sizeMB := float64(dbStats.SizeBytes) / 1024 / 1024
		stats.TotalSizeMB += sizeMB
		stats.Databases = append(stats.Databases, DatabaseStats{
			Name:      db.Name(),
			SizeMB:    sizeMB,
			WALSizeMB: float64(dbStats.WALSizeBytes) / 1024 / 1024,
			PageCount: dbStats.PageCount,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": stats,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// getSystemStats calculates CPU and RAM usage percentages. The short
// sampling interval keeps the endpoint fast for dashboard polling.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
