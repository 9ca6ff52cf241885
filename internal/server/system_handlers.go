package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/database"
)

// SystemHandlers serves health and system status endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	marketDB  *database.DB
	cacheDB   *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, dataDir string, marketDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		marketDB:  marketDB,
		cacheDB:   cacheDB,
		startedAt: time.Now(),
	}
}

// DatabaseStatus reports one database's health.
type DatabaseStatus struct {
	Name    string  `json:"name"`
	Healthy bool    `json:"healthy"`
	SizeMB  float64 `json:"size_mb"`
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string           `json:"status"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemoryPercent float64          `json:"memory_percent"`
	Goroutines    int              `json:"goroutines"`
	Databases     []DatabaseStatus `json:"databases"`
	Timestamp     time.Time        `json:"timestamp"`
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	for _, db := range []*database.DB{h.marketDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.Conn().Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	h.writeJSON(w, code, map[string]string{"status": status})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		Timestamp:     time.Now().UTC(),
	}

	for _, db := range []*database.DB{h.marketDB, h.cacheDB} {
		if db == nil {
			continue
		}
		response.Databases = append(response.Databases, DatabaseStatus{
			Name:    db.Name(),
			Healthy: db.Conn().Ping() == nil,
			SizeMB:  h.fileSizeMB(db.Path()),
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

// getSystemStats calculates CPU and RAM usage percentages. The CPU sample
// uses a short interval so the endpoint stays responsive for pollers.
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

func (h *SystemHandlers) fileSizeMB(path string) float64 {
	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
