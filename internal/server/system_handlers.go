package server

import (
	"context"
	"encoding/json"
	"net/http"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fintrack/internal/database"
	"github.com/aristath/fintrack/internal/reliability"
)

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	backups   *reliability.BackupService // nil when backups are disabled
	startTime time.Time
}

// NewSystemHandlers creates system handlers over the given databases
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases []*database.DB, backups *reliability.BackupService) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		backups:   backups,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/disk", h.HandleDiskUsage)
		r.Get("/database/stats", h.HandleDatabaseStats)
		r.Get("/backups", h.HandleListBackups)
		r.Post("/backup", h.HandleTriggerBackup)
		r.Post("/backup/verify", h.HandleVerifyBackup)
	})
}

// HandleHealth is the liveness probe: a quick ping of every database
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for _, db := range h.databases {
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Health check failed")
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": db.Name(),
			})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSystemStatus returns process uptime plus CPU and memory usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cpu_percent":    cpuPct,
		"memory_percent": memPct,
	})
}

// HandleDiskUsage reports free and total space of the data directory volume
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		h.log.Error().Err(err).Msg("Failed to stat data directory")
		h.writeError(w, http.StatusInternalServerError, "failed to read disk usage")
		return
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_bytes": total,
		"free_bytes":  free,
		"used_bytes":  total - free,
	})
}

// HandleDatabaseStats reports size and page stats for each database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]map[string]interface{}, 0, len(h.databases))
	for _, db := range h.databases {
		var pageCount, pageSize int64
		if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read page count")
			continue
		}
		if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read page size")
			continue
		}
		stats = append(stats, map[string]interface{}{
			"name":       db.Name(),
			"path":       db.Path(),
			"size_bytes": pageCount * pageSize,
		})
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// HandleListBackups lists remote backup archives
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeError(w, http.StatusNotImplemented, "backups are not configured")
		return
	}
	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	h.writeJSON(w, http.StatusOK, backups)
}

// HandleTriggerBackup runs a backup immediately
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeError(w, http.StatusNotImplemented, "backups are not configured")
		return
	}
	if err := h.backups.CreateAndUploadBackup(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// HandleVerifyBackup restores the newest backup to a temporary directory
// and runs integrity checks on the restored databases
func (h *SystemHandlers) HandleVerifyBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeError(w, http.StatusNotImplemented, "backups are not configured")
		return
	}
	if err := h.backups.VerifyLatest(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Backup verification failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// systemStats returns CPU and RAM usage percentages.
// A short CPU sampling interval keeps the endpoint responsive.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
