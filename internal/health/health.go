package health

import (
	"context"
	"fmt"
	"time"

	"delivery-backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthChecker reports on the optional database and cache. A nil pool means
// the server runs on the in-memory store and the database is reported as disabled.
type HealthChecker struct {
	db        *pgxpool.Pool
	startedAt time.Time
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Cache    ComponentHealth `json:"cache"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime        string  `json:"uptime"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
}

// NewHealthChecker creates a health checker
//
// Parameters:
//   - db: PostgreSQL pool, or nil when the workspace lives in memory
//
// Returns:
//   - *HealthChecker: checker reporting the database as "disabled" when db is nil
func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db, startedAt: time.Now()}
}

// CheckBasic is unhealthy only when a configured database does not answer.
// Redis is optional and never fails readiness.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status == "unhealthy" {
		status = "unhealthy"
	}
	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Cache:    checkCache(),
	}
}

func (h *HealthChecker) CheckDetailed() DetailedStatus {
	d := DetailedStatus{
		HealthStatus: h.CheckBasic(),
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
	}

	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		d.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		d.MemoryPercent = memStats.UsedPercent
		d.MemoryUsed = formatBytes(memStats.Used)
		d.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		d.DiskPercent = diskStats.UsedPercent
		d.DiskUsed = formatBytes(diskStats.Used)
		d.DiskTotal = formatBytes(diskStats.Total)
	}
	return d
}

func (h *HealthChecker) checkDatabase() ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: "disabled"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func checkCache() ComponentHealth {
	if !cache.Enabled() {
		return ComponentHealth{Status: "disabled"}
	}
	start := time.Now()
	ok := cache.IsHealthy()
	responseTime := time.Since(start).Milliseconds()
	if !ok {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
