// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

// StateSource is the domain store as seen by operators.
type StateSource interface {
	Stats() store.AdminStats
	FullState() store.FullState
}

type Handler struct {
	state         StateSource
	subscribers   func() int
	archivedCount func(ctx context.Context) (int64, error)
	dbStats       func() sql.DBStats
	redisStats    func() *redis.PoolStats
	redisPing     func(ctx context.Context) error
	dbPing        func(ctx context.Context) error
}

// HandlerConfig leaves a hook nil when the matching backend is not
// configured; its section is then omitted from the stats.
type HandlerConfig struct {
	State         StateSource
	Subscribers   func() int
	ArchivedCount func(ctx context.Context) (int64, error)
	DBStats       func() sql.DBStats
	RedisStats    func() *redis.PoolStats
	RedisPing     func(ctx context.Context) error
	DBPing        func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		state:         cfg.State,
		subscribers:   cfg.Subscribers,
		archivedCount: cfg.ArchivedCount,
		dbStats:       cfg.DBStats,
		redisStats:    cfg.RedisStats,
		redisPing:     cfg.RedisPing,
		dbPing:        cfg.DBPing,
	}
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/full-state", h.GetFullState)
	r.Get("/stats", h.GetSystemStats)
	r.Get("/stats/runtime", h.GetRuntimeStats)
}

func (h *Handler) GetFullState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	core.OK(w, h.state.FullState())
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Community: h.state.Stats(),
		Runtime:   readRuntimeStats(),
	}

	if h.subscribers != nil {
		response.Realtime = &RealtimeStats{Subscribers: h.subscribers()}
	}

	if h.archivedCount != nil {
		archived := &LedgerStats{}
		n, err := h.archivedCount(ctx)
		if err == nil {
			archived.Archived = &n
		}
		response.Ledger = archived
	}

	if h.dbPing != nil {
		response.Database = &DatabaseStatus{
			Healthy: h.dbPing(ctx) == nil,
			Stats:   h.getDBStats(),
		}
	}

	if h.redisPing != nil {
		response.Redis = &RedisStatus{
			Healthy: h.redisPing(ctx) == nil,
			Stats:   h.getRedisStats(),
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Community store.AdminStats `json:"community"`
	Realtime  *RealtimeStats   `json:"realtime,omitempty"`
	Ledger    *LedgerStats     `json:"ledger,omitempty"`
	Database  *DatabaseStatus  `json:"database,omitempty"`
	Redis     *RedisStatus     `json:"redis,omitempty"`
	Runtime   RuntimeStats     `json:"runtime"`
}

type RealtimeStats struct {
	Subscribers int `json:"subscribers"`
}

// LedgerStats.Archived is nil when the archive could not be counted.
type LedgerStats struct {
	Archived *int64 `json:"archived"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
