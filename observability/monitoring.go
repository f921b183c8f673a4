package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitoringStats aggregates the coordinator metrics for the reporter
// worker, the health endpoint and the badger inspector dashboard.
type MonitoringStats struct {
	// --- COORDINATOR METRICS ---
	Admissions uint64 `json:"admissions"`
	Closures   uint64 `json:"closures"`
	Broadcasts uint64 `json:"broadcasts"`
	Relays     uint64 `json:"relays"`
	Denied     uint64 `json:"denied"`
	Invalid    uint64 `json:"invalid"`
	Evictions  uint64 `json:"evictions"`

	OpenRooms       int `json:"open_rooms"`
	OpenConnections int `json:"open_connections"`

	// --- SYSTEM METRICS ---
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`

	CollectedAt time.Time `json:"collected_at"`
}

// MonitoringManager collects real-time telemetry. Counters are atomic so
// the hot paths (broadcast, relay) never contend on a lock for accounting.
type MonitoringManager struct {
	log  *slog.Logger
	proc *process.Process

	Admissions uint64
	Closures   uint64
	Broadcasts uint64
	Relays     uint64
	Denied     uint64
	Invalid    uint64
	Evictions  uint64

	// openFn reports live room/connection counts; wired by the composition
	// root to the coordinator directory.
	openFn func() (rooms, connections int)
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	m := &MonitoringManager{log: log}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Self process stats unavailable", "err", err)
	} else {
		m.proc = proc
	}
	return m
}

// WithOpenCounts registers the live rooms/connections provider.
func (m *MonitoringManager) WithOpenCounts(fn func() (rooms, connections int)) *MonitoringManager {
	m.openFn = fn
	return m
}

func (m *MonitoringManager) AddAdmission() { atomic.AddUint64(&m.Admissions, 1) }
func (m *MonitoringManager) AddClosure()   { atomic.AddUint64(&m.Closures, 1) }
func (m *MonitoringManager) AddBroadcast() { atomic.AddUint64(&m.Broadcasts, 1) }
func (m *MonitoringManager) AddRelay()     { atomic.AddUint64(&m.Relays, 1) }
func (m *MonitoringManager) AddDenied()    { atomic.AddUint64(&m.Denied, 1) }
func (m *MonitoringManager) AddInvalid()   { atomic.AddUint64(&m.Invalid, 1) }
func (m *MonitoringManager) AddEviction()  { atomic.AddUint64(&m.Evictions, 1) }

// GetLatest snapshots all counters plus memory and process stats.
func (m *MonitoringManager) GetLatest() MonitoringStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := MonitoringStats{
		Admissions:  atomic.LoadUint64(&m.Admissions),
		Closures:    atomic.LoadUint64(&m.Closures),
		Broadcasts:  atomic.LoadUint64(&m.Broadcasts),
		Relays:      atomic.LoadUint64(&m.Relays),
		Denied:      atomic.LoadUint64(&m.Denied),
		Invalid:     atomic.LoadUint64(&m.Invalid),
		Evictions:   atomic.LoadUint64(&m.Evictions),
		AllocMemMb:  mem.Alloc / 1024 / 1024,
		NumGC:       mem.NumGC,
		CollectedAt: time.Now(),
	}
	if m.openFn != nil {
		stats.OpenRooms, stats.OpenConnections = m.openFn()
	}
	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
