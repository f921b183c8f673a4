package realtime

import (
	"log/slog"
	"sync"

	"stowroom/contract"
	"stowroom/observability"
)

// Directory is the process-wide registry of room coordinators, keyed by
// room id and created lazily on first use. Creation happens inside the
// directory lock, so the counter load of a new coordinator completes before
// any admission for that room can start.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*Coordinator

	sequences  contract.ISequenceRepository
	log        *slog.Logger
	monitoring *observability.MonitoringManager
}

func NewDirectory(sequences contract.ISequenceRepository, log *slog.Logger,
	monitoring *observability.MonitoringManager) *Directory {
	return &Directory{
		rooms:      make(map[string]*Coordinator),
		sequences:  sequences,
		log:        log,
		monitoring: monitoring,
	}
}

// Room returns the coordinator for a room, constructing it on first use.
func (d *Directory) Room(roomID string) (*Coordinator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if coordinator, ok := d.rooms[roomID]; ok {
		return coordinator, nil
	}
	coordinator, err := newCoordinator(roomID, d.sequences, d.log, d.monitoring)
	if err != nil {
		return nil, err
	}
	d.rooms[roomID] = coordinator
	d.log.Debug("Room coordinator created", "room", roomID)
	return coordinator, nil
}

// OpenCounts reports live rooms and connections for monitoring.
func (d *Directory) OpenCounts() (rooms, connections int) {
	d.mu.Lock()
	coordinators := make([]*Coordinator, 0, len(d.rooms))
	for _, c := range d.rooms {
		coordinators = append(coordinators, c)
	}
	d.mu.Unlock()

	for _, c := range coordinators {
		connections += c.ConnectionCount()
	}
	return len(coordinators), connections
}
