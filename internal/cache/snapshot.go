// Package cache persists the read model's last synchronized appointment set
// so dashboards keep working while the store is unreachable. The cache is a
// fallback, never a source of truth.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mayor-schedule-api/internal/models"
)

// namespace mirrors the storage key the dashboards use for offline data.
const namespace = "mayor-schedule-offline"

// Snapshot is the persisted form of one synchronized result set.
type Snapshot struct {
	Appointments []*models.Appointment `json:"appointments"`
	LastSync     time.Time             `json:"last_sync"`
}

// SnapshotStore reads and writes scope-keyed snapshots under a directory.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates the cache directory if needed.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (s *SnapshotStore) path(scope models.AppointmentScope) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", namespace, scope))
}

// Save persists the appointment set for a scope along with the sync instant.
// The write goes through a temp file so a crash never leaves a torn snapshot.
func (s *SnapshotStore) Save(scope models.AppointmentScope, appointments []*models.Appointment) error {
	snap := Snapshot{
		Appointments: appointments,
		LastSync:     time.Now(),
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := s.path(scope) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp, s.path(scope))
}

// Load returns the last persisted snapshot for a scope, or nil when none
// has been saved yet.
func (s *SnapshotStore) Load(scope models.AppointmentScope) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(scope))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Clear removes the snapshot for a scope.
func (s *SnapshotStore) Clear(scope models.AppointmentScope) error {
	err := os.Remove(s.path(scope))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
