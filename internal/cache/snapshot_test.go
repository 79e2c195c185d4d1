package cache

import (
	"testing"

	"github.com/mayor-schedule-api/internal/models"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore failed: %v", err)
	}

	set := []*models.Appointment{
		{ID: "a1", VisitorName: "Ahmad", Subject: "Roads", Date: "2026-03-10", Time: "14:30"},
		{ID: "a2", VisitorName: "Sara", Subject: "Budget", Date: "2026-03-11", Time: "09:00"},
	}
	if err := store.Save(models.ScopeAll, set); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	snap, err := store.Load(models.ScopeAll)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if len(snap.Appointments) != 2 || snap.Appointments[0].ID != "a1" {
		t.Errorf("unexpected snapshot contents: %d entries", len(snap.Appointments))
	}
	if snap.LastSync.IsZero() {
		t.Error("LastSync should be set")
	}
}

func TestSnapshotStore_ScopesAreIndependent(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore failed: %v", err)
	}

	if err := store.Save(models.ScopeToday, []*models.Appointment{{ID: "t1"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	snap, err := store.Load(models.ScopeUpcoming)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap != nil {
		t.Error("expected nil for a scope never saved")
	}
}

func TestSnapshotStore_Clear(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore failed: %v", err)
	}

	if err := store.Save(models.ScopeAll, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(models.ScopeAll); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	snap, err := store.Load(models.ScopeAll)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap != nil {
		t.Error("expected nil after Clear")
	}

	// Clearing twice is fine.
	if err := store.Clear(models.ScopeAll); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}
