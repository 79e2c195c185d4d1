package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/mocks"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/notify"
	"github.com/mayor-schedule-api/internal/repository"
)

// sweepAt is 2026-03-10 09:00 UTC in every sweeper test; appointments are
// placed relative to it.
var sweepAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestReminder(appts *mocks.MockAppointmentRepository, users *mocks.MockUserRepository, sender *mocks.MockSender) *reminderService {
	repos := &repository.Repositories{Appointment: appts, User: users}
	cfg := config.ReminderConfig{Interval: time.Minute, Lookahead: 30 * time.Minute}
	s := newReminderService(repos, sender, metrics.NewCollector(prometheus.NewRegistry()), cfg, zerolog.Nop())
	s.now = func() time.Time { return sweepAt }
	return s
}

func addMayorWithToken(t *testing.T, users *mocks.MockUserRepository, id string, tokens ...string) {
	t.Helper()
	ctx := context.Background()
	users.Create(ctx, &models.User{ID: id, Role: models.RoleMayor, Status: models.StatusActive})
	for _, token := range tokens {
		users.AddPushToken(ctx, id, token)
	}
}

func addAppointment(appts *mocks.MockAppointmentRepository, id, date, timeOfDay string) {
	appts.Create(context.Background(), &models.Appointment{
		ID:          id,
		VisitorName: "Visitor " + id,
		Subject:     "Subject " + id,
		Date:        date,
		Time:        timeOfDay,
	})
}

func TestReminderSweep_WindowBoundaries(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addMayorWithToken(t, users, "mayor-1", "token-1")

	// All on the sweep day. Due offsets relative to 09:00.
	addAppointment(appts, "past", "2026-03-10", "08:30")         // past due
	addAppointment(appts, "exactly-now", "2026-03-10", "09:00")  // boundary: not strictly future
	addAppointment(appts, "in-1m", "2026-03-10", "09:01")        // inside
	addAppointment(appts, "at-edge", "2026-03-10", "09:30")      // inclusive upper bound
	addAppointment(appts, "beyond", "2026-03-10", "09:31")       // outside lookahead
	addAppointment(appts, "tomorrow", "2026-03-11", "09:15")     // not a candidate today

	s := newTestReminder(appts, users, sender)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	wantSent := map[string]bool{
		"past":        false,
		"exactly-now": false,
		"in-1m":       true,
		"at-edge":     true,
		"beyond":      false,
		"tomorrow":    false,
	}
	for id, want := range wantSent {
		got := appts.Appointments[id].ReminderSent
		if got != want {
			t.Errorf("appointment %s: reminder_sent = %v, want %v", id, got, want)
		}
	}
	if sender.CallCount() != 2 {
		t.Errorf("expected 2 sends, got %d", sender.CallCount())
	}
}

func TestReminderSweep_SecondSweepIsIdempotent(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addMayorWithToken(t, users, "mayor-1", "token-1")
	addAppointment(appts, "a1", "2026-03-10", "09:15")

	s := newTestReminder(appts, users, sender)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.RunOnce(ctx); err != nil {
			t.Fatalf("sweep %d failed: %v", i, err)
		}
	}

	if sender.CallCount() != 1 {
		t.Errorf("expected exactly 1 send across repeated sweeps, got %d", sender.CallCount())
	}
	if !appts.Appointments["a1"].ReminderSent {
		t.Error("reminder_sent should be set after the first sweep")
	}
}

func TestReminderSweep_RetriesUntilRecipientExists(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addAppointment(appts, "a1", "2026-03-10", "09:20")

	s := newTestReminder(appts, users, sender)
	ctx := context.Background()

	// No mayor endpoints yet: the flag must stay unset so later cycles retry.
	for i := 0; i < 2; i++ {
		if err := s.RunOnce(ctx); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
	}
	if sender.CallCount() != 0 {
		t.Fatalf("expected no sends without recipients, got %d", sender.CallCount())
	}
	if appts.Appointments["a1"].ReminderSent {
		t.Fatal("reminder_sent must stay unset while no endpoint exists")
	}

	// An endpoint appears; the next cycle delivers.
	addMayorWithToken(t, users, "mayor-1", "token-1")
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if sender.CallCount() != 1 {
		t.Errorf("expected 1 send after endpoint registration, got %d", sender.CallCount())
	}
	if !appts.Appointments["a1"].ReminderSent {
		t.Error("reminder_sent should be set after successful delivery")
	}
}

func TestReminderSweep_DeliveryFailureLeavesFlagUnset(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addMayorWithToken(t, users, "mayor-1", "token-1")
	addAppointment(appts, "a1", "2026-03-10", "09:20")

	s := newTestReminder(appts, users, sender)
	ctx := context.Background()

	sender.Err = errors.New("provider unreachable")
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if appts.Appointments["a1"].ReminderSent {
		t.Fatal("reminder_sent must stay unset after a failed send")
	}

	// Provider recovers; the same appointment is retried.
	sender.Err = nil
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if !appts.Appointments["a1"].ReminderSent {
		t.Error("reminder_sent should be set once delivery succeeds")
	}
	if sender.CallCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", sender.CallCount())
	}
}

func TestReminderSweep_AllEndpointsRejectedLeavesFlagUnset(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addMayorWithToken(t, users, "mayor-1", "token-1")
	addAppointment(appts, "a1", "2026-03-10", "09:20")

	// Every endpoint rejects the message with a transient error.
	sender.ResultFunc = func(tokens []string) *notify.SendReport {
		report := &notify.SendReport{Failure: len(tokens)}
		for _, token := range tokens {
			report.Results = append(report.Results, notify.TokenResult{Token: token, Reason: "Unavailable"})
		}
		return report
	}

	s := newTestReminder(appts, users, sender)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if appts.Appointments["a1"].ReminderSent {
		t.Error("reminder_sent must stay unset when every endpoint rejects")
	}
}

func TestReminderSweep_BadDatetimeDoesNotBlockOthers(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addMayorWithToken(t, users, "mayor-1", "token-1")
	addAppointment(appts, "broken", "2026-03-10", "9am")
	addAppointment(appts, "good", "2026-03-10", "09:20")

	s := newTestReminder(appts, users, sender)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if appts.Appointments["broken"].ReminderSent {
		t.Error("unparseable appointment must not be marked")
	}
	if !appts.Appointments["good"].ReminderSent {
		t.Error("valid appointment should still get its reminder")
	}
}

func TestReminderSweep_EditRestartsReminderLifecycle(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addMayorWithToken(t, users, "mayor-1", "token-1")
	addAppointment(appts, "a1", "2026-03-10", "09:15")

	s := newTestReminder(appts, users, sender)
	ctx := context.Background()

	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if sender.CallCount() != 1 {
		t.Fatalf("expected 1 send, got %d", sender.CallCount())
	}

	// Rescheduling within the window clears the flag; the next sweep fires
	// again for the new instant.
	if err := appts.Update(ctx, &models.Appointment{
		ID:          "a1",
		VisitorName: "Visitor a1",
		Subject:     "Subject a1",
		Date:        "2026-03-10",
		Time:        "09:25",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if sender.CallCount() != 2 {
		t.Errorf("expected a second reminder after the edit, got %d sends", sender.CallCount())
	}
}
